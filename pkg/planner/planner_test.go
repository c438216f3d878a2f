package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

func noop() model.Executor {
	return model.ExecutorFunc(func(ctx model.ActionContext) (model.Outcome, error) {
		return model.ValueOutcome(struct{}{}), nil
	})
}

func TestPlanHappyPath(t *testing.T) {
	extractPerson := model.Action{
		ActionName:     "extractPerson",
		Preconditions:  []model.ConditionRequirement{{Condition: "userInputPresent", Determination: worldstate.True}},
		Postconditions: []model.ConditionRequirement{{Condition: "personExtracted", Determination: worldstate.True}},
		Cost:           1,
		Executor:       noop(),
	}
	retrieveHoroscope := model.Action{
		ActionName:     "retrieveHoroscope",
		Preconditions:  []model.ConditionRequirement{{Condition: "personExtracted", Determination: worldstate.True}},
		Postconditions: []model.ConditionRequirement{{Condition: "haveHoroscope", Determination: worldstate.True}},
		Cost:           1,
		Executor:       noop(),
	}
	findNews := model.Action{
		ActionName:     "findNewsStories",
		Preconditions:  []model.ConditionRequirement{{Condition: "personExtracted", Determination: worldstate.True}},
		Postconditions: []model.ConditionRequirement{{Condition: "haveNews", Determination: worldstate.True}},
		Cost:           1,
		Executor:       noop(),
	}
	writeup := model.Action{
		ActionName: "writeup",
		Preconditions: []model.ConditionRequirement{
			{Condition: "haveHoroscope", Determination: worldstate.True},
			{Condition: "haveNews", Determination: worldstate.True},
		},
		Postconditions: []model.ConditionRequirement{{Condition: "writeupDone", Determination: worldstate.True}},
		Cost:           1,
		OutputType:     "Writeup",
		Executor:       noop(),
	}

	goal := model.Goal{
		GoalName:        "deliverWriteup",
		Preconditions:   []model.ConditionRequirement{{Condition: "writeupDone", Determination: worldstate.True}},
		SatisfiedByType: "Writeup",
	}

	system := model.PlanningSystem{Actions: []model.Action{extractPerson, retrieveHoroscope, findNews, writeup}}
	ws := worldstate.Empty().With("userInputPresent", worldstate.True)

	plan, ok := Plan(ws, system, []model.Goal{goal}, Options{})
	require.True(t, ok)
	require.Len(t, plan.ActionNames(), 4)
	assert.Equal(t, "extractPerson", plan.ActionNames()[0])
	assert.Equal(t, "writeup", plan.ActionNames()[len(plan.ActionNames())-1])
	assert.Equal(t, float64(4), plan.TotalCost)
}

func TestPlanNoPlanWhenUnreachable(t *testing.T) {
	action := model.Action{
		ActionName:     "needsFoo",
		Preconditions:  []model.ConditionRequirement{{Condition: "foo", Determination: worldstate.True}},
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		Executor:       noop(),
	}
	goal := model.Goal{GoalName: "g", Preconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}}}
	system := model.PlanningSystem{Actions: []model.Action{action}}

	_, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{})
	assert.False(t, ok)
}

func TestPlanDeterminism(t *testing.T) {
	cheap := model.Action{
		ActionName:     "cheap",
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		Cost:           1,
		Executor:       noop(),
	}
	alsoCheap := model.Action{
		ActionName:     "alsoCheap",
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		Cost:           1,
		Value:          1,
		Executor:       noop(),
	}
	goal := model.Goal{GoalName: "g", Preconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}}}
	system := model.PlanningSystem{Actions: []model.Action{cheap, alsoCheap}}

	first, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{})
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{})
		require.True(t, ok)
		assert.Equal(t, first.ActionNames(), again.ActionNames())
	}
	// Tie-break prefers highest summed action value among equal-cost paths.
	assert.Equal(t, "alsoCheap", first.ActionNames()[0])
}

func TestPlanExcludesMissingToolGroups(t *testing.T) {
	needsTool := model.Action{
		ActionName:     "needsTool",
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		ToolGroups:     []string{"search"},
		Cost:           1,
		Executor:       noop(),
	}
	goal := model.Goal{GoalName: "g", Preconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}}}
	system := model.PlanningSystem{Actions: []model.Action{needsTool}}

	_, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{AvailableToolGroups: map[string]bool{}})
	assert.False(t, ok)

	plan, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{AvailableToolGroups: map[string]bool{"search": true}})
	require.True(t, ok)
	assert.Equal(t, 1, plan.Len())
}

// Admissibility: the returned plan's cost is
// no worse than a brute-force search over all action orderings up to a
// small bound finds.
func TestPlanAdmissibility(t *testing.T) {
	cheapPath := model.Action{
		ActionName:     "direct",
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		Cost:           2,
		Executor:       noop(),
	}
	stepOne := model.Action{
		ActionName:     "stepOne",
		Postconditions: []model.ConditionRequirement{{Condition: "mid", Determination: worldstate.True}},
		Cost:           1,
		Executor:       noop(),
	}
	stepTwo := model.Action{
		ActionName:    "stepTwo",
		Preconditions: []model.ConditionRequirement{{Condition: "mid", Determination: worldstate.True}},
		Postconditions: []model.ConditionRequirement{
			{Condition: "done", Determination: worldstate.True},
		},
		Cost:     2,
		Executor: noop(),
	}
	goal := model.Goal{GoalName: "g", Preconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}}}
	system := model.PlanningSystem{Actions: []model.Action{cheapPath, stepOne, stepTwo}}

	plan, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{})
	require.True(t, ok)
	// Brute force minimum over {direct (cost 2), stepOne+stepTwo (cost 3)} is 2.
	assert.Equal(t, float64(2), plan.TotalCost)
	assert.Equal(t, []string{"direct"}, plan.ActionNames())
}

func TestPlanExcludesAlreadyExecutedNonRerunnable(t *testing.T) {
	once := model.Action{
		ActionName:     "once",
		Postconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}},
		CanRerun:       false,
		Cost:           1,
		Executor:       noop(),
	}
	goal := model.Goal{GoalName: "g", Preconditions: []model.ConditionRequirement{{Condition: "done", Determination: worldstate.True}}}
	system := model.PlanningSystem{Actions: []model.Action{once}}

	_, ok := Plan(worldstate.Empty(), system, []model.Goal{goal}, Options{AlreadyExecuted: map[string]bool{"once": true}})
	assert.False(t, ok)
}
