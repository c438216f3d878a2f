package autonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/agentcore/pkg/events"
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
	"github.com/codeready-toolchain/agentcore/pkg/ranker"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

type Person struct{ Name string }
type Horoscope struct{ Text string }
type NewsStories struct{ Stories []string }
type Writeup struct{ Text string }

type fakePlatform struct {
	agents  []model.Agent
	bus     *events.Bus
	created []*process.AgentProcess
}

func (f *fakePlatform) Agents() []model.Agent { return f.agents }

func (f *fakePlatform) CreateProcess(agent model.Agent, opts process.Options, initialBindings map[string]any) *process.AgentProcess {
	opts.InitialBindings = initialBindings
	p := process.New(agent, opts, f.bus, nil)
	f.created = append(f.created, p)
	return p
}

func appendValue(v any) model.Executor {
	return model.ExecutorFunc(func(model.ActionContext) (model.Outcome, error) {
		return model.ValueOutcome(v), nil
	})
}

func req(cond string) []model.ConditionRequirement {
	return []model.ConditionRequirement{{Condition: cond, Determination: worldstate.True}}
}

func starFinderAgent() model.Agent {
	actions := []model.Action{
		{
			ActionName:     "extractPerson",
			Preconditions:  req("userInputPresent"),
			Postconditions: req("personExtracted"),
			Cost:           1,
			Executor:       appendValue(Person{Name: "Lynda"}),
		},
		{
			ActionName:     "retrieveHoroscope",
			Preconditions:  req("personExtracted"),
			Postconditions: req("haveHoroscope"),
			Cost:           1,
			Executor:       appendValue(Horoscope{Text: "a turbulent week"}),
		},
		{
			ActionName:     "findNewsStories",
			Preconditions:  req("personExtracted"),
			Postconditions: req("haveNews"),
			Cost:           1,
			Executor:       appendValue(NewsStories{Stories: []string{"stargazer honored"}}),
		},
		{
			ActionName: "writeup",
			Preconditions: []model.ConditionRequirement{
				{Condition: "haveHoroscope", Determination: worldstate.True},
				{Condition: "haveNews", Determination: worldstate.True},
			},
			Postconditions: req("writeupDone"),
			Cost:           1,
			OutputType:     "Writeup",
			Executor:       appendValue(Writeup{Text: "Lynda's week"}),
		},
	}
	conditions := []worldstate.Condition{
		worldstate.ObjectOfTypePresent[model.UserInput]("userInputPresent"),
		worldstate.ObjectOfTypePresent[Person]("personExtracted"),
		worldstate.ObjectOfTypePresent[Horoscope]("haveHoroscope"),
		worldstate.ObjectOfTypePresent[NewsStories]("haveNews"),
		worldstate.ObjectOfTypePresent[Writeup]("writeupDone"),
	}
	goal := model.Goal{
		GoalName:        "deliverWriteup",
		Description:     "deliver a horoscope-and-news writeup for a person",
		Preconditions:   req("writeupDone"),
		SatisfiedByType: "Writeup",
	}
	return model.NewAgent("StarFinder", actions, conditions, []model.Goal{goal}).
		WithDescription("finds horoscopes and news for a person")
}

func testOptions() Options {
	return Options{Process: process.Options{Budget: process.Budget{MaxActions: 20}}}
}

// Closed execution happy path: the top-ranked agent runs to completion.
func TestChooseAndRunAgentHappyPath(t *testing.T) {
	bus := events.NewBus(0)
	pf := &fakePlatform{agents: []model.Agent{starFinderAgent()}, bus: bus}
	r := ranker.NewFakeRanker().Score("StarFinder", 0.9)
	a := New(pf, r, bus)

	p, err := a.ChooseAndRunAgent(context.Background(), "Lynda is a scorpio. Find news for her", testOptions())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, process.Completed, p.Status())

	writeup, ok := process.ResultAs[Writeup](p)
	require.True(t, ok)
	assert.Contains(t, writeup.Text, "Lynda")

	history := p.History()
	require.Len(t, history, 4)
	assert.Equal(t, "extractPerson", history[0].ActionName)
	assert.Equal(t, "writeup", history[3].ActionName)

	// The user intent is seeded under the default binding.
	seeded, ok := p.Blackboard().Get(process.DefaultBinding)
	require.True(t, ok)
	assert.Equal(t, model.UserInput{Text: "Lynda is a scorpio. Find news for her"}, seeded)

	var sawChoiceMade bool
	for _, ev := range bus.Catchup(Channel) {
		if ev.Type == events.TypeRankingChoiceMade {
			sawChoiceMade = true
			assert.Equal(t, "StarFinder", ev.Payload.(events.RankingChoiceMadePayload).Chosen)
		}
	}
	assert.True(t, sawChoiceMade)
}

func TestChooseAndRunAgentBelowCutOff(t *testing.T) {
	bus := events.NewBus(0)
	pf := &fakePlatform{agents: []model.Agent{starFinderAgent()}, bus: bus}
	r := ranker.NewFakeRanker().Score("StarFinder", 0.3)
	a := New(pf, r, bus)

	p, err := a.ChooseAndRunAgent(context.Background(), "bake a cake", testOptions())
	assert.Nil(t, p)

	var notFound *NoAgentFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "bake a cake", notFound.Intent)
	assert.Empty(t, pf.created, "no process may be created below the cut-off")
}

// Ranker cut-off boundary: a top score exactly at the
// cut-off proceeds; anything below does not.
func TestAgentCutOffBoundary(t *testing.T) {
	for _, tc := range []struct {
		score   float64
		proceed bool
	}{
		{0.59, false},
		{0.60, true},
		{0.61, true},
	} {
		pf := &fakePlatform{agents: []model.Agent{starFinderAgent()}}
		r := ranker.NewFakeRanker().Score("StarFinder", tc.score)
		a := New(pf, r, nil)

		_, err := a.ChooseAndRunAgent(context.Background(), "find news", testOptions())
		if tc.proceed {
			assert.NoError(t, err, "score %.2f should clear the default cut-off", tc.score)
		} else {
			var notFound *NoAgentFoundError
			assert.ErrorAs(t, err, &notFound, "score %.2f must not clear the default cut-off", tc.score)
		}
	}
}

// An empty scope yields NoGoalFound, creates
// no process, and emits ranking.choice_not_made.
func TestChooseAndAccomplishGoalEmptyScope(t *testing.T) {
	bus := events.NewBus(0)
	pf := &fakePlatform{bus: bus}
	a := New(pf, ranker.NewFakeRanker(), bus)

	p, err := a.ChooseAndAccomplishGoal(context.Background(), "xyz", testOptions(), nil, model.Agent{})
	assert.Nil(t, p)

	var notFound *NoGoalFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, pf.created)

	var sawNotMade bool
	for _, ev := range bus.Catchup(Channel) {
		if ev.Type == events.TypeRankingChoiceNotMade {
			sawNotMade = true
		}
	}
	assert.True(t, sawNotMade)
}

func TestChooseAndAccomplishGoalHappyPath(t *testing.T) {
	bus := events.NewBus(0)
	pf := &fakePlatform{bus: bus}
	r := ranker.NewFakeRanker().Score("deliverWriteup", 0.95)
	a := New(pf, r, bus)

	approved := false
	approver := func(intent string, goal model.Goal, rankings ranker.Rankings) (bool, string) {
		approved = true
		assert.Equal(t, "deliverWriteup", goal.Name())
		return true, ""
	}

	p, err := a.ChooseAndAccomplishGoal(context.Background(), "news for Lynda", testOptions(), approver, starFinderAgent())
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Equal(t, process.Completed, p.Status())

	var sawDynamicAgent bool
	for _, ev := range bus.Catchup(Channel) {
		if ev.Type == events.TypeDynamicAgentCreated {
			sawDynamicAgent = true
			payload := ev.Payload.(events.DynamicAgentCreatedPayload)
			assert.Equal(t, "deliverWriteup", payload.GoalName)
		}
	}
	assert.True(t, sawDynamicAgent)
}

func TestChooseAndAccomplishGoalNotApproved(t *testing.T) {
	pf := &fakePlatform{}
	r := ranker.NewFakeRanker().Score("deliverWriteup", 0.95)
	a := New(pf, r, nil)

	approver := func(string, model.Goal, ranker.Rankings) (bool, string) {
		return false, "out of office hours"
	}

	p, err := a.ChooseAndAccomplishGoal(context.Background(), "news", testOptions(), approver, starFinderAgent())
	assert.Nil(t, p)

	var notApproved *GoalNotApprovedError
	require.ErrorAs(t, err, &notApproved)
	assert.Equal(t, "out of office hours", notApproved.Reason)
	assert.Empty(t, pf.created)
}

// Synthesizing drops actions unreachable from
// the seeded user input.
func TestSynthesizedAgentIsPruned(t *testing.T) {
	type Foo struct{}
	actions := []model.Action{
		{
			ActionName:     "A",
			Preconditions:  req("userInputPresent"),
			Postconditions: req("aDone"),
			Cost:           1,
			Executor:       appendValue(Writeup{Text: "done"}),
		},
		{
			ActionName:     "B",
			Preconditions:  req("fooPresent"),
			Postconditions: req("aDone"),
			Cost:           1,
			Executor:       appendValue(Writeup{}),
		},
	}
	conditions := []worldstate.Condition{
		worldstate.ObjectOfTypePresent[model.UserInput]("userInputPresent"),
		worldstate.ObjectOfTypePresent[Foo]("fooPresent"),
		worldstate.ObjectOfTypePresent[Writeup]("aDone"),
	}
	goal := model.Goal{GoalName: "finish", Preconditions: req("aDone")}
	scope := model.NewAgent("scope", actions, conditions, []model.Goal{goal})

	pf := &fakePlatform{}
	r := ranker.NewFakeRanker().Score("finish", 0.9)
	a := New(pf, r, nil)

	p, err := a.ChooseAndAccomplishGoal(context.Background(), "do the thing", testOptions(), nil, scope)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, act := range p.Agent().Actions() {
		names = append(names, act.Name())
	}
	assert.Contains(t, names, "A")
	assert.NotContains(t, names, "B")
}
