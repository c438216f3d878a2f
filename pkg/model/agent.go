package model

import (
	"sort"

	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

// PlanningSystem is the (actions, conditions) view of an Agent the planner
// searches over. Goals are passed separately since a single planning
// system may be searched against one goal (WithSingleGoal) or many.
type PlanningSystem struct {
	Actions    []Action
	Conditions []worldstate.Condition
}

// Agent is a named, immutable bundle of actions, conditions, and goals —
// the unit handed to a ProcessExecutor.
type Agent struct {
	AgentName        string
	AgentDescription string
	ActionList       []Action
	ConditionList    []worldstate.Condition
	GoalList         []Goal
}

// NewAgent builds an Agent, taking ownership of no external state (slices
// are copied).
func NewAgent(name string, actions []Action, conditions []worldstate.Condition, goals []Goal) Agent {
	return Agent{
		AgentName:     name,
		ActionList:    append([]Action(nil), actions...),
		ConditionList: append([]worldstate.Condition(nil), conditions...),
		GoalList:      append([]Goal(nil), goals...),
	}
}

func (a Agent) Name() string                       { return a.AgentName }
func (a Agent) Description() string                { return a.AgentDescription }
func (a Agent) Actions() []Action                  { return a.ActionList }
func (a Agent) Conditions() []worldstate.Condition { return a.ConditionList }
func (a Agent) Goals() []Goal                      { return a.GoalList }

// WithDescription returns a copy of a carrying a ranking description.
func (a Agent) WithDescription(description string) Agent {
	a.AgentDescription = description
	return a
}

// PlanningSystem returns the (actions, conditions) view of a.
func (a Agent) PlanningSystem() PlanningSystem {
	return PlanningSystem{Actions: a.ActionList, Conditions: a.ConditionList}
}

// WithSingleGoal returns a copy of a restricted to a single goal.
func (a Agent) WithSingleGoal(g Goal) Agent {
	a.GoalList = []Goal{g}
	return a
}

// Prune returns a copy of a containing only actions that appear in some
// plan to some goal, starting from ws. Reachability is computed as a
// forward-chaining fixed point over preconditions/postconditions: an
// action is kept if applying some sequence of already-reachable actions to
// ws can make its preconditions hold, and it is only useful if it (directly
// or transitively, through the conditions it sets) can help satisfy some
// goal's preconditions or SatisfiedByType. This is deliberately cheaper
// than running the full A* search per goal — pruning only needs "can ever
// matter", not "is on the optimal path".
func (a Agent) Prune(ws worldstate.WorldState) Agent {
	keep := reachableActions(a.ActionList, a.GoalList, ws)
	var kept []Action
	for _, act := range a.ActionList {
		if keep[act.Name()] {
			kept = append(kept, act)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name() < kept[j].Name() })
	a.ActionList = kept
	return a
}

// relevantConditions returns the set of condition names that appear in any
// goal's preconditions — the conditions pruning cares about actions
// eventually setting.
func relevantConditions(goals []Goal) map[string]bool {
	want := make(map[string]bool)
	for _, g := range goals {
		for _, pre := range g.Preconditions {
			want[pre.Condition] = true
		}
	}
	return want
}

// reachableActions computes, via forward chaining from ws, which actions
// can ever become applicable, then filters to those whose effects touch a
// condition some goal cares about (directly or because a later reachable
// action bridges it to one that does).
func reachableActions(actions []Action, goals []Goal, ws worldstate.WorldState) map[string]bool {
	applicable := map[string]bool{}
	state := ws
	for {
		progressed := false
		for _, act := range actions {
			if applicable[act.Name()] {
				continue
			}
			if act.SatisfiedIn(state) {
				applicable[act.Name()] = true
				state = act.Apply(state)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	want := relevantConditions(goals)
	relevant := map[string]bool{}

	// An action whose OutputType matches a goal's SatisfiedByType is
	// relevant on its own: presence of that output is itself the goal test,
	// with no postcondition literal to chain through.
	satisfiesOutput := map[string]bool{}
	for _, g := range goals {
		if g.SatisfiedByType != "" {
			satisfiesOutput[g.SatisfiedByType] = true
		}
	}
	for _, act := range actions {
		if applicable[act.Name()] && act.OutputType != "" && satisfiesOutput[act.OutputType] {
			relevant[act.Name()] = true
			wantPreconditions(act, want)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, act := range actions {
			if !applicable[act.Name()] || relevant[act.Name()] {
				continue
			}
			for _, post := range act.Postconditions {
				if want[post.Condition] {
					relevant[act.Name()] = true
					wantPreconditions(act, want)
					changed = true
					break
				}
			}
		}
	}
	return relevant
}

// wantPreconditions marks a relevant action's preconditions as wanted so
// the actions that establish them become relevant in the next pass.
func wantPreconditions(act Action, want map[string]bool) {
	for _, pre := range act.Preconditions {
		want[pre.Condition] = true
	}
}
