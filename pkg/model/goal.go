package model

import "github.com/codeready-toolchain/agentcore/pkg/worldstate"

// Goal is an immutable target state. If SatisfiedByType is non-empty, the
// goal is also considered reached once an object assignable to that type
// has been observed on the blackboard (see worldstate.ObjectOfTypePresent);
// during search the planner tracks this with a synthetic condition — see
// SatisfiedCondition.
type Goal struct {
	GoalName       string
	Description    string
	Preconditions  []ConditionRequirement
	SatisfiedByType string
	OutputClass    string
}

func (g Goal) Name() string { return g.GoalName }

// SatisfiedCondition is the name of the synthetic "object of type T
// present" condition the planner sets once some action's OutputType
// matches SatisfiedByType along a candidate path. Derived from the goal
// name so two goals never collide.
func (g Goal) SatisfiedCondition() string {
	return "goal:" + g.GoalName + ":observed"
}

// ReachableIn reports whether no precondition of g is FALSE in ws (UNKNOWN
// counts as reachable), ignoring the SatisfiedByType test. The planner's
// goal test uses SatisfiedIn instead.
func (g Goal) ReachableIn(ws worldstate.WorldState) bool {
	for _, pre := range g.Preconditions {
		if ws.Get(pre.Condition) == worldstate.False {
			return false
		}
	}
	return true
}

// SatisfiedIn reports whether every precondition of g is TRUE in ws (used
// by the planner's A* goal test, which requires definite truth rather than
// mere non-contradiction).
func (g Goal) SatisfiedIn(ws worldstate.WorldState) bool {
	for _, pre := range g.Preconditions {
		if !ws.Satisfies(pre.Condition, worldstate.True) {
			return false
		}
	}
	return true
}

// UnsatisfiedCount returns the number of preconditions not yet TRUE in ws;
// used as the planner's A* heuristic.
func (g Goal) UnsatisfiedCount(ws worldstate.WorldState) int {
	n := 0
	for _, pre := range g.Preconditions {
		if !ws.Satisfies(pre.Condition, worldstate.True) {
			n++
		}
	}
	return n
}
