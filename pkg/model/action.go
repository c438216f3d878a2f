// Package model defines the immutable Action, Goal, Agent and Plan value
// types that the planner and executor operate on.
package model

import "github.com/codeready-toolchain/agentcore/pkg/worldstate"

// ConditionRequirement pairs a condition name with the determination an
// action requires (precondition) or guarantees (postcondition).
type ConditionRequirement struct {
	Condition     string
	Determination worldstate.Determination
}

// Executor is the opaque, side-effecting handle an Action invokes. It is
// supplied by whatever registers the Action (see pkg/config) and is not
// inspected by the planner.
type Executor interface {
	// Run performs the action's side effect. ctx carries process-scoped
	// cancellation and the collaborators (blackboard snapshot, LLM/tool
	// mediation) the executor needs; see ActionContext.
	Run(ctx ActionContext) (Outcome, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx ActionContext) (Outcome, error)

func (f ExecutorFunc) Run(ctx ActionContext) (Outcome, error) { return f(ctx) }

// Action is an immutable unit of work with preconditions, effects, and cost.
type Action struct {
	ActionName     string
	Description    string
	Preconditions  []ConditionRequirement
	Postconditions []ConditionRequirement
	Cost           float64
	Value          float64
	CanRerun       bool
	InputTypes     []string
	OutputType     string
	ToolGroups     []string
	Executor       Executor
}

func (a Action) Name() string { return a.ActionName }

// SatisfiedIn reports whether every precondition holds in ws.
func (a Action) SatisfiedIn(ws worldstate.WorldState) bool {
	for _, pre := range a.Preconditions {
		if !ws.Satisfies(pre.Condition, pre.Determination) {
			return false
		}
	}
	return true
}

// Apply overlays a's postconditions onto ws, returning the successor state.
func (a Action) Apply(ws worldstate.WorldState) worldstate.WorldState {
	next := ws
	for _, post := range a.Postconditions {
		next = next.With(post.Condition, post.Determination)
	}
	return next
}

// HasToolGroups reports whether every tool group a requires is present in
// available.
func (a Action) HasToolGroups(available map[string]bool) bool {
	for _, g := range a.ToolGroups {
		if !available[g] {
			return false
		}
	}
	return true
}
