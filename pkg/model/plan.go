package model

// Plan is a finite, ordered sequence of actions from a starting world state
// to a goal, with total cost. The first action is the one the executor
// runs next.
type Plan struct {
	Goal       Goal
	Actions    []Action
	TotalCost  float64
	TotalValue float64
}

// Head returns the first action in the plan and whether the plan is
// non-empty.
func (p Plan) Head() (Action, bool) {
	if len(p.Actions) == 0 {
		return Action{}, false
	}
	return p.Actions[0], true
}

// Len returns the number of actions remaining in the plan.
func (p Plan) Len() int { return len(p.Actions) }

// ActionNames returns the ordered names of the plan's actions, used for
// deterministic tie-break comparisons and test assertions.
func (p Plan) ActionNames() []string {
	names := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		names[i] = a.Name()
	}
	return names
}
