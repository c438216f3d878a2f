package config

import (
	"fmt"
	"sync"

	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/worldstate"
)

// ComponentRegistry holds the concrete actions, conditions, and goals
// that AgentDefinitions reference by name. Agent modules register their
// components at startup; there is no reflective discovery. Reads vastly
// outnumber writes, so lookups take a read lock only.
type ComponentRegistry struct {
	mu         sync.RWMutex
	actions    map[string]model.Action
	conditions map[string]worldstate.Condition
	goals      map[string]model.Goal
}

var defaultComponents = NewComponentRegistry()

// Components returns the process-wide component registry. Agent modules
// register their actions, conditions, and goals here at init time so
// configured AgentDefinitions can resolve them by name.
func Components() *ComponentRegistry { return defaultComponents }

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		actions:    make(map[string]model.Action),
		conditions: make(map[string]worldstate.Condition),
		goals:      make(map[string]model.Goal),
	}
}

// RegisterAction registers an action under its own name.
func (r *ComponentRegistry) RegisterAction(action model.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action.Name()] = action
}

// RegisterCondition registers a condition under its own name.
func (r *ComponentRegistry) RegisterCondition(condition worldstate.Condition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[condition.Name()] = condition
}

// RegisterGoal registers a goal under its own name.
func (r *ComponentRegistry) RegisterGoal(goal model.Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goal.Name()] = goal
}

// Action returns a registered action by name.
func (r *ComponentRegistry) Action(name string) (model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[name]
	if !ok {
		return model.Action{}, fmt.Errorf("%w: action %q", ErrComponentNotFound, name)
	}
	return action, nil
}

// Condition returns a registered condition by name.
func (r *ComponentRegistry) Condition(name string) (worldstate.Condition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	condition, ok := r.conditions[name]
	if !ok {
		return nil, fmt.Errorf("%w: condition %q", ErrComponentNotFound, name)
	}
	return condition, nil
}

// Goal returns a registered goal by name.
func (r *ComponentRegistry) Goal(name string) (model.Goal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	goal, ok := r.goals[name]
	if !ok {
		return model.Goal{}, fmt.Errorf("%w: goal %q", ErrComponentNotFound, name)
	}
	return goal, nil
}

// ResolveAgent builds the immutable model.Agent an AgentDefinition
// describes, looking up every named component. Missing components are
// collected so the caller sees all of them at once.
func (r *ComponentRegistry) ResolveAgent(name string, def *AgentDefinition) (model.Agent, error) {
	var errs []*ValidationError

	actions := make([]model.Action, 0, len(def.Actions))
	for _, actionName := range def.Actions {
		action, err := r.Action(actionName)
		if err != nil {
			errs = append(errs, NewValidationError("agent", name, "actions", err))
			continue
		}
		actions = append(actions, action)
	}

	conditions := make([]worldstate.Condition, 0, len(def.Conditions))
	for _, condName := range def.Conditions {
		condition, err := r.Condition(condName)
		if err != nil {
			errs = append(errs, NewValidationError("agent", name, "conditions", err))
			continue
		}
		conditions = append(conditions, condition)
	}

	goals := make([]model.Goal, 0, len(def.Goals))
	for _, goalName := range def.Goals {
		goal, err := r.Goal(goalName)
		if err != nil {
			errs = append(errs, NewValidationError("agent", name, "goals", err))
			continue
		}
		goals = append(goals, goal)
	}

	if len(errs) > 0 {
		return model.Agent{}, &ValidationErrors{Errors: errs}
	}
	return model.NewAgent(name, actions, conditions, goals).WithDescription(def.Description), nil
}
