package config

import (
	"fmt"
	"sync"
)

// AgentDefinition is the YAML-serializable precursor to an immutable
// model.Agent: it names actions, conditions, and goals by their
// registered-factory keys and carries the process defaults the agent runs
// with. Resolution happens against a ComponentRegistry (see components.go)
// — the explicit registration API that replaces reflective discovery.
type AgentDefinition struct {
	Description string   `yaml:"description,omitempty"`
	Actions     []string `yaml:"actions"`
	Conditions  []string `yaml:"conditions,omitempty"`
	Goals       []string `yaml:"goals"`

	Budget          *BudgetConfig    `yaml:"budget,omitempty"`
	Verbosity       *VerbosityConfig `yaml:"verbosity,omitempty"`
	AllowGoalChange bool             `yaml:"allow_goal_change,omitempty"`
}

// AgentRegistry stores agent definitions in memory with thread-safe access
type AgentRegistry struct {
	agents map[string]*AgentDefinition
	mu     sync.RWMutex
}

// NewAgentRegistry creates a new agent registry
func NewAgentRegistry(agents map[string]*AgentDefinition) *AgentRegistry {
	return &AgentRegistry{
		agents: agents,
	}
}

// Get retrieves an agent definition by name (thread-safe)
func (r *AgentRegistry) Get(name string) (*AgentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return agent, nil
}

// GetAll returns all agent definitions (thread-safe, returns copy)
func (r *AgentRegistry) GetAll() map[string]*AgentDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*AgentDefinition, len(r.agents))
	for k, v := range r.agents {
		result[k] = v
	}
	return result
}

// Has checks if an agent exists in the registry (thread-safe)
func (r *AgentRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.agents[name]
	return exists
}
