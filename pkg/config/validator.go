package config

import (
	"fmt"
	"regexp"
)

// Validator performs comprehensive validation on loaded configuration.
// Problems are collected, not fail-fast — operators see every error in
// one pass.
type Validator struct {
	cfg  *Config
	errs []*ValidationError
}

// NewValidator creates a validator over cfg.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every validation and returns the collected problems,
// or nil when the configuration is clean.
func (v *Validator) ValidateAll() error {
	v.validateDefaults()
	v.validateMCPServers()
	v.validateToolGroups()
	v.validateAgents()
	v.validateRedactionPatterns()

	if len(v.errs) > 0 {
		return &ValidationErrors{Errors: v.errs}
	}
	return nil
}

func (v *Validator) addError(component, id, field string, err error) {
	v.errs = append(v.errs, NewValidationError(component, id, field, err))
}

func (v *Validator) validateDefaults() {
	d := v.cfg.Defaults
	if d.GoalConfidenceCutOff < 0 || d.GoalConfidenceCutOff > 1 {
		v.addError("defaults", "defaults", "goal_confidence_cut_off",
			fmt.Errorf("%w: must be in [0, 1], got %v", ErrInvalidValue, d.GoalConfidenceCutOff))
	}
	if d.AgentConfidenceCutOff < 0 || d.AgentConfidenceCutOff > 1 {
		v.addError("defaults", "defaults", "agent_confidence_cut_off",
			fmt.Errorf("%w: must be in [0, 1], got %v", ErrInvalidValue, d.AgentConfidenceCutOff))
	}
	v.validateBudget("defaults", "defaults", d.Budget)
	if d.WorkerCount < 0 {
		v.addError("defaults", "defaults", "worker_count",
			fmt.Errorf("%w: must be non-negative, got %d", ErrInvalidValue, d.WorkerCount))
	}
}

func (v *Validator) validateBudget(component, id string, b BudgetConfig) {
	if b.MaxActions < 0 {
		v.addError(component, id, "budget.max_actions",
			fmt.Errorf("%w: must be non-negative, got %d", ErrInvalidValue, b.MaxActions))
	}
	if b.MaxTokens < 0 {
		v.addError(component, id, "budget.max_tokens",
			fmt.Errorf("%w: must be non-negative, got %d", ErrInvalidValue, b.MaxTokens))
	}
	if b.MaxCost < 0 {
		v.addError(component, id, "budget.max_cost",
			fmt.Errorf("%w: must be non-negative, got %v", ErrInvalidValue, b.MaxCost))
	}
}

func (v *Validator) validateMCPServers() {
	for id, server := range v.cfg.MCPServerRegistry.GetAll() {
		transport := server.Transport
		if !transport.Type.IsValid() {
			v.addError("mcp_server", id, "transport.type",
				fmt.Errorf("%w: %q", ErrInvalidValue, transport.Type))
			continue
		}
		switch transport.Type {
		case TransportTypeStdio:
			if transport.Command == "" {
				v.addError("mcp_server", id, "transport.command",
					fmt.Errorf("%w: stdio transport requires command", ErrMissingRequiredField))
			}
		case TransportTypeHTTP, TransportTypeSSE:
			if transport.URL == "" {
				v.addError("mcp_server", id, "transport.url",
					fmt.Errorf("%w: %s transport requires url", ErrMissingRequiredField, transport.Type))
			}
		}
		if server.DataRedaction != nil {
			v.validateRedactionRefs("mcp_server", id, server.DataRedaction)
		}
	}
}

func (v *Validator) validateToolGroups() {
	for name, group := range v.cfg.ToolGroupRegistry.GetAll() {
		if len(group.Servers) == 0 {
			v.addError("tool_group", name, "servers",
				fmt.Errorf("%w: tool group names no MCP servers", ErrMissingRequiredField))
		}
		for _, serverID := range group.Servers {
			if !v.cfg.MCPServerRegistry.Has(serverID) {
				v.addError("tool_group", name, "servers",
					fmt.Errorf("%w: MCP server %q is not defined", ErrInvalidReference, serverID))
			}
		}
	}
}

func (v *Validator) validateAgents() {
	for name, def := range v.cfg.AgentRegistry.GetAll() {
		if len(def.Actions) == 0 {
			v.addError("agent", name, "actions",
				fmt.Errorf("%w: agent declares no actions", ErrMissingRequiredField))
		}
		if len(def.Goals) == 0 {
			v.addError("agent", name, "goals",
				fmt.Errorf("%w: agent declares no goals", ErrMissingRequiredField))
		}
		if def.Budget != nil {
			v.validateBudget("agent", name, *def.Budget)
		}
	}
}

func (v *Validator) validateRedactionPatterns() {
	for name, pattern := range v.cfg.RedactionPatterns {
		if pattern.Pattern == "" {
			v.addError("redaction_pattern", name, "pattern",
				fmt.Errorf("%w: pattern is empty", ErrMissingRequiredField))
			continue
		}
		if _, err := regexp.Compile(pattern.Pattern); err != nil {
			v.addError("redaction_pattern", name, "pattern",
				fmt.Errorf("%w: %v", ErrInvalidValue, err))
		}
	}
}

// validateRedactionRefs checks that a redaction config only references
// known patterns and pattern groups.
func (v *Validator) validateRedactionRefs(component, id string, cfg *RedactionConfig) {
	for _, groupName := range cfg.PatternGroups {
		if _, ok := v.cfg.PatternGroups[groupName]; !ok {
			v.addError(component, id, "data_redaction.pattern_groups",
				fmt.Errorf("%w: pattern group %q is not defined", ErrInvalidReference, groupName))
		}
	}
	for _, patternName := range cfg.Patterns {
		if _, ok := v.cfg.RedactionPatterns[patternName]; !ok {
			v.addError(component, id, "data_redaction.patterns",
				fmt.Errorf("%w: pattern %q is not defined", ErrInvalidReference, patternName))
		}
	}
}
