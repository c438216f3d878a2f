// Package config loads and validates the runtime's YAML configuration:
// tool groups and their MCP servers, agent definitions, defaults, and
// retention. The pipeline is load → env-expand → merge-over-builtin →
// validate-collecting-all-errors; the result is a set of immutable
// in-memory registries.
package config

import (
	"github.com/codeready-toolchain/agentcore/pkg/model"
	"github.com/codeready-toolchain/agentcore/pkg/process"
)

// Config is the umbrella configuration object that encapsulates all
// registries, defaults, and configuration state. This is the primary
// object returned by Initialize() and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// System-wide defaults
	Defaults  Defaults
	Retention *RetentionConfig

	AllowedWSOrigins []string
	DatabaseURLEnv   string

	// Redaction patterns (built-in merged with user-defined) and groups
	RedactionPatterns map[string]RedactionPattern
	PatternGroups     map[string][]string

	// Component registries
	AgentRegistry     *AgentRegistry
	ToolGroupRegistry *ToolGroupRegistry
	MCPServerRegistry *MCPServerRegistry
}

// ConfigStats contains statistics about loaded configuration
type ConfigStats struct {
	Agents     int
	ToolGroups int
	MCPServers int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Agents:     len(c.AgentRegistry.GetAll()),
		ToolGroups: len(c.ToolGroupRegistry.GetAll()),
		MCPServers: len(c.MCPServerRegistry.GetAll()),
	}
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetAgent retrieves an agent definition by name.
// This is a convenience method that wraps AgentRegistry.Get().
func (c *Config) GetAgent(name string) (*AgentDefinition, error) {
	return c.AgentRegistry.Get(name)
}

// GetToolGroup retrieves a tool group configuration by name.
// This is a convenience method that wraps ToolGroupRegistry.Get().
func (c *Config) GetToolGroup(name string) (*ToolGroupConfig, error) {
	return c.ToolGroupRegistry.Get(name)
}

// GetMCPServer retrieves an MCP server configuration by ID.
// This is a convenience method that wraps MCPServerRegistry.Get().
func (c *Config) GetMCPServer(serverID string) (*MCPServerConfig, error) {
	return c.MCPServerRegistry.Get(serverID)
}

// ResolveAgent builds the immutable model.Agent for a configured agent
// definition using the given component registry.
func (c *Config) ResolveAgent(name string, components *ComponentRegistry) (model.Agent, error) {
	def, err := c.AgentRegistry.Get(name)
	if err != nil {
		return model.Agent{}, err
	}
	return components.ResolveAgent(name, def)
}

// ProcessOptions builds the default process.Options for a configured
// agent, layering its definition over the system defaults.
func (c *Config) ProcessOptions(name string) (process.Options, error) {
	def, err := c.AgentRegistry.Get(name)
	if err != nil {
		return process.Options{}, err
	}

	budget := c.Defaults.Budget
	if def.Budget != nil {
		budget = *def.Budget
	}
	opts := process.Options{
		Budget: process.Budget{
			MaxActions: budget.MaxActions,
			MaxTokens:  budget.MaxTokens,
			MaxCost:    budget.MaxCost,
		},
		AllowGoalChange: def.AllowGoalChange,
	}
	if def.Verbosity != nil {
		opts.Verbosity = process.Verbosity{
			ShowPrompts:      def.Verbosity.ShowPrompts,
			ShowLlmResponses: def.Verbosity.ShowLlmResponses,
			ShowPlanning:     def.Verbosity.ShowPlanning,
			Debug:            def.Verbosity.Debug,
		}
	}
	return opts, nil
}
