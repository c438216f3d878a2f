package config

// Shared types used across configuration structs

// TransportConfig defines MCP server transport configuration
type TransportConfig struct {
	Type TransportType `yaml:"type"`

	// For stdio transport
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// For http/sse transport
	URL         string `yaml:"url,omitempty"`
	BearerToken string `yaml:"bearer_token,omitempty"`
	VerifySSL   *bool  `yaml:"verify_ssl,omitempty"`
	Timeout     int    `yaml:"timeout,omitempty"` // In seconds
}

// RedactionConfig defines data redaction configuration for MCP servers
type RedactionConfig struct {
	Enabled        bool               `yaml:"enabled"`
	PatternGroups  []string           `yaml:"pattern_groups,omitempty"`
	Patterns       []string           `yaml:"patterns,omitempty"`
	CustomPatterns []RedactionPattern `yaml:"custom_patterns,omitempty"`
}

// RedactionPattern defines a regex-based redaction pattern
type RedactionPattern struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Description string `yaml:"description,omitempty"`
}

// BudgetConfig is the YAML shape of a process budget. Zero values mean
// "no limit" for that dimension.
type BudgetConfig struct {
	MaxActions int     `yaml:"max_actions,omitempty"`
	MaxTokens  int     `yaml:"max_tokens,omitempty"`
	MaxCost    float64 `yaml:"max_cost,omitempty"`
}

// VerbosityConfig is the YAML shape of per-process event verbosity.
type VerbosityConfig struct {
	ShowPrompts      bool `yaml:"show_prompts,omitempty"`
	ShowLlmResponses bool `yaml:"show_llm_responses,omitempty"`
	ShowPlanning     bool `yaml:"show_planning,omitempty"`
	Debug            bool `yaml:"debug,omitempty"`
}
