package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AgentcoreYAMLConfig represents the complete agentcore.yaml file structure
type AgentcoreYAMLConfig struct {
	System            *SystemYAMLConfig           `yaml:"system"`
	MCPServers        map[string]MCPServerConfig  `yaml:"mcp_servers"`
	ToolGroups        map[string]ToolGroupConfig  `yaml:"tool_groups"`
	Agents            map[string]AgentDefinition  `yaml:"agents"`
	RedactionPatterns map[string]RedactionPattern `yaml:"redaction_patterns"`
	Defaults          *Defaults                   `yaml:"defaults"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	AllowedWSOrigins []string             `yaml:"allowed_ws_origins"`
	Retention        *RetentionYAMLConfig `yaml:"retention"`
	DatabaseURLEnv   string               `yaml:"database_url_env,omitempty"`
}

// RetentionYAMLConfig holds retention settings from YAML. Durations are
// strings ("12h") parsed into the resolved RetentionConfig.
type RetentionYAMLConfig struct {
	ProcessRetentionDays int    `yaml:"process_retention_days,omitempty"`
	CleanupInterval      string `yaml:"cleanup_interval,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load agentcore.yaml from configDir (a missing file yields a
//     builtin-only configuration)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined values (user overrides built-in)
//  5. Build in-memory registries
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully",
		"agents", stats.Agents,
		"tool_groups", stats.ToolGroups,
		"mcp_servers", stats.MCPServers)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	yamlConfig, err := loader.loadAgentcoreYAML()
	if err != nil {
		return nil, NewLoadError("agentcore.yaml", err)
	}

	builtin := GetBuiltinConfig()

	agents := mergeAgents(yamlConfig.Agents)
	toolGroups := mergeToolGroups(yamlConfig.ToolGroups)
	mcpServers := mergeMCPServers(yamlConfig.MCPServers)
	redactionPatterns := mergeRedactionPatterns(builtin.RedactionPatterns, yamlConfig.RedactionPatterns)

	// Resolve defaults: user YAML overrides built-in, unset values fall
	// through to the built-in defaults.
	defaults := builtin.Defaults
	if yamlConfig.Defaults != nil {
		if err := mergo.Merge(&defaults, yamlConfig.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge defaults: %w", err)
		}
	}

	retention := resolveRetentionConfig(yamlConfig.System)
	allowedWSOrigins := resolveAllowedWSOrigins(yamlConfig.System)
	databaseURLEnv := resolveDatabaseURLEnv(yamlConfig.System)

	return &Config{
		configDir:         configDir,
		Defaults:          defaults,
		Retention:         retention,
		AllowedWSOrigins:  allowedWSOrigins,
		DatabaseURLEnv:    databaseURLEnv,
		RedactionPatterns: redactionPatterns,
		PatternGroups:     builtin.PatternGroups,
		AgentRegistry:     NewAgentRegistry(agents),
		ToolGroupRegistry: NewToolGroupRegistry(toolGroups),
		MCPServerRegistry: NewMCPServerRegistry(mcpServers),
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables before parsing. ExpandEnv replaces
	// missing variables with empty strings; validation catches required
	// fields left empty.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadAgentcoreYAML() (*AgentcoreYAMLConfig, error) {
	var config AgentcoreYAMLConfig

	// Initialize maps to avoid nil maps
	config.MCPServers = make(map[string]MCPServerConfig)
	config.ToolGroups = make(map[string]ToolGroupConfig)
	config.Agents = make(map[string]AgentDefinition)
	config.RedactionPatterns = make(map[string]RedactionPattern)

	if err := l.loadYAML("agentcore.yaml", &config); err != nil {
		// A deployment without agentcore.yaml runs on built-ins plus
		// programmatic registration.
		if errors.Is(err, ErrConfigNotFound) {
			slog.Info("no agentcore.yaml found, using built-in configuration only",
				"config_dir", l.configDir)
			return &config, nil
		}
		return nil, err
	}

	return &config, nil
}

// resolveRetentionConfig resolves retention configuration from system YAML, applying defaults.
func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()

	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.ProcessRetentionDays > 0 {
		cfg.ProcessRetentionDays = r.ProcessRetentionDays
	}
	if r.CleanupInterval != "" {
		if d, err := time.ParseDuration(r.CleanupInterval); err == nil {
			cfg.CleanupInterval = d
		} else {
			slog.Warn("invalid cleanup_interval in retention config, using default",
				"value", r.CleanupInterval,
				"default", cfg.CleanupInterval,
				"error", err)
		}
	}

	return cfg
}

// resolveAllowedWSOrigins returns additional WebSocket origin patterns from system YAML.
func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}

// resolveDatabaseURLEnv returns the env var naming the process-store
// connection string, defaulting to DATABASE_URL.
func resolveDatabaseURLEnv(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DatabaseURLEnv != "" {
		return sys.DatabaseURLEnv
	}
	return "DATABASE_URL"
}
