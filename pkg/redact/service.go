// Package redact strips secrets from tool results and user-supplied data
// before they reach the blackboard, events, or persistence. Patterns come
// from the built-in set merged with user configuration; per-server custom
// patterns ride along on MCP server configs.
package redact

import (
	"log/slog"

	"github.com/codeready-toolchain/agentcore/pkg/config"
)

// Service applies data redaction. Created once at startup, thread-safe
// and stateless aside from compiled patterns.
type Service struct {
	registry             *config.MCPServerRegistry
	patterns             map[string]*CompiledPattern
	patternGroups        map[string][]string
	serverCustomPatterns map[string][]string
}

// NewService creates a redaction service, compiling every pattern
// eagerly. registry may be nil when no MCP servers are configured.
func NewService(registry *config.MCPServerRegistry, patterns map[string]config.RedactionPattern, patternGroups map[string][]string) *Service {
	s := &Service{
		registry:             registry,
		patterns:             make(map[string]*CompiledPattern),
		patternGroups:        patternGroups,
		serverCustomPatterns: make(map[string][]string),
	}

	s.compileNamedPatterns(patterns)
	s.compileCustomPatterns()

	slog.Info("redaction service initialized",
		"compiled_patterns", len(s.patterns),
		"pattern_groups", len(patternGroups))

	return s
}

// NewServiceFromConfig wires a Service from a loaded configuration.
func NewServiceFromConfig(cfg *config.Config) *Service {
	return NewService(cfg.MCPServerRegistry, cfg.RedactionPatterns, cfg.PatternGroups)
}

// RedactToolResult applies server-specific redaction to MCP tool result
// content. On redaction failure the content is replaced outright
// (fail-closed) — leaking a secret is worse than losing a tool result.
func (s *Service) RedactToolResult(content string, serverID string) string {
	if content == "" || s.registry == nil {
		return content
	}

	serverCfg, err := s.registry.Get(serverID)
	if err != nil || serverCfg.DataRedaction == nil || !serverCfg.DataRedaction.Enabled {
		return content
	}

	resolved := s.resolvePatterns(serverCfg.DataRedaction, serverID)
	if len(resolved.regexPatterns) == 0 {
		return content
	}

	redacted, ok := s.apply(content, resolved)
	if !ok {
		slog.Error("redaction failed, dropping content (fail-closed)", "server", serverID)
		return "[REDACTED: data redaction failure — tool result could not be safely processed]"
	}
	return redacted
}

// RedactWithGroup applies one named pattern group to arbitrary data (e.g.
// user input before it is persisted). Fail-open: on failure the original
// data is returned, since user input is not a tool's secret surface.
func (s *Service) RedactWithGroup(data string, groupName string) string {
	if data == "" {
		return data
	}
	resolved := s.resolvePatternsFromGroup(groupName)
	if len(resolved.regexPatterns) == 0 {
		return data
	}
	redacted, ok := s.apply(data, resolved)
	if !ok {
		slog.Error("redaction failed, continuing with original data (fail-open)", "group", groupName)
		return data
	}
	return redacted
}

// apply runs every resolved pattern over content. A panicking regex
// replacement (pathological replacement strings) is caught and reported
// as failure so callers can apply their fail-open/fail-closed policy.
func (s *Service) apply(content string, resolved *resolvedPatterns) (result string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("redaction pattern application panicked", "panic", r)
			result, ok = "", false
		}
	}()

	redacted := content
	for _, pattern := range resolved.regexPatterns {
		redacted = pattern.Regex.ReplaceAllString(redacted, pattern.Replacement)
	}
	return redacted, true
}
