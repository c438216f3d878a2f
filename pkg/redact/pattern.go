package redact

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/codeready-toolchain/agentcore/pkg/config"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// resolvedPatterns is the concrete pattern set for one redaction
// operation after group expansion and dedup.
type resolvedPatterns struct {
	regexPatterns []*CompiledPattern
}

// compileNamedPatterns compiles the named (built-in + user) patterns.
// Invalid patterns are logged and skipped — validation normally catches
// them before we get here.
func (s *Service) compileNamedPatterns(patterns map[string]config.RedactionPattern) {
	for name, pattern := range patterns {
		compiled, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			slog.Error("failed to compile redaction pattern, skipping",
				"pattern", name, "error", err)
			continue
		}
		s.patterns[name] = &CompiledPattern{
			Name:        name,
			Regex:       compiled,
			Replacement: pattern.Replacement,
			Description: pattern.Description,
		}
	}
}

// compileCustomPatterns compiles custom patterns from all MCP server
// configs. Custom patterns are keyed as "custom:{serverID}:{index}" to
// avoid collisions.
func (s *Service) compileCustomPatterns() {
	if s.registry == nil {
		return
	}
	for serverID, serverCfg := range s.registry.GetAll() {
		if serverCfg.DataRedaction == nil || !serverCfg.DataRedaction.Enabled {
			continue
		}
		for i, pattern := range serverCfg.DataRedaction.CustomPatterns {
			name := fmt.Sprintf("custom:%s:%d", serverID, i)
			compiled, err := regexp.Compile(pattern.Pattern)
			if err != nil {
				slog.Error("failed to compile custom redaction pattern, skipping",
					"pattern", name, "server", serverID, "error", err)
				continue
			}
			s.patterns[name] = &CompiledPattern{
				Name:        name,
				Regex:       compiled,
				Replacement: pattern.Replacement,
				Description: pattern.Description,
			}
			s.serverCustomPatterns[serverID] = append(s.serverCustomPatterns[serverID], name)
		}
	}
}

// resolvePatterns expands a RedactionConfig into a deduplicated
// resolvedPatterns set.
func (s *Service) resolvePatterns(cfg *config.RedactionConfig, serverID string) *resolvedPatterns {
	seen := make(map[string]bool)
	resolved := &resolvedPatterns{}

	// 1. Expand pattern_groups → individual pattern names
	for _, groupName := range cfg.PatternGroups {
		for _, name := range s.patternGroups[groupName] {
			s.addToResolved(resolved, name, seen)
		}
	}

	// 2. Add individual patterns from cfg.Patterns
	for _, name := range cfg.Patterns {
		s.addToResolved(resolved, name, seen)
	}

	// 3. Add custom patterns for this server
	if serverID != "" {
		for _, name := range s.serverCustomPatterns[serverID] {
			s.addToResolved(resolved, name, seen)
		}
	}

	return resolved
}

// resolvePatternsFromGroup resolves a single pattern group name.
func (s *Service) resolvePatternsFromGroup(groupName string) *resolvedPatterns {
	seen := make(map[string]bool)
	resolved := &resolvedPatterns{}
	for _, name := range s.patternGroups[groupName] {
		s.addToResolved(resolved, name, seen)
	}
	return resolved
}

func (s *Service) addToResolved(resolved *resolvedPatterns, name string, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	if cp, ok := s.patterns[name]; ok {
		resolved.regexPatterns = append(resolved.regexPatterns, cp)
	}
}
