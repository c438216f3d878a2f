package config

import (
	"sync"
)

// BuiltinConfig holds all built-in configuration data: default defaults,
// redaction patterns, and pattern groups. User YAML merges over these.
type BuiltinConfig struct {
	RedactionPatterns map[string]RedactionPattern
	PatternGroups     map[string][]string
	Defaults          Defaults
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized)
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		RedactionPatterns: initBuiltinRedactionPatterns(),
		PatternGroups:     initBuiltinPatternGroups(),
		Defaults: Defaults{
			GoalConfidenceCutOff:  0.6,
			AgentConfidenceCutOff: 0.6,
			Budget: BudgetConfig{
				MaxActions: 50,
			},
			WorkerCount: 4,
		},
	}
}

func initBuiltinRedactionPatterns() map[string]RedactionPattern {
	return map[string]RedactionPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[REDACTED_API_KEY]"`,
			Description: "API keys",
		},
		"password": {
			Pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			Replacement: `"password": "[REDACTED_PASSWORD]"`,
			Description: "Passwords",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[REDACTED_CERTIFICATE]`,
			Description: "SSL/TLS certificates",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[REDACTED_TOKEN]"`,
			Description: "Access tokens",
		},
		"email": {
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			Replacement: `[REDACTED_EMAIL]`,
			Description: "Email addresses",
		},
		"ssh_key": {
			Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			Replacement: `[REDACTED_SSH_KEY]`,
			Description: "SSH public keys",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[REDACTED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"secret_key": {
			Pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"secret_key": "[REDACTED_SECRET_KEY]"`,
			Description: "Secret keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[REDACTED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"aws_secret_key": {
			Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			Replacement: `"aws_secret_access_key": "[REDACTED_AWS_SECRET]"`,
			Description: "AWS secret keys",
		},
		"github_token": {
			Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			Replacement: `[REDACTED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
		"slack_token": {
			Pattern:     `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`,
			Replacement: `[REDACTED_SLACK_TOKEN]`,
			Description: "Slack tokens",
		},
	}
}

// initBuiltinPatternGroups returns predefined groups of redaction
// patterns that tool-group configs can reference by name.
func initBuiltinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":    {"api_key", "password"},
		"secrets":  {"api_key", "password", "token", "private_key", "secret_key"},
		"security": {"api_key", "password", "token", "certificate", "email", "ssh_key"},
		"cloud":    {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"all": {
			"api_key", "password", "certificate", "email", "token", "ssh_key",
			"private_key", "secret_key", "aws_access_key", "aws_secret_key",
			"github_token", "slack_token",
		},
	}
}
