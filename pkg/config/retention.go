package config

import "time"

// RetentionConfig controls process-store retention and cleanup behavior.
type RetentionConfig struct {
	// ProcessRetentionDays is how many days to keep terminal process
	// records (and their event logs) before deletion.
	ProcessRetentionDays int `yaml:"process_retention_days"`

	// CleanupInterval is how often the cleanup loop runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		ProcessRetentionDays: 90,
		CleanupInterval:      12 * time.Hour,
	}
}
