// Package config provides configuration management for usage-meter.
//
// Configuration is loaded from multiple sources with the following
// precedence:
//  1. Environment variables (highest priority)
//  2. Configuration file
//  3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Timezone: %s\n", cfg.Analytics.Timezone)
package config

import (
	"time"

	"github.com/0xmhha/usage-meter/pkg/plan"
)

// Config represents the complete application configuration.
//
// Invariants:
// - ClaudeConfigDirs must have at least one directory
// - Analytics.Timezone must name a loadable IANA timezone
// - Analytics.ResetHour must be in [0, 23]
// - Analytics.Plan must be "auto" or a catalog tier name
// - Analytics.CacheTTL must be > 0
// - Analytics.PollInterval must be > 0.
type Config struct {
	// Claude data directories containing session JSONL logs
	ClaudeConfigDirs []string `yaml:"claude_config_dirs"`

	// Analytics settings
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// AnalyticsConfig contains analytics-engine settings.
type AnalyticsConfig struct {
	// IANA timezone used for reset-time calculations
	Timezone string `yaml:"timezone"`

	// Hour of day (0-23) at which the daily budget resets
	ResetHour int `yaml:"reset_hour"`

	// Plan selection: auto, pro, max5, max20, or custom
	Plan string `yaml:"plan"`

	// Token limit used when Plan is custom (0 means catalog default)
	CustomTokenLimit int `yaml:"custom_token_limit"`

	// How long a computed snapshot stays fresh
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// How often the watch command polls for a new snapshot
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB file holding read positions
	PositionDBPath string `yaml:"position_db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Output destination (stdout, stderr, or file path)
	Output string `yaml:"output"`

	// Output format (text, json)
	Format string `yaml:"format"`
}

// PlanSelection parses the configured plan string into a tagged
// selection. Validate must have accepted the configuration first.
func (c *Config) PlanSelection() plan.Selection {
	sel, err := plan.ParseSelection(c.Analytics.Plan)
	if err != nil {
		return plan.Auto()
	}
	return sel
}

// Validate checks the configuration against its invariants.
//
// Returns the first validation error encountered, or nil.
func (c *Config) Validate() error {
	if len(c.ClaudeConfigDirs) == 0 {
		return ErrNoClaudeDirs
	}

	if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
		return ErrInvalidTimezone
	}

	if c.Analytics.ResetHour < 0 || c.Analytics.ResetHour > 23 {
		return ErrInvalidResetHour
	}

	if _, err := plan.ParseSelection(c.Analytics.Plan); err != nil {
		return ErrInvalidPlan
	}

	if c.Analytics.CustomTokenLimit < 0 {
		return ErrInvalidCustomLimit
	}

	if c.Analytics.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	if c.Analytics.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}
