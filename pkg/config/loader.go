package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/usage-meter/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly specified file must load; an auto-discovered
			// one may be absent.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches for a config file in standard locations.
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		defaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only when they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if len(override.ClaudeConfigDirs) > 0 {
		result.ClaudeConfigDirs = override.ClaudeConfigDirs
	}

	if override.Analytics.Timezone != "" {
		result.Analytics.Timezone = override.Analytics.Timezone
	}
	// ResetHour 0 (midnight) is a valid value and also the default, so
	// taking the override unconditionally is safe.
	result.Analytics.ResetHour = override.Analytics.ResetHour
	if override.Analytics.Plan != "" {
		result.Analytics.Plan = override.Analytics.Plan
	}
	if override.Analytics.CustomTokenLimit > 0 {
		result.Analytics.CustomTokenLimit = override.Analytics.CustomTokenLimit
	}
	if override.Analytics.CacheTTL > 0 {
		result.Analytics.CacheTTL = override.Analytics.CacheTTL
	}
	if override.Analytics.PollInterval > 0 {
		result.Analytics.PollInterval = override.Analytics.PollInterval
	}

	if override.Storage.PositionDBPath != "" {
		result.Storage.PositionDBPath = override.Storage.PositionDBPath
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - CLAUDE_CONFIG_DIR: Comma-separated list of Claude data directories
//   - USAGE_METER_TIMEZONE: IANA timezone name
//   - USAGE_METER_RESET_HOUR: Daily reset hour (0-23)
//   - USAGE_METER_PLAN: Plan selection
//   - USAGE_METER_DB: Position database path
//   - USAGE_METER_LOG_LEVEL: Log level
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if envDirs := os.Getenv("CLAUDE_CONFIG_DIR"); envDirs != "" {
		dirs := strings.Split(envDirs, ",")
		for i := range dirs {
			dirs[i] = strings.TrimSpace(dirs[i])
		}
		result.ClaudeConfigDirs = dirs
	}

	if tz := os.Getenv("USAGE_METER_TIMEZONE"); tz != "" {
		result.Analytics.Timezone = tz
	}

	if hour := os.Getenv("USAGE_METER_RESET_HOUR"); hour != "" {
		if h, err := strconv.Atoi(hour); err == nil {
			result.Analytics.ResetHour = h
		}
	}

	if planName := os.Getenv("USAGE_METER_PLAN"); planName != "" {
		result.Analytics.Plan = strings.ToLower(planName)
	}

	if dbPath := os.Getenv("USAGE_METER_DB"); dbPath != "" {
		result.Storage.PositionDBPath = dbPath
	}

	if logLevel := os.Getenv("USAGE_METER_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	return &result
}

// Load is a convenience function that creates a loader and loads
// configuration from the default locations.
func Load() (*Config, error) {
	return NewLoader("").Load()
}
