package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xmhha/usage-meter/pkg/plan"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.ClaudeConfigDirs) == 0 {
		t.Error("Default() has no Claude config dirs")
	}
	if cfg.Analytics.CacheTTL != 3*time.Second {
		t.Errorf("Default() CacheTTL = %v, want 3s", cfg.Analytics.CacheTTL)
	}
	if cfg.Analytics.Plan != "auto" {
		t.Errorf("Default() Plan = %q, want %q", cfg.Analytics.Plan, "auto")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid default",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "no dirs",
			mutate:  func(c *Config) { c.ClaudeConfigDirs = nil },
			wantErr: ErrNoClaudeDirs,
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Analytics.Timezone = "Mars/Olympus" },
			wantErr: ErrInvalidTimezone,
		},
		{
			name:    "reset hour too large",
			mutate:  func(c *Config) { c.Analytics.ResetHour = 24 },
			wantErr: ErrInvalidResetHour,
		},
		{
			name:    "reset hour negative",
			mutate:  func(c *Config) { c.Analytics.ResetHour = -1 },
			wantErr: ErrInvalidResetHour,
		},
		{
			name:    "bad plan",
			mutate:  func(c *Config) { c.Analytics.Plan = "platinum" },
			wantErr: ErrInvalidPlan,
		},
		{
			name:    "negative custom limit",
			mutate:  func(c *Config) { c.Analytics.CustomTokenLimit = -5 },
			wantErr: ErrInvalidCustomLimit,
		},
		{
			name:    "zero cache TTL",
			mutate:  func(c *Config) { c.Analytics.CacheTTL = 0 },
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Analytics.PollInterval = 0 },
			wantErr: ErrInvalidPollInterval,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
claude_config_dirs:
  - /tmp/claude
analytics:
  timezone: America/New_York
  reset_hour: 9
  plan: max5
  cache_ttl: 5s
  poll_interval: 10s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	l := NewLoader(path)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Analytics.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q, want America/New_York", cfg.Analytics.Timezone)
	}
	if cfg.Analytics.ResetHour != 9 {
		t.Errorf("ResetHour = %d, want 9", cfg.Analytics.ResetHour)
	}
	if cfg.Analytics.Plan != "max5" {
		t.Errorf("Plan = %q, want max5", cfg.Analytics.Plan)
	}
	if cfg.Analytics.CacheTTL != 5*time.Second {
		t.Errorf("CacheTTL = %v, want 5s", cfg.Analytics.CacheTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Defaults survive where the file is silent.
	if cfg.Storage.PositionDBPath == "" {
		t.Error("Storage.PositionDBPath default was lost in merge")
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	l := NewLoader("/nonexistent/config.yaml")
	_, err := l.Load()
	if err == nil {
		t.Fatal("Load() expected error for explicitly missing config file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{not yaml"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	l := NewLoader(path)
	if _, err := l.Load(); !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("Load() error = %v, want ErrInvalidYAML", err)
	}
}

func TestApplyEnvVars(t *testing.T) {
	t.Setenv("USAGE_METER_TIMEZONE", "Europe/Berlin")
	t.Setenv("USAGE_METER_RESET_HOUR", "6")
	t.Setenv("USAGE_METER_PLAN", "MAX20")
	t.Setenv("USAGE_METER_LOG_LEVEL", "DEBUG")

	l := &loader{}
	cfg := l.applyEnvVars(Default())

	if cfg.Analytics.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", cfg.Analytics.Timezone)
	}
	if cfg.Analytics.ResetHour != 6 {
		t.Errorf("ResetHour = %d, want 6", cfg.Analytics.ResetHour)
	}
	if cfg.Analytics.Plan != "max20" {
		t.Errorf("Plan = %q, want max20", cfg.Analytics.Plan)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestPlanSelection(t *testing.T) {
	cfg := Default()

	if !cfg.PlanSelection().IsAuto() {
		t.Error("default plan selection should be auto")
	}

	cfg.Analytics.Plan = "pro"
	sel := cfg.PlanSelection()
	if sel.IsAuto() || sel.Tier() != plan.Pro {
		t.Errorf("PlanSelection() = %v, want fixed pro", sel)
	}
}
