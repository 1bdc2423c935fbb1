package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		ClaudeConfigDirs: defaultClaudeDirs(),
		Analytics: AnalyticsConfig{
			Timezone:     "Local",
			ResetHour:    0,
			Plan:         "auto",
			CacheTTL:     3 * time.Second,
			PollInterval: 30 * time.Second,
		},
		Storage: StorageConfig{
			PositionDBPath: defaultPositionDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultClaudeDirs returns the default Claude Code data directories.
//
// Searches in order:
// 1. ~/.config/claude/projects/ (new default)
// 2. ~/.claude/projects/ (legacy)
//
// Returns all directories that exist on the filesystem.
func defaultClaudeDirs() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir not available
		return []string{"."}
	}

	candidates := []string{
		filepath.Join(homeDir, ".config", "claude", "projects"),
		filepath.Join(homeDir, ".claude", "projects"),
	}

	var dirs []string
	for _, dir := range candidates {
		if _, err := os.Stat(dir); err == nil {
			dirs = append(dirs, dir)
		}
	}

	// If neither exists, return the new default path so discovery has
	// somewhere to look once Claude Code creates it.
	if len(dirs) == 0 {
		return []string{filepath.Join(homeDir, ".config", "claude", "projects")}
	}

	return dirs
}

// defaultPositionDBPath returns the default read-position database path.
//
// Returns: ~/.config/usage-meter/positions.db.
func defaultPositionDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./positions.db"
	}

	return filepath.Join(homeDir, ".config", "usage-meter", "positions.db")
}

// defaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/usage-meter/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "usage-meter", "config.yaml")
}
