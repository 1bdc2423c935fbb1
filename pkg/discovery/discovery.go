// Package discovery locates Claude Code session files on disk.
//
// It scans the configured data directories for session JSONL files and
// maps them to their project directories, following Claude Code's
// basedir/project-hash/session-uuid.jsonl layout.
//
// Example usage:
//
//	d := discovery.New([]string{"~/.config/claude/projects"}, logger.Default())
//	sessions, err := d.Discover()
//	if err != nil {
//	    log.Fatal(err)
//	}
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xmhha/usage-meter/pkg/logger"
)

// SessionFile represents a discovered session JSONL file.
type SessionFile struct {
	// SessionID is the UUID extracted from the filename.
	SessionID string

	// FilePath is the absolute path to the JSONL file.
	FilePath string

	// ProjectPath is the project directory containing the session file.
	ProjectPath string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the last modification time as a Unix timestamp.
	ModTime int64
}

// Discoverer provides methods for discovering Claude Code session files.
type Discoverer interface {
	// Discover scans the configured directories and returns all session
	// files found. Files not matching the UUID.jsonl pattern are skipped.
	Discover() ([]SessionFile, error)

	// DiscoverProject returns session files for a specific project
	// directory.
	DiscoverProject(projectPath string) ([]SessionFile, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	baseDirs []string
	logger   logger.Logger
}

// New creates a new Discoverer instance.
//
// Parameters:
//   - baseDirs: Base directories to scan (e.g., ~/.config/claude/projects)
//   - log: Logger instance for diagnostic messages
func New(baseDirs []string, log logger.Logger) Discoverer {
	return &discoverer{
		baseDirs: baseDirs,
		logger:   log,
	}
}

// Discover implements Discoverer.Discover.
func (d *discoverer) Discover() ([]SessionFile, error) {
	var allSessions []SessionFile

	for _, baseDir := range d.baseDirs {
		expandedDir := expandHome(baseDir)

		if _, err := os.Stat(expandedDir); err != nil {
			if os.IsNotExist(err) {
				d.logger.Debug("directory not found, skipping", "path", expandedDir)
				continue
			}
			return nil, fmt.Errorf("failed to stat directory %s: %w", expandedDir, err)
		}

		sessions, err := d.scanBaseDirectory(expandedDir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", expandedDir, err)
		}

		allSessions = append(allSessions, sessions...)
	}

	d.logger.Debug("discovery complete", "total_sessions", len(allSessions))
	return allSessions, nil
}

// DiscoverProject implements Discoverer.DiscoverProject.
func (d *discoverer) DiscoverProject(projectPath string) ([]SessionFile, error) {
	expandedPath := expandHome(projectPath)

	if _, err := os.Stat(expandedPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, expandedPath)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", expandedPath, err)
	}

	return d.scanProjectDirectory(expandedPath)
}

// scanBaseDirectory scans a base directory for project subdirectories.
func (d *discoverer) scanBaseDirectory(baseDir string) ([]SessionFile, error) {
	var sessions []SessionFile

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		projectPath := filepath.Join(baseDir, entry.Name())
		projectSessions, err := d.scanProjectDirectory(projectPath)
		if err != nil {
			d.logger.Warn("failed to scan project directory",
				"path", projectPath,
				"error", err)
			continue
		}

		sessions = append(sessions, projectSessions...)
	}

	return sessions, nil
}

// scanProjectDirectory scans a project directory for session JSONL files.
func (d *discoverer) scanProjectDirectory(projectDir string) ([]SessionFile, error) {
	sessions := make([]SessionFile, 0, 10)

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}

		sessionID := strings.TrimSuffix(entry.Name(), ".jsonl")

		if !isValidSessionID(sessionID) {
			d.logger.Debug("skipping non-session file",
				"file", entry.Name())
			continue
		}

		filePath := filepath.Join(projectDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			d.logger.Warn("failed to get file info",
				"path", filePath,
				"error", err)
			continue
		}

		sessions = append(sessions, SessionFile{
			SessionID:   sessionID,
			FilePath:    filePath,
			ProjectPath: projectDir,
			Size:        info.Size(),
			ModTime:     info.ModTime().Unix(),
		})
	}

	return sessions, nil
}

// isValidSessionID performs a basic UUID format check
// (8-4-4-4-12 hex digits with dashes).
func isValidSessionID(id string) bool {
	if len(id) != 36 {
		return false
	}

	if id[8] != '-' || id[13] != '-' || id[18] != '-' || id[23] != '-' {
		return false
	}

	for i, c := range id {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			continue
		}
		if !isHexDigit(c) {
			return false
		}
	}

	return true
}

// isHexDigit checks if a rune is a hexadecimal digit.
func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'f') ||
		(r >= 'A' && r <= 'F')
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
