package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/0xmhha/usage-meter/pkg/logger"
)

const (
	// MaxFileSize is the maximum allowed JSONL file size (100MB).
	// Larger files are rejected to prevent memory exhaustion.
	MaxFileSize = 100 * 1024 * 1024

	// MaxLineLength is the maximum allowed line length (1MB).
	MaxLineLength = 1024 * 1024
)

// Parser provides methods for parsing Claude Code JSONL files.
type Parser interface {
	// ParseFile reads a JSONL file from the given byte offset and
	// returns the parsed entries along with the new file offset.
	//
	// Parameters:
	//   - path: Path to the JSONL file
	//   - offset: Byte offset to start reading from (0 for beginning)
	//
	// Returns:
	//   - Slice of successfully parsed entries
	//   - New offset position after reading
	//   - Error if the file cannot be read or is too large
	//
	// Malformed lines are logged and skipped rather than causing failure.
	//
	// Thread-safety: safe to call concurrently with different files.
	ParseFile(path string, offset int64) ([]UsageEntry, int64, error)

	// ParseLine parses a single JSONL line into a UsageEntry.
	//
	// Returns an error if the line is not valid JSON or fails
	// entry validation.
	ParseLine(line string) (*UsageEntry, error)
}

// jsonlParser implements the Parser interface.
type jsonlParser struct {
	logger logger.Logger
}

// New creates a new Parser instance.
func New(log logger.Logger) Parser {
	return &jsonlParser{logger: log}
}

// ParseFile implements Parser.ParseFile.
func (p *jsonlParser) ParseFile(path string, offset int64) ([]UsageEntry, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return nil, 0, fmt.Errorf("%w: size=%d, max=%d",
			ErrFileTooLarge, info.Size(), MaxFileSize)
	}

	// #nosec G304: path comes from discovery of trusted data dirs
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			p.logger.Warn("failed to close session file",
				"path", path, "error", closeErr)
		}
	}()

	// Seek to offset for incremental reading.
	if offset > 0 {
		if _, seekErr := f.Seek(offset, io.SeekStart); seekErr != nil {
			return nil, 0, fmt.Errorf("failed to seek to offset %d: %w", offset, seekErr)
		}
	}

	entries := make([]UsageEntry, 0, 100)
	scanner := bufio.NewScanner(f)

	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, MaxLineLength)

	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		entry, parseErr := p.ParseLine(line)
		if parseErr != nil {
			p.logger.Debug("skipping malformed line",
				"path", path, "line", lineNum, "error", parseErr)
			continue
		}

		entries = append(entries, *entry)
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return entries, 0, fmt.Errorf("scanner error at line %d: %w", lineNum, scanErr)
	}

	newOffset, seekErr := f.Seek(0, io.SeekCurrent)
	if seekErr != nil {
		// If we can't get the position, fall back to the file size.
		newOffset = info.Size()
	}

	return entries, newOffset, nil
}

// ParseLine implements Parser.ParseLine.
func (p *jsonlParser) ParseLine(line string) (*UsageEntry, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformedJSON)
	}

	var entry UsageEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &entry, nil
}
