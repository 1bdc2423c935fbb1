// Package reader provides incremental usage-log reading with position
// tracking.
//
// It reads session JSONL files from the last known byte offset and
// persists offsets so repeated polls only parse appended data, surviving
// application restarts.
//
// Example usage:
//
//	r, err := reader.New(reader.Config{
//	    PositionStore: store,
//	    Parser:        parser.New(log),
//	}, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	entries, err := r.Read(ctx, "/path/to/session.jsonl")
package reader

import (
	"context"
	"time"

	"github.com/0xmhha/usage-meter/pkg/parser"
)

// PositionStore provides persistence for file read positions.
type PositionStore interface {
	// GetPosition retrieves the last read position for a file.
	//
	// Returns 0 if no position is stored (start from the beginning).
	GetPosition(path string) (int64, error)

	// SetPosition stores the read position for a file.
	SetPosition(path string, offset int64) error
}

// Reader provides incremental file reading.
type Reader interface {
	// Read reads new entries from a file since the last read position
	// and updates the stored position on success.
	Read(ctx context.Context, path string) ([]parser.UsageEntry, error)

	// ReadFrom reads entries from a specific offset without touching
	// the stored position. Returns the entries and the new offset.
	ReadFrom(ctx context.Context, path string, offset int64) ([]parser.UsageEntry, int64, error)

	// Reset resets the stored read position for a file to the beginning.
	Reset(path string) error

	// Close closes the reader and releases resources.
	Close() error
}

// Config contains reader configuration.
type Config struct {
	// PositionStore persists file read positions.
	PositionStore PositionStore

	// Parser parses JSONL entries.
	Parser parser.Parser

	// MaxRetries is the maximum number of retry attempts for transient
	// errors. Default: 3.
	MaxRetries int

	// RetryDelay is the base delay between retry attempts, doubled on
	// each attempt. Default: 100ms.
	RetryDelay time.Duration

	// MaxFileSize is the maximum file size to read (safety limit).
	// Default: 100MB.
	MaxFileSize int64
}
