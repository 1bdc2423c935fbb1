package reader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/parser"
)

// reader implements the Reader interface.
type reader struct {
	store  PositionStore
	parser parser.Parser
	logger logger.Logger
	config Config

	mu     sync.RWMutex
	closed bool
}

// New creates a new incremental file reader.
//
// Returns an error if the configuration is missing a position store or
// parser.
func New(cfg Config, log logger.Logger) (Reader, error) {
	if cfg.PositionStore == nil {
		return nil, errors.New("position store is required")
	}

	if cfg.Parser == nil {
		return nil, errors.New("parser is required")
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.MaxFileSize == 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}

	log.Debug("incremental reader created",
		"max_retries", cfg.MaxRetries,
		"retry_delay", cfg.RetryDelay)

	return &reader{
		store:  cfg.PositionStore,
		parser: cfg.Parser,
		logger: log,
		config: cfg,
	}, nil
}

// Read implements Reader.Read.
func (r *reader) Read(ctx context.Context, path string) ([]parser.UsageEntry, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, ErrReaderClosed
	}
	r.mu.RUnlock()

	offset, err := r.store.GetPosition(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	entries, newOffset, err := r.readWithRetry(ctx, path, offset)
	if err != nil {
		return nil, err
	}

	if err := r.store.SetPosition(path, newOffset); err != nil {
		// Don't fail the read over a bookkeeping error.
		r.logger.Error("failed to update position",
			"path", path,
			"offset", newOffset,
			"error", err)
	}

	r.logger.Debug("read complete",
		"path", path,
		"entries", len(entries),
		"new_offset", newOffset)

	return entries, nil
}

// ReadFrom implements Reader.ReadFrom.
func (r *reader) ReadFrom(ctx context.Context, path string, offset int64) ([]parser.UsageEntry, int64, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, 0, ErrReaderClosed
	}
	r.mu.RUnlock()

	if offset < 0 {
		return nil, 0, ErrInvalidOffset
	}

	return r.readWithRetry(ctx, path, offset)
}

// Reset implements Reader.Reset.
func (r *reader) Reset(path string) error {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return ErrReaderClosed
	}
	r.mu.RUnlock()

	if err := r.store.SetPosition(path, 0); err != nil {
		return fmt.Errorf("failed to reset position: %w", err)
	}

	return nil
}

// Close implements Reader.Close.
func (r *reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	return nil
}

// readWithRetry reads a file, retrying transient failures with
// exponential backoff.
func (r *reader) readWithRetry(ctx context.Context, path string, offset int64) ([]parser.UsageEntry, int64, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffMultiplier := 1 << (attempt - 1) // nolint:gosec // bounded by MaxRetries
			delay := r.config.RetryDelay * time.Duration(backoffMultiplier)

			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		entries, newOffset, err := r.readFile(ctx, path, offset)
		if err == nil {
			return entries, newOffset, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, 0, err
		}

		r.logger.Warn("read attempt failed",
			"path", path,
			"attempt", attempt,
			"error", err)
	}

	return nil, 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// readFile reads a file from the specified offset.
func (r *reader) readFile(ctx context.Context, path string, offset int64) ([]parser.UsageEntry, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrFileNotFound
		}
		if os.IsPermission(err) {
			return nil, 0, ErrPermissionDenied
		}
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	fileSize := info.Size()
	if fileSize > r.config.MaxFileSize {
		return nil, 0, ErrFileTooLarge
	}

	// A shrunken file means truncation or rotation; start over.
	if offset > fileSize {
		r.logger.Warn("file was truncated, resetting offset",
			"path", path,
			"old_offset", offset,
			"file_size", fileSize)
		offset = 0
	}

	// No new data.
	if offset == fileSize {
		return []parser.UsageEntry{}, offset, nil
	}

	entries, newOffset, err := r.parser.ParseFile(path, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse file: %w", err)
	}

	return entries, newOffset, nil
}

// isRetryable reports whether an error is worth retrying.
func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrFileNotFound):
		return true // File might be created shortly.
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrInvalidOffset),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
