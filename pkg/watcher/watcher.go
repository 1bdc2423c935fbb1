// Package watcher provides real-time monitoring of session log
// directories.
//
// It uses fsnotify and debounces rapid write bursts so downstream
// consumers (cache invalidation, the watch command) see one
// notification per settled change.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, cfg.ClaudeConfigDirs); err != nil {
//	    return err
//	}
//
//	for event := range w.Events() {
//	    fmt.Printf("%s: %s\n", event.Op, event.Path)
//	}
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/usage-meter/pkg/logger"
)

// Op describes what happened to a session file.
type Op string

const (
	// OpCreate marks a new session file.
	OpCreate Op = "create"

	// OpWrite marks appended or rewritten content.
	OpWrite Op = "write"

	// OpRemove marks a deleted or renamed-away session file.
	OpRemove Op = "remove"
)

// Event is a debounced session-file change notification.
type Event struct {
	// Path is the file that changed.
	Path string

	// Op is the kind of change.
	Op Op

	// Timestamp is when the last raw event in the burst arrived.
	Timestamp time.Time
}

// Watcher monitors session log directories.
type Watcher interface {
	// Start begins watching the given directories and their
	// subdirectories. Directories that do not exist are skipped; at
	// least one must exist. Start does not block.
	Start(ctx context.Context, dirs []string) error

	// Stop halts event delivery without releasing the underlying
	// watcher.
	Stop() error

	// Events returns the debounced event channel. Closed by Close.
	Events() <-chan Event

	// Errors returns the channel for non-fatal watch errors. Closed by
	// Close.
	Errors() <-chan error

	// Close releases all resources. Safe to call more than once.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval coalesces raw events per file.
	// Default: 100ms.
	DebounceInterval time.Duration

	// QueueSize is the event channel capacity.
	// Default: 64.
	QueueSize int
}

// watcher implements the Watcher interface on top of fsnotify.
type watcher struct {
	fsw      *fsnotify.Watcher
	logger   logger.Logger
	debounce time.Duration

	events chan Event
	errors chan error

	mu       sync.Mutex
	running  bool
	closed   bool
	stopChan chan struct{}

	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

// New creates a session-log watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:      fsw,
		logger:   log,
		debounce: cfg.DebounceInterval,
		events:   make(chan Event, cfg.QueueSize),
		errors:   make(chan error, 8),
		stopChan: make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, dirs []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	// Stop closes stopChan; a restart needs a fresh one or run would
	// exit immediately.
	w.stopChan = make(chan struct{})
	stopChan := w.stopChan
	w.mu.Unlock()

	watched := 0
	for _, dir := range dirs {
		expanded := expandHome(dir)
		if _, err := os.Stat(expanded); err != nil {
			w.logger.Warn("watch directory unavailable, skipping",
				"dir", expanded,
				"error", err)
			continue
		}

		if err := w.watchTree(expanded); err != nil {
			return fmt.Errorf("failed to watch %s: %w", expanded, err)
		}
		watched++
	}

	if watched == 0 {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return ErrNoWatchableDirs
	}

	w.logger.Info("watching session directories", "count", watched)

	go w.run(ctx, stopChan)

	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false

	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.timersMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = nil
	w.timersMu.Unlock()

	close(w.events)
	close(w.errors)

	return w.fsw.Close()
}

// run pumps raw fsnotify events until stopped.
func (w *watcher) run(ctx context.Context, stopChan <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return

		case raw, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(raw)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

// reportError forwards a non-fatal watch error. Held under w.mu for the
// same reason as event delivery.
func (w *watcher) reportError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping watch error", "error", err)
	}
}

// handle classifies one raw event and schedules its debounced delivery.
func (w *watcher) handle(raw fsnotify.Event) {
	// New project directories appear while watching; pick them up so
	// their session files are seen too.
	if raw.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(raw.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					"dir", raw.Name,
					"error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(raw.Name, ".jsonl") {
		return
	}

	var op Op
	switch {
	case raw.Op.Has(fsnotify.Create):
		op = OpCreate
	case raw.Op.Has(fsnotify.Write):
		op = OpWrite
	case raw.Op.Has(fsnotify.Remove), raw.Op.Has(fsnotify.Rename):
		op = OpRemove
	default:
		return
	}

	w.schedule(Event{Path: raw.Name, Op: op, Timestamp: time.Now()})
}

// schedule delivers the event after the debounce interval, replacing
// any pending delivery for the same path.
func (w *watcher) schedule(event Event) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if w.timers == nil {
		return
	}
	if timer, ok := w.timers[event.Path]; ok {
		timer.Stop()
	}

	w.timers[event.Path] = time.AfterFunc(w.debounce, func() {
		w.timersMu.Lock()
		if w.timers != nil {
			delete(w.timers, event.Path)
		}
		w.timersMu.Unlock()

		// The send must happen under w.mu: Close closes the channel
		// under the same lock, so a fired timer cannot slip a send in
		// between the closed check and the close.
		w.mu.Lock()
		defer w.mu.Unlock()

		if w.closed || !w.running {
			return
		}

		select {
		case w.events <- event:
		default:
			w.logger.Warn("event channel full, dropping event", "path", event.Path)
		}
	})
}

// watchTree registers a directory and every subdirectory beneath it.
func (w *watcher) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Warn("error walking watch tree", "path", path, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("failed to watch directory", "dir", path, "error", addErr)
		}
		return nil
	})
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}

	return filepath.Join(home, path[2:])
}
