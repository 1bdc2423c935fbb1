package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/0xmhha/usage-meter/pkg/logger"
)

func newTestWatcher(t *testing.T) Watcher {
	t.Helper()

	w, err := New(Config{DebounceInterval: 20 * time.Millisecond}, logger.Noop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	return w
}

func waitForEvent(t *testing.T, w Watcher) Event {
	t.Helper()

	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	return Event{}
}

func TestStart_NoWatchableDirs(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t)

	err := w.Start(context.Background(), []string{"/nonexistent/path/one", "/nonexistent/path/two"})
	if err != ErrNoWatchableDirs {
		t.Errorf("Start() error = %v, want %v", err, ErrNoWatchableDirs)
	}
}

func TestLifecycleErrors(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t)
	dir := t.TempDir()

	if err := w.Stop(); err != ErrNotStarted {
		t.Errorf("Stop() before Start error = %v, want %v", err, ErrNotStarted)
	}

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := w.Start(context.Background(), []string{dir}); err != ErrAlreadyStarted {
		t.Errorf("second Start() error = %v, want %v", err, ErrAlreadyStarted)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	w, err := New(Config{}, logger.Noop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}

	if err := w.Start(context.Background(), []string{"/tmp"}); err != ErrWatcherClosed {
		t.Errorf("Start() after Close error = %v, want %v", err, ErrWatcherClosed)
	}
}

func TestWatch_SessionFileWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	event := waitForEvent(t, w)
	if event.Path != path {
		t.Errorf("event path = %q, want %q", event.Path, path)
	}
	if event.Op != OpCreate && event.Op != OpWrite {
		t.Errorf("event op = %q, want create or write", event.Op)
	}
}

func TestWatch_IgnoresNonSessionFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for non-session file: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	path := filepath.Join(dir, "burst.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := f.WriteString("{}\n"); err != nil {
			t.Fatalf("WriteString() failed: %v", err)
		}
		_ = f.Sync()
	}
	_ = f.Close()

	waitForEvent(t, w)

	// The burst settles into at most one trailing event, not ten.
	extra := 0
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case <-w.Events():
			extra++
		case <-deadline:
			if extra > 1 {
				t.Errorf("got %d extra events after burst, want at most 1", extra)
			}
			return
		}
	}
}

func TestClose_DuringPendingDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	w, err := New(Config{DebounceInterval: 30 * time.Millisecond}, logger.Noop())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Queue a debounced delivery, then close before it fires. The fired
	// timer must observe the closed watcher instead of sending on the
	// closed channel.
	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := <-w.Events(); ok {
		t.Error("got event after Close, want closed channel")
	}
}

func TestRestart_AfterStop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("restart failed: %v", err)
	}

	path := filepath.Join(dir, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	event := waitForEvent(t, w)
	if event.Path != path {
		t.Errorf("event path after restart = %q, want %q", event.Path, path)
	}
}

func TestWatch_NewSubdirectoryPickedUp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t)

	if err := w.Start(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	sub := filepath.Join(dir, "project")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}

	// Give the watcher a moment to register the new directory.
	time.Sleep(150 * time.Millisecond)

	path := filepath.Join(sub, "session.jsonl")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	event := waitForEvent(t, w)
	if event.Path != path {
		t.Errorf("event path = %q, want %q", event.Path, path)
	}
}
