package watcher

import "errors"

var (
	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("watcher already started")

	// ErrNotStarted is returned when Stop is called before Start.
	ErrNotStarted = errors.New("watcher not started")

	// ErrNoWatchableDirs is returned when none of the configured
	// directories exist.
	ErrNoWatchableDirs = errors.New("no watchable directories")
)
