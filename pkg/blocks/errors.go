package blocks

import "errors"

// Common errors returned by the blocks package.
var (
	// ErrNoDiscoverer is returned when a loader is built without a discoverer.
	ErrNoDiscoverer = errors.New("discoverer is required")

	// ErrNoReader is returned when a loader is built without a reader.
	ErrNoReader = errors.New("reader is required")
)
