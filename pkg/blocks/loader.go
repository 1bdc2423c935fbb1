package blocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/usage-meter/pkg/discovery"
	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/parser"
	"github.com/0xmhha/usage-meter/pkg/reader"
)

// LoaderConfig contains loader configuration.
type LoaderConfig struct {
	// Discoverer locates session JSONL files.
	Discoverer discovery.Discoverer

	// Reader reads entries incrementally from session files.
	Reader reader.Reader

	// CostMode selects how entry cost is determined. Default: auto.
	CostMode CostMode

	// Location keys daily aggregates by calendar day. Default: the
	// process-local zone. Must match the consumer's "today" zone or
	// near-midnight usage lands in the wrong bucket.
	Location *time.Location

	// Now supplies the evaluation instant. Default: time.Now.
	Now func() time.Time
}

// Loader assembles session blocks and daily aggregates from Claude Code
// usage logs.
//
// The loader keeps previously read entries in memory so each poll only
// parses data appended since the last read; a fresh load still replaces
// the derived block set wholesale.
type Loader struct {
	discoverer discovery.Discoverer
	reader     reader.Reader
	logger     logger.Logger
	costMode   CostMode
	location   *time.Location
	now        func() time.Time

	mu      sync.Mutex
	entries map[string][]parser.UsageEntry // file path -> accumulated entries
}

// NewLoader creates a new usage-log loader.
//
// Returns an error if the configuration is missing a discoverer or
// reader.
func NewLoader(cfg LoaderConfig, log logger.Logger) (*Loader, error) {
	if cfg.Discoverer == nil {
		return nil, ErrNoDiscoverer
	}
	if cfg.Reader == nil {
		return nil, ErrNoReader
	}
	if cfg.CostMode == "" {
		cfg.CostMode = CostModeAuto
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Loader{
		discoverer: cfg.Discoverer,
		reader:     cfg.Reader,
		logger:     log,
		costMode:   cfg.CostMode,
		location:   cfg.Location,
		now:        cfg.Now,
		entries:    make(map[string][]parser.UsageEntry),
	}, nil
}

// LoadSessionBlocks discovers and reads all session logs and groups
// their entries into blocks of windowHours hours.
//
// Returns blocks in chronological order; an empty slice when no usage
// has been recorded.
func (l *Loader) LoadSessionBlocks(ctx context.Context, windowHours int) ([]SessionBlock, error) {
	entries, err := l.refresh(ctx)
	if err != nil {
		return nil, err
	}

	window := time.Duration(windowHours) * time.Hour
	if windowHours <= 0 {
		window = SessionDuration
	}

	result := Build(entries, window, l.costMode, l.now())
	l.logger.Debug("session blocks loaded",
		"entries", len(entries),
		"blocks", len(result))

	return result, nil
}

// LoadDailyAggregates discovers and reads all session logs and folds
// their entries into per-day aggregates.
func (l *Loader) LoadDailyAggregates(ctx context.Context) ([]DailyUsage, error) {
	entries, err := l.refresh(ctx)
	if err != nil {
		return nil, err
	}

	return AggregateDaily(entries, l.costMode, l.location), nil
}

// refresh re-discovers session files, reads any appended entries, and
// returns the full accumulated entry set.
func (l *Loader) refresh(ctx context.Context) ([]parser.UsageEntry, error) {
	files, err := l.discoverer.Discover()
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range files {
		newEntries, readErr := l.reader.Read(ctx, f.FilePath)
		if readErr != nil {
			// One unreadable file must not sink the whole load.
			l.logger.Warn("failed to read session file",
				"path", f.FilePath,
				"error", readErr)
			continue
		}

		if len(newEntries) > 0 {
			l.entries[f.FilePath] = append(l.entries[f.FilePath], newEntries...)
		}
	}

	var all []parser.UsageEntry
	for _, fileEntries := range l.entries {
		all = append(all, fileEntries...)
	}

	return all, nil
}
