// Package window tracks rolling session-window summaries derived from
// the session-block history.
//
// The tracker is a supplementary view: it reports per-window token and
// cost totals plus active/completed counts, independent of the hourly
// burn-rate math.
package window

import (
	"sync"
	"time"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/logger"
)

// recentWindowLimit caps how many trailing windows the summary lists.
const recentWindowLimit = 12

// WindowSummary describes a single session window.
type WindowSummary struct {
	// StartTime is the window's start instant.
	StartTime time.Time

	// EndTime is the window's nominal end instant.
	EndTime time.Time

	// Tokens is the total token count attributed to the window.
	Tokens int

	// CostUSD is the total cost attributed to the window.
	CostUSD float64

	// IsActive reports whether the window is still receiving entries.
	IsActive bool
}

// Summary is the tracker's aggregate view over the known windows.
type Summary struct {
	// RecentWindows lists the trailing windows, oldest first.
	RecentWindows []WindowSummary

	// ActiveCount is the number of currently active windows.
	ActiveCount int

	// CompletedCount is the number of closed windows.
	CompletedCount int

	// TotalTokens sums tokens across all known windows.
	TotalTokens int

	// TotalCostUSD sums cost across all known windows.
	TotalCostUSD float64
}

// Tracker maintains rolling session-window summaries.
type Tracker interface {
	// Refresh replaces the tracked state from the full block list.
	Refresh(sessionBlocks []blocks.SessionBlock)

	// Summary returns the current aggregate view. Always safe to call;
	// yields an empty summary before the first refresh.
	Summary() Summary
}

// tracker implements the Tracker interface.
type tracker struct {
	mu      sync.RWMutex
	summary Summary
	logger  logger.Logger
}

// New creates a session-window tracker.
func New(log logger.Logger) Tracker {
	return &tracker{logger: log}
}

// Refresh implements Tracker.Refresh.
//
// Gap blocks are skipped: they mark idle spans, not usage windows.
func (t *tracker) Refresh(sessionBlocks []blocks.SessionBlock) {
	var next Summary

	for _, b := range sessionBlocks {
		if b.IsGap {
			continue
		}

		next.RecentWindows = append(next.RecentWindows, WindowSummary{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Tokens:    b.TokenCounts.Total(),
			CostUSD:   b.CostUSD,
			IsActive:  b.IsActive,
		})

		next.TotalTokens += b.TokenCounts.Total()
		next.TotalCostUSD += b.CostUSD
		if b.IsActive {
			next.ActiveCount++
		} else {
			next.CompletedCount++
		}
	}

	if len(next.RecentWindows) > recentWindowLimit {
		next.RecentWindows = next.RecentWindows[len(next.RecentWindows)-recentWindowLimit:]
	}

	t.mu.Lock()
	t.summary = next
	t.mu.Unlock()

	t.logger.Debug("session windows refreshed",
		"active", next.ActiveCount,
		"completed", next.CompletedCount)
}

// Summary implements Tracker.Summary.
func (t *tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.summary
	s.RecentWindows = append([]WindowSummary(nil), t.summary.RecentWindows...)

	return s
}
