// Package blocks provides the session-block domain model for usage
// analytics.
//
// Usage entries are grouped into fixed 5-hour session blocks (the billing
// window Claude Code applies), with synthetic gap blocks marking idle
// periods. The package also aggregates entries into per-day usage and
// implements the data-loading pipeline the analytics engine consumes.
package blocks

import (
	"time"
)

// SessionDuration is the fixed length of a session block.
const SessionDuration = 5 * time.Hour

// TokenCounts holds aggregated token counts per token kind.
type TokenCounts struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// Total returns the sum of all four token kinds.
func (tc TokenCounts) Total() int {
	return tc.InputTokens + tc.OutputTokens +
		tc.CacheCreationInputTokens + tc.CacheReadInputTokens
}

// SessionBlock represents one contiguous 5-hour usage window.
//
// Invariant: at most one block is active at any evaluation instant.
// Invariant: gap blocks carry zero token counts and an empty model set.
//
// Blocks are produced wholesale on each load; consumers never mutate
// them, only read and derive.
type SessionBlock struct {
	// ID is the RFC3339 representation of the block start time.
	ID string

	// StartTime is the block start, floored to the hour of the first entry.
	StartTime time.Time

	// EndTime is the nominal block end (StartTime + SessionDuration).
	EndTime time.Time

	// ActualEndTime is the timestamp of the last entry in the block.
	// Nil for gap blocks.
	ActualEndTime *time.Time

	// IsActive reports whether the block is still receiving entries.
	IsActive bool

	// IsGap marks a synthetic block covering an idle period.
	IsGap bool

	// TokenCounts aggregates the block's entries per token kind.
	TokenCounts TokenCounts

	// CostUSD is the total cost of the block's entries.
	CostUSD float64

	// Models lists the unique model identifiers used in the block.
	Models []string
}

// EffectiveEnd returns the instant the block stopped (or is still)
// consuming tokens: now for active blocks, the actual end when the block
// closed early, otherwise the nominal end.
func (b SessionBlock) EffectiveEnd(now time.Time) time.Time {
	if b.IsActive {
		return now
	}
	if b.ActualEndTime != nil {
		return *b.ActualEndTime
	}
	return b.EndTime
}

// ModelUsage holds per-model aggregate usage for one calendar day.
type ModelUsage struct {
	Tokens int
	Cost   float64
}

// DailyUsage holds aggregated totals for one calendar date.
type DailyUsage struct {
	// Date in YYYY-MM-DD form.
	Date string

	// TotalTokens across all models.
	TotalTokens int

	// TotalCost across all models.
	TotalCost float64

	// Models maps model name to its share of the day's usage.
	Models map[string]ModelUsage
}

// CostMode selects how entry cost is determined.
type CostMode string

const (
	// CostModeAuto prefers the recorded cost and falls back to
	// computing from the pricing table.
	CostModeAuto CostMode = "auto"

	// CostModeCalculate always computes cost from the pricing table.
	CostModeCalculate CostMode = "calculate"

	// CostModeDisplay only uses the recorded cost, treating entries
	// without one as free.
	CostModeDisplay CostMode = "display"
)
