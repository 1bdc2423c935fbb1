// Package display provides output formatting for usage analytics
// snapshots.
//
// It supports multiple output formats (table, JSON, simple text) and a
// one-line menu-bar rendering.
package display

import (
	"io"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/engine"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays statistics in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays statistics as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays statistics in simple text format.
	FormatSimple Format = "simple"
)

// Formatter formats and displays usage statistics.
type Formatter interface {
	// FormatStats formats a full usage snapshot.
	//
	// Parameters:
	//   - w: Output writer
	//   - stats: Snapshot to format
	//
	// Returns error if formatting fails.
	FormatStats(w io.Writer, stats engine.UsageStats) error

	// FormatMenuBar formats the compact menu-bar projection as a single
	// line.
	//
	// Parameters:
	//   - w: Output writer
	//   - data: Menu-bar projection to format
	//
	// Returns error if formatting fails.
	FormatMenuBar(w io.Writer, data engine.MenuBarData) error

	// FormatDaily formats a daily usage history, oldest first.
	//
	// Parameters:
	//   - w: Output writer
	//   - days: Daily aggregates to format
	//
	// Returns error if formatting fails.
	FormatDaily(w io.Writer, days []blocks.DailyUsage) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowPrediction enables depletion prediction display.
	// Default: true (via DefaultConfig).
	ShowPrediction bool

	// ShowVelocity enables burn-rate and trend display.
	// Default: true (via DefaultConfig).
	ShowVelocity bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}
