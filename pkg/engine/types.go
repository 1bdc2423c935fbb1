package engine

import (
	"time"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/plan"
	"github.com/0xmhha/usage-meter/pkg/window"
)

// Trend classifies the direction of token consumption relative to the
// trailing 24-hour average.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Status classifies how close usage is to the token limit.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Health distinguishes how a snapshot was produced, so consumers can
// tell "healthy but idle" apart from "loader failed".
type Health string

const (
	// HealthOK marks a snapshot computed from live session data.
	HealthOK Health = "healthy"

	// HealthNoSession marks a default snapshot produced because no
	// session block is currently active.
	HealthNoSession Health = "no-session"

	// HealthDegraded marks a default snapshot produced because the
	// data loader failed.
	HealthDegraded Health = "loader-failed"
)

// noSessionMessage is the reset message shown when no session is active.
const noSessionMessage = "No active session"

// VelocityInfo describes the rate of token consumption.
type VelocityInfo struct {
	// CurrentRate is the burn rate in tokens per hour, derived from the
	// trailing 60 minutes.
	CurrentRate float64

	// Average24h is the hourly average over the trailing 24 hours.
	Average24h float64

	// Average7d is the hourly average over the trailing 7 days.
	Average7d float64

	// Trend classifies CurrentRate against Average24h.
	Trend Trend

	// TrendPercent is the signed percentage difference between
	// CurrentRate and Average24h.
	TrendPercent float64

	// IsAccelerating is set when the trend is increasing by more
	// than 20 percent.
	IsAccelerating bool
}

// PredictionInfo projects when the token limit will be exhausted.
type PredictionInfo struct {
	// DepletionTime is the projected exhaustion instant; nil when the
	// current burn rate is zero.
	DepletionTime *time.Time

	// Confidence is the prediction confidence score in [0, 95].
	Confidence int

	// DaysRemaining estimates days until depletion; zero when unknown.
	DaysRemaining float64

	// RecommendedDailyLimit is the per-day token budget that spreads
	// the remaining tokens until the next scheduled reset.
	RecommendedDailyLimit int

	// OnTrackForReset reports whether usage is within the proportional
	// share of the limit for the elapsed reset period.
	OnTrackForReset bool
}

// ResetTimeInfo is the configuration-driven view of the next reset.
type ResetTimeInfo struct {
	NextResetTime          time.Time
	TimeUntilReset         time.Duration
	FormattedTimeRemaining string

	// Message is a display string, e.g. "Resets in 4h 32m" or
	// "No active session".
	Message string
}

// ActualResetInfo is the data-driven view of when the currently active
// session block ends. It is distinct from the scheduled reset and the
// two must not be conflated.
type ActualResetInfo struct {
	NextResetTime          time.Time
	TimeUntilReset         time.Duration
	FormattedTimeRemaining string
}

// UsageStats is the engine's output snapshot. It is immutable once
// constructed and replaced wholesale on each recomputation.
type UsageStats struct {
	// Today is the aggregate for the current calendar date.
	Today blocks.DailyUsage

	// Last7Days and Last30Days are trailing daily sequences, oldest
	// first.
	Last7Days  []blocks.DailyUsage
	Last30Days []blocks.DailyUsage

	// Velocity and Prediction carry the derived rate analytics.
	Velocity   VelocityInfo
	Prediction PredictionInfo

	// ResetInfo is the scheduled reset view; ActualReset is the active
	// block's own end time.
	ResetInfo   ResetTimeInfo
	ActualReset ActualResetInfo

	// Plan is the effective plan tier after auto-detection.
	Plan plan.Plan

	// TokenLimit is the effective limit for the active window.
	TokenLimit int

	// TokensUsed sums the active block's four token kinds.
	TokensUsed int

	// TokensRemaining is TokenLimit minus TokensUsed, floored at 0.
	TokensRemaining int

	// PercentUsed is the usage percentage clamped to [0, 100].
	PercentUsed float64

	// Windows is the session-window tracker's summary.
	Windows window.Summary

	// Health records how this snapshot was produced.
	Health Health
}

// MenuBarData is the compact projection served to the menu-bar display.
type MenuBarData struct {
	TokensUsed   int
	TokenLimit   int
	PercentUsed  float64
	Status       Status
	TodayCostUSD float64
	TimeToReset  string
}

// ConfigUpdate carries a partial configuration change; nil fields are
// left untouched.
type ConfigUpdate struct {
	Timezone         *string
	ResetHour        *int
	Plan             *string
	CustomTokenLimit *int
}

// StatusFor classifies a usage percentage: >= 90 is critical, >= 70 is
// warning, anything below is safe.
func StatusFor(percentUsed float64) Status {
	switch {
	case percentUsed >= 90:
		return StatusCritical
	case percentUsed >= 70:
		return StatusWarning
	default:
		return StatusSafe
	}
}
