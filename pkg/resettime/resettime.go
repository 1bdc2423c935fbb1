// Package resettime computes scheduled usage-reset instants and the
// budget recommendations derived from them.
//
// Example usage:
//
//	calc, err := resettime.New("America/New_York", 0, log)
//	if err != nil {
//		return err
//	}
//
//	info := calc.Info(time.Now())
//	fmt.Println(info.FormattedTimeRemaining)
package resettime

import (
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/usage-meter/pkg/logger"
)

// Info describes the next scheduled reset relative to a reference
// instant.
type Info struct {
	// NextResetTime is the next scheduled reset instant.
	NextResetTime time.Time

	// TimeUntilReset is the duration from the reference instant to the
	// next reset.
	TimeUntilReset time.Duration

	// FormattedTimeRemaining is a human-readable countdown, e.g. "4h 32m".
	FormattedTimeRemaining string
}

// Calculator computes reset schedules and derived budget
// recommendations.
type Calculator interface {
	// NextReset returns the next scheduled reset instant after now.
	NextReset(now time.Time) time.Time

	// Info returns the next reset together with a formatted countdown.
	Info(now time.Time) Info

	// RecommendedDailyLimit returns the token budget per calendar day
	// that spreads the remaining tokens evenly until the next reset.
	RecommendedDailyLimit(remainingTokens int, now time.Time) int

	// IsOnTrackForReset reports whether cumulative usage stays at or
	// below the proportional share of the limit for the elapsed
	// fraction of the current reset period.
	IsOnTrackForReset(tokensUsed, tokenLimit int, now time.Time) bool

	// UpdateSchedule replaces the configured timezone and reset hour.
	UpdateSchedule(timezone string, resetHour int) error
}

// calculator implements the Calculator interface.
type calculator struct {
	mu        sync.RWMutex
	location  *time.Location
	resetHour int
	logger    logger.Logger
}

// New creates a reset-time calculator for the given timezone name and
// daily reset hour (0-23).
//
// Returns an error if the timezone cannot be loaded or the hour is out
// of range.
func New(timezone string, resetHour int, log logger.Logger) (Calculator, error) {
	loc, err := loadSchedule(timezone, resetHour)
	if err != nil {
		return nil, err
	}

	return &calculator{
		location:  loc,
		resetHour: resetHour,
		logger:    log,
	}, nil
}

// NextReset implements Calculator.NextReset.
func (c *calculator) NextReset(now time.Time) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.nextResetLocked(now)
}

// Info implements Calculator.Info.
func (c *calculator) Info(now time.Time) Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	next := c.nextResetLocked(now)
	until := next.Sub(now)

	return Info{
		NextResetTime:          next,
		TimeUntilReset:         until,
		FormattedTimeRemaining: FormatCountdown(until),
	}
}

// RecommendedDailyLimit implements Calculator.RecommendedDailyLimit.
func (c *calculator) RecommendedDailyLimit(remainingTokens int, now time.Time) int {
	if remainingTokens <= 0 {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	days := c.daysUntilResetLocked(now)
	if days < 1 {
		days = 1
	}

	return remainingTokens / days
}

// IsOnTrackForReset implements Calculator.IsOnTrackForReset.
//
// The tie is resolved inclusively: usage exactly at the proportional
// share still counts as on track.
func (c *calculator) IsOnTrackForReset(tokensUsed, tokenLimit int, now time.Time) bool {
	if tokenLimit <= 0 {
		return tokensUsed <= 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	next := c.nextResetLocked(now)
	prev := next.Add(-resetPeriod)

	elapsed := now.Sub(prev)
	if elapsed <= 0 {
		return true
	}

	fraction := float64(elapsed) / float64(resetPeriod)
	if fraction > 1 {
		fraction = 1
	}

	return float64(tokensUsed) <= fraction*float64(tokenLimit)
}

// UpdateSchedule implements Calculator.UpdateSchedule.
func (c *calculator) UpdateSchedule(timezone string, resetHour int) error {
	loc, err := loadSchedule(timezone, resetHour)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.location = loc
	c.resetHour = resetHour
	c.mu.Unlock()

	c.logger.Debug("reset schedule updated",
		"timezone", timezone,
		"reset_hour", resetHour)

	return nil
}

// resetPeriod is the span between two consecutive scheduled resets.
const resetPeriod = 24 * time.Hour

func loadSchedule(timezone string, resetHour int) (*time.Location, error) {
	if resetHour < 0 || resetHour > 23 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResetHour, resetHour)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}

	return loc, nil
}

func (c *calculator) nextResetLocked(now time.Time) time.Time {
	local := now.In(c.location)

	next := time.Date(local.Year(), local.Month(), local.Day(),
		c.resetHour, 0, 0, 0, c.location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

// daysUntilResetLocked counts calendar days from now's date to the
// next reset's date in the configured location.
func (c *calculator) daysUntilResetLocked(now time.Time) int {
	local := now.In(c.location)
	next := c.nextResetLocked(now)

	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)
	resetDay := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, c.location)

	return int(resetDay.Sub(today).Hours() / 24)
}

// FormatCountdown renders a duration as a compact countdown such as
// "4h 32m" or "45m". Negative durations render as "0m".
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	totalMinutes := int(d.Minutes())
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%dh %dm", hours, minutes)
}
