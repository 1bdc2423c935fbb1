// Package engine computes usage analytics snapshots from Claude Code
// session data.
//
// The engine is the single source of truth for the menu-bar display: it
// caches a fully assembled UsageStats snapshot for a short freshness
// window, recomputes on demand, and degrades to a well-defined default
// snapshot when the data loader fails or no session is active.
//
// Example usage:
//
//	eng, err := engine.New(engine.Config{
//		Loader:    loader,
//		ResetCalc: calc,
//	}, log)
//	if err != nil {
//		return err
//	}
//
//	stats := eng.GetUsageStats(ctx)
//	fmt.Printf("%d/%d tokens\n", stats.TokensUsed, stats.TokenLimit)
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/plan"
	"github.com/0xmhha/usage-meter/pkg/resettime"
	"github.com/0xmhha/usage-meter/pkg/window"
)

const (
	// DefaultCacheTTL is the snapshot freshness window.
	DefaultCacheTTL = 3 * time.Second

	// sessionWindowHours is the fixed session-block window size.
	sessionWindowHours = 5

	dateFormat = "2006-01-02"
)

// DataLoader supplies session blocks and daily aggregates. The engine
// treats loader failures as recoverable: a failed block fetch yields a
// default snapshot, a failed daily fetch yields empty daily data.
type DataLoader interface {
	LoadSessionBlocks(ctx context.Context, windowHours int) ([]blocks.SessionBlock, error)
	LoadDailyAggregates(ctx context.Context) ([]blocks.DailyUsage, error)
}

// Engine produces usage analytics snapshots.
type Engine interface {
	// GetUsageStats returns the current snapshot, serving a cached
	// value within the freshness window. It never returns an error:
	// failures degrade to a default snapshot with Health set.
	GetUsageStats(ctx context.Context) UsageStats

	// GetMenuBarData projects the snapshot into the compact menu-bar
	// form.
	GetMenuBarData(ctx context.Context) MenuBarData

	// GetTimeUntilActualReset returns when the currently active session
	// block ends, as opposed to the scheduled reset.
	GetTimeUntilActualReset(ctx context.Context) ActualResetInfo

	// UpdateConfiguration applies a partial configuration change and
	// invalidates the cache. Invalid values are rejected without
	// applying any part of the update.
	UpdateConfiguration(update ConfigUpdate) error

	// InvalidateCache discards the cached snapshot so the next read
	// recomputes. Used when the underlying log data is known to have
	// changed before the freshness window elapses.
	InvalidateCache()
}

// Config contains engine configuration.
type Config struct {
	// Loader supplies session blocks and daily aggregates. Required.
	Loader DataLoader

	// ResetCalc computes scheduled resets. Required.
	ResetCalc resettime.Calculator

	// Windows tracks rolling session-window summaries. Default: a new
	// tracker.
	Windows window.Tracker

	// Timezone names the zone used to pick "today". Default: "Local".
	Timezone string

	// ResetHour is the daily reset hour, kept alongside Timezone so
	// partial updates can re-submit the unchanged half. Default: 0.
	ResetHour int

	// Plan is the initial plan selection. Default: auto-detection.
	Plan plan.Selection

	// CustomTokenLimit overrides auto-detection for an explicit custom
	// plan when positive.
	CustomTokenLimit int

	// CacheTTL is the snapshot freshness window. Default: 3 seconds.
	CacheTTL time.Duration

	// Now supplies the evaluation instant. Default: time.Now.
	Now func() time.Time
}

// engine implements the Engine interface.
type engine struct {
	loader    DataLoader
	resetCalc resettime.Calculator
	windows   window.Tracker
	logger    logger.Logger
	now       func() time.Time
	cacheTTL  time.Duration

	group singleflight.Group

	mu          sync.Mutex
	planSel     plan.Selection
	customLimit int
	timezone    string
	resetHour   int
	location    *time.Location
	cached      *UsageStats
	cachedAt    time.Time
}

// New creates a usage analytics engine.
//
// Returns an error if the configuration is missing the loader or reset
// calculator, or names an unknown timezone.
func New(cfg Config, log logger.Logger) (Engine, error) {
	if cfg.Loader == nil {
		return nil, ErrNoLoader
	}
	if cfg.ResetCalc == nil {
		return nil, ErrNoResetCalculator
	}
	if cfg.Windows == nil {
		cfg.Windows = window.New(log)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Plan == (plan.Selection{}) {
		cfg.Plan = plan.Auto()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, cfg.Timezone)
	}

	return &engine{
		loader:      cfg.Loader,
		resetCalc:   cfg.ResetCalc,
		windows:     cfg.Windows,
		logger:      log,
		now:         cfg.Now,
		cacheTTL:    cfg.CacheTTL,
		planSel:     cfg.Plan,
		customLimit: cfg.CustomTokenLimit,
		timezone:    cfg.Timezone,
		resetHour:   cfg.ResetHour,
		location:    loc,
	}, nil
}

// GetUsageStats implements Engine.GetUsageStats.
func (e *engine) GetUsageStats(ctx context.Context) UsageStats {
	if stats, ok := e.cachedStats(); ok {
		return stats
	}

	// At most one recomputation runs at a time; concurrent callers
	// share the leader's result.
	v, _, _ := e.group.Do("stats", func() (interface{}, error) {
		if stats, ok := e.cachedStats(); ok {
			return stats, nil
		}

		stats := e.compute(ctx)

		e.mu.Lock()
		e.cached = &stats
		e.cachedAt = e.now()
		e.mu.Unlock()

		return stats, nil
	})

	return v.(UsageStats)
}

// GetMenuBarData implements Engine.GetMenuBarData.
func (e *engine) GetMenuBarData(ctx context.Context) MenuBarData {
	stats := e.GetUsageStats(ctx)

	return MenuBarData{
		TokensUsed:   stats.TokensUsed,
		TokenLimit:   stats.TokenLimit,
		PercentUsed:  stats.PercentUsed,
		Status:       StatusFor(stats.PercentUsed),
		TodayCostUSD: stats.Today.TotalCost,
		TimeToReset:  stats.ResetInfo.FormattedTimeRemaining,
	}
}

// GetTimeUntilActualReset implements Engine.GetTimeUntilActualReset.
func (e *engine) GetTimeUntilActualReset(ctx context.Context) ActualResetInfo {
	return e.GetUsageStats(ctx).ActualReset
}

// UpdateConfiguration implements Engine.UpdateConfiguration.
func (e *engine) UpdateConfiguration(update ConfigUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	timezone := e.timezone
	resetHour := e.resetHour
	if update.Timezone != nil {
		timezone = *update.Timezone
	}
	if update.ResetHour != nil {
		resetHour = *update.ResetHour
	}

	var location *time.Location
	if update.Timezone != nil || update.ResetHour != nil {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
		}
		location = loc

		// Validates the hour as well; rejected updates leave the
		// calculator untouched.
		if err := e.resetCalc.UpdateSchedule(timezone, resetHour); err != nil {
			return err
		}
	}

	var planSel *plan.Selection
	if update.Plan != nil {
		sel, err := plan.ParseSelection(*update.Plan)
		if err != nil {
			return err
		}
		planSel = &sel
	}

	if update.CustomTokenLimit != nil && *update.CustomTokenLimit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCustomLimit, *update.CustomTokenLimit)
	}

	// All fields validated; apply atomically.
	e.timezone = timezone
	e.resetHour = resetHour
	if location != nil {
		e.location = location
	}
	if planSel != nil {
		e.planSel = *planSel
	}
	if update.CustomTokenLimit != nil {
		e.customLimit = *update.CustomTokenLimit
	}

	// Cache invalidation is unconditional so the next read recomputes
	// under the new configuration.
	e.cached = nil
	e.cachedAt = time.Time{}

	e.logger.Info("configuration updated",
		"timezone", e.timezone,
		"reset_hour", e.resetHour,
		"plan", e.planSel.String())

	return nil
}

// InvalidateCache implements Engine.InvalidateCache.
func (e *engine) InvalidateCache() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cached = nil
	e.cachedAt = time.Time{}
}

func (e *engine) cachedStats() (UsageStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cached == nil || e.now().Sub(e.cachedAt) >= e.cacheTTL {
		return UsageStats{}, false
	}

	return *e.cached, true
}

// compute performs a full snapshot recomputation.
func (e *engine) compute(ctx context.Context) UsageStats {
	now := e.now()

	var (
		wg       sync.WaitGroup
		blks     []blocks.SessionBlock
		blksErr  error
		daily    []blocks.DailyUsage
		dailyErr error
	)

	// The two fetches are independent; issue them concurrently and
	// join before deriving anything.
	wg.Add(2)
	go func() {
		defer wg.Done()
		blks, blksErr = e.loader.LoadSessionBlocks(ctx, sessionWindowHours)
	}()
	go func() {
		defer wg.Done()
		daily, dailyErr = e.loader.LoadDailyAggregates(ctx)
	}()
	wg.Wait()

	if dailyErr != nil {
		e.logger.Warn("daily aggregate load failed", "error", dailyErr)
		daily = nil
	}
	if blksErr != nil {
		e.logger.Error("session block load failed", "error", blksErr)
		return e.defaultSnapshot(now, daily, nil, HealthDegraded)
	}

	e.windows.Refresh(blks)

	if len(blks) == 0 {
		return e.defaultSnapshot(now, daily, nil, HealthNoSession)
	}

	merged := blocks.MergeDaily(daily, blks, e.location)

	active := findActiveBlock(blks)
	if active == nil {
		return e.defaultSnapshot(now, daily, blks, HealthNoSession)
	}

	tokensUsed := active.TokenCounts.Total()

	e.mu.Lock()
	effectivePlan, tokenLimit := e.resolvePlanLocked(blks, active, tokensUsed)
	e.mu.Unlock()

	tokensRemaining := tokenLimit - tokensUsed
	if tokensRemaining < 0 {
		tokensRemaining = 0
	}

	percentUsed := 0.0
	if tokenLimit > 0 {
		percentUsed = float64(tokensUsed) / float64(tokenLimit) * 100
	}
	if percentUsed > 100 {
		percentUsed = 100
	}

	currentHourly := burnRatePerMinute(blks, now) * 60
	velocity := computeVelocity(blks, currentHourly, now)

	prediction := computePrediction(velocity, tokensRemaining, now)
	prediction.RecommendedDailyLimit = e.resetCalc.RecommendedDailyLimit(tokensRemaining, now)
	prediction.OnTrackForReset = e.resetCalc.IsOnTrackForReset(tokensUsed, tokenLimit, now)

	resetInfo := e.scheduledReset(now)
	actualReset := ActualResetInfo{
		NextResetTime:          active.EndTime,
		TimeUntilReset:         active.EndTime.Sub(now),
		FormattedTimeRemaining: resettime.FormatCountdown(active.EndTime.Sub(now)),
	}

	today := now.In(e.location).Format(dateFormat)

	return UsageStats{
		Today:           blocks.FindDay(merged, today),
		Last7Days:       blocks.LastNDays(merged, 7, now, e.location),
		Last30Days:      blocks.LastNDays(merged, 30, now, e.location),
		Velocity:        velocity,
		Prediction:      prediction,
		ResetInfo:       resetInfo,
		ActualReset:     actualReset,
		Plan:            effectivePlan,
		TokenLimit:      tokenLimit,
		TokensUsed:      tokensUsed,
		TokensRemaining: tokensRemaining,
		PercentUsed:     percentUsed,
		Windows:         e.windows.Summary(),
		Health:          HealthOK,
	}
}

// resolvePlanLocked determines the effective plan tier and token limit.
//
// Auto-detection applies when the selection is auto/custom, or when a
// pro selection's usage exceeds the pro threshold (which also promotes
// the selection to custom). The detected limit is the maximum total
// across historical closed blocks, falling back to the open custom
// default with no history.
func (e *engine) resolvePlanLocked(blks []blocks.SessionBlock, active *blocks.SessionBlock, tokensUsed int) (plan.Plan, int) {
	tier := e.planSel.Tier()

	if tier == plan.Pro && tokensUsed > plan.Pro.TokenLimit() {
		e.planSel = plan.Fixed(plan.Custom)
		tier = plan.Custom
		e.logger.Info("usage exceeds pro limit, promoting plan to custom",
			"tokens_used", tokensUsed)
	}

	if tier != plan.Custom {
		return tier, tier.TokenLimit()
	}

	if !e.planSel.IsAuto() && e.customLimit > 0 {
		return plan.Custom, e.customLimit
	}

	limit := maxHistoricalTokens(blks, active)
	if limit == 0 {
		limit = plan.DefaultCustomLimit
	}

	return plan.Custom, limit
}

// defaultSnapshot builds the degraded snapshot: zeroed usage, on-track
// prediction, and whatever daily data survived the failure.
func (e *engine) defaultSnapshot(now time.Time, daily []blocks.DailyUsage, blks []blocks.SessionBlock, health Health) UsageStats {
	merged := blocks.MergeDaily(daily, blks, e.location)
	today := now.In(e.location).Format(dateFormat)

	e.mu.Lock()
	tier := e.planSel.Tier()
	customLimit := e.customLimit
	isAuto := e.planSel.IsAuto()
	e.mu.Unlock()

	tokenLimit := tier.TokenLimit()
	if tier == plan.Custom && !isAuto && customLimit > 0 {
		tokenLimit = customLimit
	}

	resetInfo := e.scheduledReset(now)
	resetInfo.Message = noSessionMessage

	return UsageStats{
		Today:      blocks.FindDay(merged, today),
		Last7Days:  blocks.LastNDays(merged, 7, now, e.location),
		Last30Days: blocks.LastNDays(merged, 30, now, e.location),
		Velocity:   VelocityInfo{Trend: TrendStable},
		Prediction: PredictionInfo{
			Confidence:      50,
			OnTrackForReset: true,
		},
		ResetInfo:       resetInfo,
		Plan:            tier,
		TokenLimit:      tokenLimit,
		TokensRemaining: tokenLimit,
		Windows:         e.windows.Summary(),
		Health:          health,
	}
}

func (e *engine) scheduledReset(now time.Time) ResetTimeInfo {
	info := e.resetCalc.Info(now)

	return ResetTimeInfo{
		NextResetTime:          info.NextResetTime,
		TimeUntilReset:         info.TimeUntilReset,
		FormattedTimeRemaining: info.FormattedTimeRemaining,
		Message:                "Resets in " + info.FormattedTimeRemaining,
	}
}

// findActiveBlock returns the first non-gap active block, or nil.
func findActiveBlock(blks []blocks.SessionBlock) *blocks.SessionBlock {
	for i := range blks {
		if !blks[i].IsGap && blks[i].IsActive {
			return &blks[i]
		}
	}

	return nil
}

// maxHistoricalTokens returns the largest total token count across
// non-gap blocks other than the active one.
func maxHistoricalTokens(blks []blocks.SessionBlock, active *blocks.SessionBlock) int {
	max := 0
	for i := range blks {
		b := &blks[i]
		if b.IsGap || b == active {
			continue
		}
		if total := b.TokenCounts.Total(); total > max {
			max = total
		}
	}

	return max
}
