package engine

import (
	"math"
	"time"

	"github.com/0xmhha/usage-meter/pkg/blocks"
)

// burnRatePerMinute computes the token burn rate over the trailing 60
// minutes, in tokens per minute.
//
// Each non-gap block contributes a linear apportionment of its total
// tokens: the fraction of the block's lifetime that overlaps the
// trailing hour. Blocks that ended before the window are skipped.
func burnRatePerMinute(sessionBlocks []blocks.SessionBlock, now time.Time) float64 {
	windowStart := now.Add(-time.Hour)

	var total float64
	for _, b := range sessionBlocks {
		if b.IsGap {
			continue
		}

		end := b.EffectiveEnd(now)
		if !end.After(windowStart) {
			continue
		}

		overlapStart := b.StartTime
		if overlapStart.Before(windowStart) {
			overlapStart = windowStart
		}
		overlapEnd := end
		if overlapEnd.After(now) {
			overlapEnd = now
		}

		overlap := overlapEnd.Sub(overlapStart).Minutes()
		duration := end.Sub(b.StartTime).Minutes()
		if overlap <= 0 || duration <= 0 {
			continue
		}

		total += float64(b.TokenCounts.Total()) * overlap / duration
	}

	return total / 60
}

// computeVelocity derives rolling hourly averages and a trend
// classification from the block history.
func computeVelocity(sessionBlocks []blocks.SessionBlock, currentHourly float64, now time.Time) VelocityInfo {
	avg24 := hourlyAverage(sessionBlocks, now, 24*time.Hour)
	avg7d := hourlyAverage(sessionBlocks, now, 7*24*time.Hour)

	var trendPct float64
	if avg24 > 0 {
		trendPct = (currentHourly - avg24) / avg24 * 100
	}

	trend := TrendStable
	switch {
	case trendPct > 15:
		trend = TrendIncreasing
	case trendPct < -15:
		trend = TrendDecreasing
	}

	return VelocityInfo{
		CurrentRate:    currentHourly,
		Average24h:     avg24,
		Average7d:      avg7d,
		Trend:          trend,
		TrendPercent:   trendPct,
		IsAccelerating: trend == TrendIncreasing && trendPct > 20,
	}
}

// hourlyAverage sums tokens across non-gap blocks starting within the
// trailing span and divides by the span's hour count.
func hourlyAverage(sessionBlocks []blocks.SessionBlock, now time.Time, span time.Duration) float64 {
	cutoff := now.Add(-span)

	total := 0
	for _, b := range sessionBlocks {
		if b.IsGap || b.StartTime.Before(cutoff) {
			continue
		}
		total += b.TokenCounts.Total()
	}

	return float64(total) / span.Hours()
}

// computePrediction projects depletion from the current burn rate and
// scores its confidence.
func computePrediction(vel VelocityInfo, tokensRemaining int, now time.Time) PredictionInfo {
	confidence := 50
	if vel.CurrentRate > 0 && vel.Average24h > 0 {
		confidence += 30
	}
	if math.Abs(vel.TrendPercent) > 50 {
		confidence -= 20
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 95 {
		confidence = 95
	}

	pred := PredictionInfo{Confidence: confidence}

	if vel.CurrentRate > 0 {
		hoursLeft := float64(tokensRemaining) / vel.CurrentRate
		depletion := now.Add(time.Duration(hoursLeft * float64(time.Hour)))
		pred.DepletionTime = &depletion
		pred.DaysRemaining = hoursLeft / 24
	}

	return pred
}
