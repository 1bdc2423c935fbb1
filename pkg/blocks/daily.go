package blocks

import (
	"sort"
	"time"

	"github.com/0xmhha/usage-meter/pkg/parser"
)

// dateFormat is the calendar-day key format.
const dateFormat = "2006-01-02"

// AggregateDaily folds usage entries into per-day aggregates, keying
// days by the given location (nil means the process-local zone).
//
// Entries carrying a synthetic model name are filtered out before
// aggregation. Days are returned in ascending date order.
func AggregateDaily(entries []parser.UsageEntry, mode CostMode, loc *time.Location) []DailyUsage {
	if loc == nil {
		loc = time.Local
	}

	dayMap := make(map[string]*DailyUsage)

	for _, e := range entries {
		if e.IsSynthetic() {
			continue
		}

		day := e.Timestamp.In(loc).Format(dateFormat)
		du, ok := dayMap[day]
		if !ok {
			du = &DailyUsage{
				Date:   day,
				Models: make(map[string]ModelUsage),
			}
			dayMap[day] = du
		}

		tokens := e.Message.Usage.TotalTokens()
		cost := EntryCost(e, mode)

		du.TotalTokens += tokens
		du.TotalCost += cost

		mu := du.Models[e.Message.Model]
		mu.Tokens += tokens
		mu.Cost += cost
		du.Models[e.Message.Model] = mu
	}

	return sortedDays(dayMap)
}

// FoldBlocksDaily approximates per-day aggregates from session blocks,
// for when entry-level daily data is unavailable.
//
// A block's totals are attributed to the calendar day of its start time
// in the given location and divided evenly across the block's models.
// The even split is an approximation of the true per-model distribution
// and is kept as-is; downstream displays depend on it.
func FoldBlocksDaily(sessionBlocks []SessionBlock, loc *time.Location) []DailyUsage {
	if loc == nil {
		loc = time.Local
	}

	dayMap := make(map[string]*DailyUsage)

	for _, b := range sessionBlocks {
		if b.IsGap {
			continue
		}

		day := b.StartTime.In(loc).Format(dateFormat)
		du, ok := dayMap[day]
		if !ok {
			du = &DailyUsage{
				Date:   day,
				Models: make(map[string]ModelUsage),
			}
			dayMap[day] = du
		}

		tokens := b.TokenCounts.Total()
		du.TotalTokens += tokens
		du.TotalCost += b.CostUSD

		if len(b.Models) == 0 {
			continue
		}

		perModelTokens := tokens / len(b.Models)
		perModelCost := b.CostUSD / float64(len(b.Models))
		for _, m := range b.Models {
			mu := du.Models[m]
			mu.Tokens += perModelTokens
			mu.Cost += perModelCost
			du.Models[m] = mu
		}
	}

	return sortedDays(dayMap)
}

// MergeDaily prefers loader-supplied daily aggregates, falling back to
// the block fold when none are available.
func MergeDaily(daily []DailyUsage, sessionBlocks []SessionBlock, loc *time.Location) []DailyUsage {
	if len(daily) > 0 {
		return daily
	}
	return FoldBlocksDaily(sessionBlocks, loc)
}

// FindDay returns the aggregate for the given date key, or an empty
// DailyUsage for that date when absent.
func FindDay(days []DailyUsage, date string) DailyUsage {
	for _, d := range days {
		if d.Date == date {
			return d
		}
	}
	return DailyUsage{Date: date, Models: map[string]ModelUsage{}}
}

// LastNDays returns the aggregates whose date falls within the trailing
// n days ending at now, in ascending date order. The cutoff date is
// taken in the given location so it matches the aggregate keys.
func LastNDays(days []DailyUsage, n int, now time.Time, loc *time.Location) []DailyUsage {
	if loc == nil {
		loc = time.Local
	}

	cutoff := now.In(loc).AddDate(0, 0, -n).Format(dateFormat)

	var result []DailyUsage
	for _, d := range days {
		if d.Date > cutoff {
			result = append(result, d)
		}
	}
	return result
}

// sortedDays flattens a day map into an ascending-date slice.
func sortedDays(dayMap map[string]*DailyUsage) []DailyUsage {
	days := make([]DailyUsage, 0, len(dayMap))
	for _, du := range dayMap {
		days = append(days, *du)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days
}
