package blocks

import (
	"sort"
	"time"

	"github.com/0xmhha/usage-meter/pkg/parser"
)

// Build groups usage entries into session blocks of the given window
// duration, inserting gap blocks for idle periods longer than one
// window.
//
// Parameters:
//   - entries: Usage entries in any order
//   - window: Block duration (SessionDuration for the product default)
//   - mode: Cost mode for pricing entries
//   - now: Evaluation instant, used to decide which block is active
//
// Returns blocks in chronological order. At most one block is active.
func Build(entries []parser.UsageEntry, window time.Duration, mode CostMode, now time.Time) []SessionBlock {
	if len(entries) == 0 {
		return nil
	}

	if window <= 0 {
		window = SessionDuration
	}

	sorted := make([]parser.UsageEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var result []SessionBlock

	var current []parser.UsageEntry
	blockStart := floorToHour(sorted[0].Timestamp)

	for _, entry := range sorted {
		if len(current) == 0 {
			blockStart = floorToHour(entry.Timestamp)
			current = append(current, entry)
			continue
		}

		lastTime := current[len(current)-1].Timestamp
		blockEnd := blockStart.Add(window)

		// A new block starts when the entry falls past the nominal end
		// or after an idle stretch of at least one window.
		if !entry.Timestamp.Before(blockEnd) || entry.Timestamp.Sub(lastTime) >= window {
			result = append(result, finalizeBlock(current, blockStart, window, mode, now))

			// Mark long idle stretches with a gap block.
			if entry.Timestamp.Sub(lastTime) >= window {
				nextStart := floorToHour(entry.Timestamp)
				if gap := makeGapBlock(lastTime, nextStart); gap != nil {
					result = append(result, *gap)
				}
			}

			blockStart = floorToHour(entry.Timestamp)
			current = current[:0]
		}

		current = append(current, entry)
	}

	if len(current) > 0 {
		result = append(result, finalizeBlock(current, blockStart, window, mode, now))
	}

	return result
}

// finalizeBlock aggregates one block's entries.
func finalizeBlock(entries []parser.UsageEntry, start time.Time, window time.Duration, mode CostMode, now time.Time) SessionBlock {
	end := start.Add(window)
	last := entries[len(entries)-1].Timestamp

	block := SessionBlock{
		ID:            start.Format(time.RFC3339),
		StartTime:     start,
		EndTime:       end,
		ActualEndTime: &last,
		IsActive:      now.Sub(last) < window && now.Before(end),
	}

	modelSet := make(map[string]struct{})

	for _, e := range entries {
		u := e.Message.Usage
		block.TokenCounts.InputTokens += u.InputTokens
		block.TokenCounts.OutputTokens += u.OutputTokens
		block.TokenCounts.CacheCreationInputTokens += u.CacheCreationInputTokens
		block.TokenCounts.CacheReadInputTokens += u.CacheReadInputTokens
		block.CostUSD += EntryCost(e, mode)

		if !e.IsSynthetic() {
			modelSet[e.Message.Model] = struct{}{}
		}
	}

	block.Models = make([]string, 0, len(modelSet))
	for m := range modelSet {
		block.Models = append(block.Models, m)
	}
	sort.Strings(block.Models)

	return block
}

// makeGapBlock builds the synthetic block covering [lastActivity,
// nextStart). Returns nil when the interval is empty.
func makeGapBlock(lastActivity, nextStart time.Time) *SessionBlock {
	if !nextStart.After(lastActivity) {
		return nil
	}

	return &SessionBlock{
		ID:        "gap-" + lastActivity.Format(time.RFC3339),
		StartTime: lastActivity,
		EndTime:   nextStart,
		IsGap:     true,
	}
}

// floorToHour truncates a timestamp to the start of its hour, in UTC.
func floorToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
