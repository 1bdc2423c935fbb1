package blocks

import (
	"testing"
	"time"

	"github.com/0xmhha/usage-meter/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateDaily(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

	entries := []parser.UsageEntry{
		makeEntry(day1, "claude-3-5-sonnet-20241022", 100, 0, 0, 0),
		makeEntry(day1.Add(time.Hour), "claude-3-opus-20240229", 200, 0, 0, 0),
		makeEntry(day2, "claude-3-5-sonnet-20241022", 300, 0, 0, 0),
		makeEntry(day2.Add(time.Minute), "<synthetic>", 999, 0, 0, 0),
	}

	daily := AggregateDaily(entries, CostModeCalculate, time.UTC)
	require.Len(t, daily, 2)

	assert.Equal(t, "2025-06-01", daily[0].Date)
	assert.Equal(t, 300, daily[0].TotalTokens)
	assert.Len(t, daily[0].Models, 2)

	assert.Equal(t, "2025-06-02", daily[1].Date)
	assert.Equal(t, 300, daily[1].TotalTokens, "synthetic entries must be excluded")
	assert.Len(t, daily[1].Models, 1)
}

func TestAggregateDaily_KeysByLocation(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:30 UTC is already the next day in Tokyo; the bucket key must
	// follow the requested location, not the process zone.
	entries := []parser.UsageEntry{
		makeEntry(time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC), "claude-3-5-sonnet-20241022", 1000, 0, 0, 0),
	}

	utcDaily := AggregateDaily(entries, CostModeCalculate, time.UTC)
	require.Len(t, utcDaily, 1)
	assert.Equal(t, "2025-06-01", utcDaily[0].Date)

	tokyoDaily := AggregateDaily(entries, CostModeCalculate, tokyo)
	require.Len(t, tokyoDaily, 1)
	assert.Equal(t, "2025-06-02", tokyoDaily[0].Date)
}

func TestFoldBlocksDaily_KeysByLocation(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	blocksIn := []SessionBlock{{
		StartTime:   time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC),
		TokenCounts: TokenCounts{InputTokens: 500},
		Models:      []string{"claude-3-5-sonnet-20241022"},
	}}

	assert.Equal(t, "2025-06-01", FoldBlocksDaily(blocksIn, time.UTC)[0].Date)
	assert.Equal(t, "2025-06-02", FoldBlocksDaily(blocksIn, tokyo)[0].Date)
}

func TestFoldBlocksDaily(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	blocksIn := []SessionBlock{
		{
			StartTime:   start,
			EndTime:     start.Add(SessionDuration),
			TokenCounts: TokenCounts{InputTokens: 400},
			CostUSD:     2.0,
			Models:      []string{"claude-3-5-sonnet-20241022", "claude-3-opus-20240229"},
		},
		{IsGap: true, StartTime: start.Add(6 * time.Hour), EndTime: start.Add(12 * time.Hour)},
	}

	daily := FoldBlocksDaily(blocksIn, time.UTC)
	require.Len(t, daily, 1, "gap blocks must not produce days")

	d := daily[0]
	assert.Equal(t, "2025-06-01", d.Date)
	assert.Equal(t, 400, d.TotalTokens)
	assert.InDelta(t, 2.0, d.TotalCost, 1e-9)

	// Per-model attribution is split evenly across the block's models.
	require.Len(t, d.Models, 2)
	assert.Equal(t, 200, d.Models["claude-3-opus-20240229"].Tokens)
	assert.InDelta(t, 1.0, d.Models["claude-3-opus-20240229"].Cost, 1e-9)
}

func TestMergeDaily_PrefersEntryAggregates(t *testing.T) {
	t.Parallel()

	daily := []DailyUsage{{Date: "2025-06-01", TotalTokens: 100}}
	blocksIn := []SessionBlock{{
		StartTime:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		TokenCounts: TokenCounts{InputTokens: 999},
	}}

	merged := MergeDaily(daily, blocksIn, time.UTC)
	require.Len(t, merged, 1)
	assert.Equal(t, 100, merged[0].TotalTokens)

	folded := MergeDaily(nil, blocksIn, time.UTC)
	require.Len(t, folded, 1)
	assert.Equal(t, 999, folded[0].TotalTokens)
}

func TestFindDay(t *testing.T) {
	t.Parallel()

	days := []DailyUsage{
		{Date: "2025-06-01", TotalTokens: 100},
		{Date: "2025-06-02", TotalTokens: 200},
	}

	assert.Equal(t, 200, FindDay(days, "2025-06-02").TotalTokens)

	missing := FindDay(days, "2025-06-03")
	assert.Equal(t, "2025-06-03", missing.Date)
	assert.Zero(t, missing.TotalTokens)
}

func TestLastNDays(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	days := []DailyUsage{
		{Date: "2025-06-01", TotalTokens: 1},
		{Date: "2025-06-08", TotalTokens: 2},
		{Date: "2025-06-10", TotalTokens: 3},
	}

	recent := LastNDays(days, 3, now, time.UTC)
	require.Len(t, recent, 2)
	assert.Equal(t, "2025-06-08", recent[0].Date)
	assert.Equal(t, "2025-06-10", recent[1].Date)
}
