package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/logger"
)

func TestSummary_EmptyBeforeRefresh(t *testing.T) {
	t.Parallel()

	tr := New(logger.Noop())

	s := tr.Summary()
	assert.Empty(t, s.RecentWindows)
	assert.Zero(t, s.ActiveCount)
	assert.Zero(t, s.CompletedCount)
	assert.Zero(t, s.TotalTokens)
}

func TestRefresh_EmptyInput(t *testing.T) {
	t.Parallel()

	tr := New(logger.Noop())
	tr.Refresh(nil)

	s := tr.Summary()
	assert.Empty(t, s.RecentWindows)
	assert.Zero(t, s.TotalTokens)
}

func TestRefresh_CountsAndTotals(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	input := []blocks.SessionBlock{
		{
			StartTime:   start,
			EndTime:     start.Add(5 * time.Hour),
			TokenCounts: blocks.TokenCounts{InputTokens: 1000},
			CostUSD:     1.5,
		},
		{IsGap: true, StartTime: start.Add(6 * time.Hour)},
		{
			StartTime:   start.Add(12 * time.Hour),
			EndTime:     start.Add(17 * time.Hour),
			TokenCounts: blocks.TokenCounts{OutputTokens: 500},
			CostUSD:     0.5,
			IsActive:    true,
		},
	}

	tr := New(logger.Noop())
	tr.Refresh(input)

	s := tr.Summary()
	require.Len(t, s.RecentWindows, 2, "gap blocks must be excluded")
	assert.Equal(t, 1, s.ActiveCount)
	assert.Equal(t, 1, s.CompletedCount)
	assert.Equal(t, 1500, s.TotalTokens)
	assert.InDelta(t, 2.0, s.TotalCostUSD, 1e-9)

	assert.Equal(t, 1000, s.RecentWindows[0].Tokens)
	assert.True(t, s.RecentWindows[1].IsActive)
}

func TestRefresh_ReplacesState(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tr := New(logger.Noop())
	tr.Refresh([]blocks.SessionBlock{{
		StartTime:   start,
		TokenCounts: blocks.TokenCounts{InputTokens: 100},
	}})
	tr.Refresh(nil)

	assert.Zero(t, tr.Summary().TotalTokens)
}

func TestRefresh_TrimsToRecentWindows(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var input []blocks.SessionBlock
	for i := 0; i < recentWindowLimit+5; i++ {
		input = append(input, blocks.SessionBlock{
			StartTime:   start.Add(time.Duration(i*6) * time.Hour),
			TokenCounts: blocks.TokenCounts{InputTokens: 10},
		})
	}

	tr := New(logger.Noop())
	tr.Refresh(input)

	s := tr.Summary()
	assert.Len(t, s.RecentWindows, recentWindowLimit)

	// Totals still cover every window, not just the listed ones.
	assert.Equal(t, (recentWindowLimit+5)*10, s.TotalTokens)

	// Oldest windows were dropped from the listing.
	wantFirst := start.Add(time.Duration(5*6) * time.Hour)
	assert.True(t, s.RecentWindows[0].StartTime.Equal(wantFirst))
}

func TestSummary_CopyIsIndependent(t *testing.T) {
	t.Parallel()

	tr := New(logger.Noop())
	tr.Refresh([]blocks.SessionBlock{{
		TokenCounts: blocks.TokenCounts{InputTokens: 100},
	}})

	s := tr.Summary()
	s.RecentWindows[0].Tokens = 999

	assert.Equal(t, 100, tr.Summary().RecentWindows[0].Tokens)
}
