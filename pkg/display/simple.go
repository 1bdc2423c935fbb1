package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/engine"
)

// simpleFormatter formats output as plain text lines.
type simpleFormatter struct {
	config Config
}

// FormatStats implements Formatter.FormatStats.
func (f *simpleFormatter) FormatStats(w io.Writer, stats engine.UsageStats) error {
	lines := []string{
		fmt.Sprintf("plan: %s", stats.Plan),
		fmt.Sprintf("tokens_used: %d", stats.TokensUsed),
		fmt.Sprintf("token_limit: %d", stats.TokenLimit),
		fmt.Sprintf("tokens_remaining: %d", stats.TokensRemaining),
		fmt.Sprintf("percent_used: %s", formatFloat(stats.PercentUsed, 1)),
		fmt.Sprintf("today_cost: %s", formatFloat(stats.Today.TotalCost, 4)),
		fmt.Sprintf("next_reset: %s", stats.ResetInfo.FormattedTimeRemaining),
		fmt.Sprintf("health: %s", stats.Health),
	}

	if f.config.ShowVelocity {
		lines = append(lines,
			fmt.Sprintf("burn_rate: %s", formatFloat(stats.Velocity.CurrentRate, 1)),
			fmt.Sprintf("trend: %s", stats.Velocity.Trend),
		)
	}

	if f.config.ShowPrediction {
		depletion := "unknown"
		if stats.Prediction.DepletionTime != nil {
			depletion = stats.Prediction.DepletionTime.Format("2006-01-02 15:04")
		}
		lines = append(lines,
			fmt.Sprintf("depletion: %s", depletion),
			fmt.Sprintf("confidence: %d", stats.Prediction.Confidence),
			fmt.Sprintf("on_track: %t", stats.Prediction.OnTrackForReset),
		)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

// FormatMenuBar implements Formatter.FormatMenuBar.
func (f *simpleFormatter) FormatMenuBar(w io.Writer, data engine.MenuBarData) error {
	_, err := fmt.Fprintf(w, "%d/%d %s%% %s\n",
		data.TokensUsed,
		data.TokenLimit,
		formatFloat(data.PercentUsed, 1),
		data.Status)
	return err
}

// FormatDaily implements Formatter.FormatDaily.
func (f *simpleFormatter) FormatDaily(w io.Writer, days []blocks.DailyUsage) error {
	for _, day := range days {
		_, err := fmt.Fprintf(w, "%s %d %s\n",
			day.Date,
			day.TotalTokens,
			formatFloat(day.TotalCost, 4))
		if err != nil {
			return err
		}
	}

	return nil
}
