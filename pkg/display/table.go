package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/engine"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatStats implements Formatter.FormatStats.
func (f *tableFormatter) FormatStats(w io.Writer, stats engine.UsageStats) error {
	if err := writeHeader(w, "Usage Statistics", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Plan", string(stats.Plan)},
		{"Tokens Used", formatNumber(stats.TokensUsed)},
		{"Token Limit", formatNumber(stats.TokenLimit)},
		{"Tokens Remaining", formatNumber(stats.TokensRemaining)},
		{"Used", formatFloat(stats.PercentUsed, 1) + "%"},
		{"Today's Cost", formatCost(stats.Today.TotalCost)},
		{"Next Reset", stats.ResetInfo.FormattedTimeRemaining},
	}

	if stats.Health != engine.HealthOK {
		rows = append(rows, []string{"State", string(stats.Health)})
	}

	if err := f.writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	if f.config.ShowVelocity {
		if err := f.formatVelocity(w, stats.Velocity); err != nil {
			return err
		}
	}

	if f.config.ShowPrediction {
		if err := f.formatPrediction(w, stats.Prediction); err != nil {
			return err
		}
	}

	return nil
}

func (f *tableFormatter) formatVelocity(w io.Writer, vel engine.VelocityInfo) error {
	if err := writeHeader(w, "Burn Rate", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Current", formatFloat(vel.CurrentRate, 1) + " tok/h"},
		{"24h Average", formatFloat(vel.Average24h, 1) + " tok/h"},
		{"7d Average", formatFloat(vel.Average7d, 1) + " tok/h"},
		{"Trend", fmt.Sprintf("%s (%+.1f%%)", vel.Trend, vel.TrendPercent)},
	}
	if vel.IsAccelerating {
		rows = append(rows, []string{"Accelerating", "yes"})
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

func (f *tableFormatter) formatPrediction(w io.Writer, pred engine.PredictionInfo) error {
	if err := writeHeader(w, "Prediction", f.config.Compact); err != nil {
		return err
	}

	depletion := "unknown"
	if pred.DepletionTime != nil {
		depletion = pred.DepletionTime.Format("2006-01-02 15:04")
	}

	onTrack := "no"
	if pred.OnTrackForReset {
		onTrack = "yes"
	}

	rows := [][]string{
		{"Depletion", depletion},
		{"Days Remaining", formatFloat(pred.DaysRemaining, 1)},
		{"Confidence", fmt.Sprintf("%d%%", pred.Confidence)},
		{"Daily Budget", formatNumber(pred.RecommendedDailyLimit)},
		{"On Track", onTrack},
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// FormatMenuBar implements Formatter.FormatMenuBar.
func (f *tableFormatter) FormatMenuBar(w io.Writer, data engine.MenuBarData) error {
	_, err := fmt.Fprintf(w, "%s/%s (%s%%) [%s] %s\n",
		formatNumber(data.TokensUsed),
		formatNumber(data.TokenLimit),
		formatFloat(data.PercentUsed, 1),
		data.Status,
		formatCost(data.TodayCostUSD))
	return err
}

// FormatDaily implements Formatter.FormatDaily.
func (f *tableFormatter) FormatDaily(w io.Writer, days []blocks.DailyUsage) error {
	if err := writeHeader(w, "Daily Usage", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Date", "Tokens", "Cost", "Models"}

	rows := make([][]string, len(days))
	for i, day := range days {
		models := make([]string, 0, len(day.Models))
		for model := range day.Models {
			models = append(models, model)
		}

		rows[i] = []string{
			day.Date,
			formatNumber(day.TotalTokens),
			formatCost(day.TotalCost),
			fmt.Sprintf("%d", len(models)),
		}
	}

	return f.writeTable(w, header, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	for i, cell := range cells {
		if i > 0 {
			sep := "  "
			if f.config.Compact {
				sep = " "
			}
			if _, err := fmt.Fprint(w, sep); err != nil {
				return err
			}
		}

		format := fmt.Sprintf("%%-%ds", widths[i])
		if _, err := fmt.Fprintf(w, format, cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}
