package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/engine"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatStats implements Formatter.FormatStats.
func (f *jsonFormatter) FormatStats(w io.Writer, stats engine.UsageStats) error {
	return f.encode(w, stats)
}

// FormatMenuBar implements Formatter.FormatMenuBar.
func (f *jsonFormatter) FormatMenuBar(w io.Writer, data engine.MenuBarData) error {
	return f.encode(w, data)
}

// FormatDaily implements Formatter.FormatDaily.
func (f *jsonFormatter) FormatDaily(w io.Writer, days []blocks.DailyUsage) error {
	return f.encode(w, days)
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}

	return encoder.Encode(v)
}
