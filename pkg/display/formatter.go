package display

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// narrowTerminalWidth is the column count below which output switches
// to compact mode automatically.
const narrowTerminalWidth = 60

// DefaultConfig returns the formatter defaults: table output with
// prediction and velocity sections enabled.
func DefaultConfig() Config {
	return Config{
		Format:         FormatTable,
		ShowPrediction: true,
		ShowVelocity:   true,
	}
}

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	// Set defaults.
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// NewAuto creates a formatter tuned to the output destination: when the
// writer is not a terminal it falls back to simple output, and narrow
// terminals get compact tables.
func NewAuto(cfg Config, w io.Writer) Formatter {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		if cfg.Format == "" || cfg.Format == FormatTable {
			cfg.Format = FormatSimple
		}
		return New(cfg)
	}

	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width < narrowTerminalWidth {
		cfg.Compact = true
	}

	return New(cfg)
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	s := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// formatFloat formats a float with specified precision.
func formatFloat(f float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, f)
}

// formatCost formats a USD amount.
func formatCost(cost float64) string {
	return fmt.Sprintf("$%.2f", cost)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	separator := ""
	for i := 0; i < len(title); i++ {
		separator += "="
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, separator)
	return err
}
