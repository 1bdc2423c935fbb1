// Package main provides the usage-meter CLI application.
//
// Usage Meter tracks Claude Code CLI token consumption: 5-hour session
// windows, burn rate, depletion prediction, and plan auto-detection.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("usage-meter %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "stats":
		return runStatsCommand(*configPath, args[1:])
	case "status":
		return runStatusCommand(*configPath, args[1:])
	case "daily":
		return runDailyCommand(*configPath, args[1:])
	case "watch":
		return runWatchCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runStatsCommand runs the stats command.
func runStatsCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")
	noPrediction := fs.Bool("no-prediction", false, "hide depletion prediction")
	noVelocity := fs.Bool("no-velocity", false, "hide burn-rate section")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &statsCommand{
		format:         *format,
		compact:        *compact,
		showPrediction: !*noPrediction,
		showVelocity:   !*noVelocity,
		configPath:     configPath,
	}

	return cmd.Execute()
}

// runStatusCommand runs the status command.
func runStatusCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &statusCommand{
		format:     *format,
		configPath: configPath,
	}

	return cmd.Execute()
}

// runDailyCommand runs the daily command.
func runDailyCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("daily", flag.ExitOnError)
	days := fs.Int("days", 7, "number of trailing days to show (7 or 30)")
	format := fs.String("format", "auto", "output format (auto, table, json, simple)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &dailyCommand{
		days:       *days,
		format:     *format,
		configPath: configPath,
	}

	return cmd.Execute()
}

// runWatchCommand runs the watch command.
func runWatchCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	refresh := fs.Duration("refresh", 0, "refresh interval (default: poll_interval from config)")
	format := fs.String("format", "table", "output format (table, simple)")
	history := fs.Bool("history", false, "keep history of updates (append mode)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &watchCommand{
		refresh:     *refresh,
		format:      *format,
		clearScreen: !*history,
		configPath:  configPath,
	}

	return cmd.Execute()
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Usage Meter - Claude Code CLI usage analytics

Usage:
  usage-meter [flags] <command> [command flags]

Commands:
  stats       Display the full usage analytics snapshot
  status      Display the compact menu-bar status line
  daily       Display daily usage history
  watch       Live monitoring of usage
  config      Configuration management (show, path, set)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Stats Command Flags:
  -format         Output format (auto, table, json, simple)
  -compact        Compact output
  -no-prediction  Hide depletion prediction
  -no-velocity    Hide burn-rate section

Daily Command Flags:
  -days       Number of trailing days to show (default 7)
  -format     Output format (auto, table, json, simple)

Watch Command Flags:
  -refresh    Refresh interval (default: poll_interval from config)
  -format     Output format (table, simple)
  -history    Keep history of updates (append mode)

Examples:
  # Show the full snapshot
  usage-meter stats

  # Menu-bar line for scripting
  usage-meter status -format simple

  # Last 30 days as JSON
  usage-meter daily -days 30 -format json

  # Live monitoring
  usage-meter watch -refresh 1s

  # Configuration
  usage-meter config show
  usage-meter config set plan max5

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
