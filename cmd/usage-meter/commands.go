package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/usage-meter/pkg/blocks"
	"github.com/0xmhha/usage-meter/pkg/config"
	"github.com/0xmhha/usage-meter/pkg/discovery"
	"github.com/0xmhha/usage-meter/pkg/display"
	"github.com/0xmhha/usage-meter/pkg/engine"
	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/parser"
	"github.com/0xmhha/usage-meter/pkg/reader"
	"github.com/0xmhha/usage-meter/pkg/resettime"
	"github.com/0xmhha/usage-meter/pkg/watcher"
	"github.com/0xmhha/usage-meter/pkg/window"
)

// app bundles the wired components every command needs.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	db     *bolt.DB
	reader reader.Reader
	engine engine.Engine
}

// newApp loads configuration and wires the full analytics stack.
func newApp(configPath string) (*app, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	db, err := reader.OpenPositionDB(cfg.Storage.PositionDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open position database: %w", err)
	}

	positionStore, err := reader.NewBoltPositionStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize position store: %w", err)
	}

	r, err := reader.New(reader.Config{
		PositionStore: positionStore,
		Parser:        parser.New(log),
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize reader: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Analytics.Timezone)
	if err != nil {
		_ = r.Close()
		_ = db.Close()
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Analytics.Timezone, err)
	}

	// The loader and the engine must agree on what "today" means, or
	// near-midnight usage lands in a bucket the engine never looks up.
	loader, err := blocks.NewLoader(blocks.LoaderConfig{
		Discoverer: discovery.New(cfg.ClaudeConfigDirs, log),
		Reader:     r,
		Location:   loc,
	}, log)
	if err != nil {
		_ = r.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize loader: %w", err)
	}

	calc, err := resettime.New(cfg.Analytics.Timezone, cfg.Analytics.ResetHour, log)
	if err != nil {
		_ = r.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize reset calculator: %w", err)
	}

	eng, err := engine.New(engine.Config{
		Loader:           loader,
		ResetCalc:        calc,
		Windows:          window.New(log),
		Timezone:         cfg.Analytics.Timezone,
		ResetHour:        cfg.Analytics.ResetHour,
		Plan:             cfg.PlanSelection(),
		CustomTokenLimit: cfg.Analytics.CustomTokenLimit,
		CacheTTL:         cfg.Analytics.CacheTTL,
	}, log)
	if err != nil {
		_ = r.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db, reader: r, engine: eng}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if err := a.reader.Close(); err != nil {
		a.log.Error("failed to close reader", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Error("failed to close position database", "error", err)
	}
}

// formatAuto selects the output format from the destination: simple for
// pipes, compact tables for narrow terminals.
const formatAuto = "auto"

// newFormatter builds a formatter for stdout, auto-detecting the
// destination when the format is "auto".
func newFormatter(cfg display.Config) display.Formatter {
	if string(cfg.Format) == formatAuto {
		cfg.Format = ""
		return display.NewAuto(cfg, os.Stdout)
	}
	return display.New(cfg)
}

// statsCommand displays the full usage analytics snapshot.
type statsCommand struct {
	format         string
	compact        bool
	showPrediction bool
	showVelocity   bool
	configPath     string
}

// Execute runs the stats command.
func (c *statsCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.engine.GetUsageStats(context.Background())

	formatter := newFormatter(display.Config{
		Format:         display.Format(c.format),
		Compact:        c.compact,
		ShowPrediction: c.showPrediction,
		ShowVelocity:   c.showVelocity,
	})

	return formatter.FormatStats(os.Stdout, stats)
}

// statusCommand displays the compact menu-bar projection.
type statusCommand struct {
	format     string
	configPath string
}

// Execute runs the status command.
func (c *statusCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	data := a.engine.GetMenuBarData(context.Background())

	formatter := newFormatter(display.Config{Format: display.Format(c.format)})
	return formatter.FormatMenuBar(os.Stdout, data)
}

// dailyCommand displays daily usage history.
type dailyCommand struct {
	days       int
	format     string
	configPath string
}

// Execute runs the daily command.
func (c *dailyCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	stats := a.engine.GetUsageStats(context.Background())

	days := stats.Last7Days
	if c.days > 7 {
		days = stats.Last30Days
	}

	formatter := newFormatter(display.Config{Format: display.Format(c.format)})
	return formatter.FormatDaily(os.Stdout, days)
}

// watchCommand live-monitors usage, refreshing on a timer and on
// session file changes.
type watchCommand struct {
	refresh     time.Duration
	format      string
	clearScreen bool
	configPath  string
}

// resolveRefresh picks the watch refresh interval: the -refresh flag
// when set, otherwise the configured poll interval.
func resolveRefresh(flagValue, configured time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if configured > 0 {
		return configured
	}
	return engine.DefaultCacheTTL
}

// Execute runs the watch command.
func (c *watchCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	w, err := watcher.New(watcher.Config{}, a.log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx, a.cfg.ClaudeConfigDirs); err != nil {
		// No watchable directories still leaves the timer refresh.
		a.log.Warn("file watching unavailable, falling back to polling",
			"error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	formatter := display.New(display.Config{
		Format:         display.Format(c.format),
		ShowPrediction: true,
		ShowVelocity:   true,
	})

	ticker := time.NewTicker(resolveRefresh(c.refresh, a.cfg.Analytics.PollInterval))
	defer ticker.Stop()

	if err := c.render(ctx, a, formatter); err != nil {
		return err
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopped.")
			return nil

		case <-ticker.C:
			if err := c.render(ctx, a, formatter); err != nil {
				return err
			}

		case event, ok := <-w.Events():
			if !ok {
				continue
			}
			a.log.Debug("session file changed", "path", event.Path, "op", event.Op)
			// The data on disk just changed; a cached snapshot inside
			// the freshness window would re-render stale numbers.
			a.engine.InvalidateCache()
			if err := c.render(ctx, a, formatter); err != nil {
				return err
			}

		case err, ok := <-w.Errors():
			if ok && err != nil {
				a.log.Warn("watch error", "error", err)
			}
		}
	}
}

// render prints one snapshot frame.
func (c *watchCommand) render(ctx context.Context, a *app, formatter display.Formatter) error {
	if c.clearScreen {
		// ANSI clear + home.
		fmt.Print("\033[2J\033[H")
	}

	stats := a.engine.GetUsageStats(ctx)
	if err := formatter.FormatStats(os.Stdout, stats); err != nil {
		return err
	}

	fmt.Printf("Updated: %s  (refresh %s, Ctrl+C to quit)\n",
		time.Now().Format("15:04:05"), c.refresh)

	return nil
}
