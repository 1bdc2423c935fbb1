package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/usage-meter/pkg/config"
	"github.com/0xmhha/usage-meter/pkg/plan"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "set":
		return c.runSet(subargs)
	case "reset":
		return c.runReset(subargs)
	case "plans":
		return c.runPlans()
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the current configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ExitOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	default:
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println("# Current Configuration")
		fmt.Println("# Source:", c.configSource())
		fmt.Println()
		fmt.Print(string(data))
		return nil
	}
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	fmt.Println("Configuration file search paths (in order of precedence):")
	fmt.Println()

	for i, p := range c.searchPaths() {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Printf("  %d. %s [%s]\n", i+1, p, exists)
	}

	fmt.Println()
	fmt.Println("Active configuration:", c.configSource())
	return nil
}

// runSet updates one configuration key in the config file.
func (c *configCommand) runSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: config set <key> <value> (keys: plan, timezone, reset_hour, custom_token_limit)")
	}

	key, value := args[0], args[1]

	path := c.writablePath()
	cfg := config.Default()
	if loaded, err := config.NewLoader(c.configPath).LoadFromFile(path); err == nil {
		cfg = loaded
	}

	switch key {
	case "plan":
		if _, err := plan.ParseSelection(value); err != nil {
			return err
		}
		cfg.Analytics.Plan = strings.ToLower(value)
	case "timezone":
		cfg.Analytics.Timezone = value
	case "reset_hour":
		hour, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("reset_hour must be a number: %q", value)
		}
		cfg.Analytics.ResetHour = hour
	case "custom_token_limit":
		limit, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("custom_token_limit must be a number: %q", value)
		}
		cfg.Analytics.CustomTokenLimit = limit
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("rejected: %w", err)
	}

	if err := c.writeConfig(path, cfg); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, path)
	return nil
}

// runReset writes the default configuration.
func (c *configCommand) runReset(args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ExitOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = c.writablePath()
	}

	if !*force {
		fmt.Printf("Overwrite %s with defaults? [y/N] ", path)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := c.writeConfig(path, config.Default()); err != nil {
		return err
	}

	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}

// runPlans lists the plan catalog.
func (c *configCommand) runPlans() error {
	fmt.Println("Available plans:")
	fmt.Println()

	for _, p := range plan.All() {
		info, err := plan.Lookup(p)
		if err != nil {
			continue
		}

		limit := fmt.Sprintf("%d tokens / 5h", info.TokenLimit)
		if p == plan.Custom {
			limit = "auto-detected or user-defined"
		}

		fmt.Printf("  %-8s %-16s %s\n", p, info.DisplayName, limit)
		fmt.Printf("           %s\n", info.Description)
	}

	fmt.Println()
	fmt.Println("Select with: usage-meter config set plan <name> (or \"auto\")")
	return nil
}

func (c *configCommand) writeConfig(path string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// searchPaths mirrors the loader's config file lookup order.
func (c *configCommand) searchPaths() []string {
	paths := []string{"./config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "usage-meter", "config.yaml"))
	}
	return paths
}

// configSource reports which file the active configuration comes from.
func (c *configCommand) configSource() string {
	if c.configPath != "" {
		return c.configPath
	}

	for _, p := range c.searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return "built-in defaults"
}

// writablePath picks where config set/reset writes.
func (c *configCommand) writablePath() string {
	if c.configPath != "" {
		return c.configPath
	}

	for _, p := range c.searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "usage-meter", "config.yaml")
	}

	return "./config.yaml"
}

// showHelp displays config command usage.
func (c *configCommand) showHelp() error {
	fmt.Print(`Configuration management

Usage:
  usage-meter config <subcommand>

Subcommands:
  show    Display the effective configuration (-format yaml|json)
  path    Show configuration file search paths
  set     Update one key (plan, timezone, reset_hour, custom_token_limit)
  reset   Write the default configuration (-force, -output <path>)
  plans   List the plan catalog

Examples:
  usage-meter config show
  usage-meter config set plan max5
  usage-meter config set reset_hour 9
  usage-meter config reset -force
`)
	return nil
}
