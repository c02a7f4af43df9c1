package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify hookbus configuration",
	Long: `View or modify hookbus configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  hookbus config set bus.trace true
  hookbus config set reload.pack_dir ~/packs/main
  hookbus config set simulate.players 8

Valid keys:
  logging.enabled        - Write debug logs (true/false)
  logging.level          - Minimum level: debug, info, warn, error
  logging.dir            - Log directory (default: <config dir>/logs)
  logging.max_size_mb    - Rotate debug.log after this many MB
  logging.max_backups    - Rotated log files to keep
  logging.compress       - Gzip rotated log files (true/false)
  bus.trace              - Log every registration and dispatched phase
  bus.loop_queue_size    - Tasks that may wait for a loop
  bus.tick_interval_ms   - Server tick and client frame interval
  reload.pack_dir        - Resource pack directory
  reload.watch           - Reload the pack when files change
  reload.debounce_ms     - Quiet period before a reload
  simulate.players       - Players in 'hookbus simulate'
  simulate.ticks         - Server ticks in 'hookbus simulate'
  simulate.frames        - Client frames in 'hookbus simulate'`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/hookbus/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// configKeys maps every settable key to its value type.
var configKeys = map[string]string{
	"logging.enabled":      "bool",
	"logging.level":        "string",
	"logging.dir":          "string",
	"logging.max_size_mb":  "int",
	"logging.max_backups":  "int",
	"logging.compress":     "bool",
	"bus.trace":            "bool",
	"bus.loop_queue_size":  "int",
	"bus.tick_interval_ms": "int",
	"reload.pack_dir":      "string",
	"reload.watch":         "bool",
	"reload.debounce_ms":   "int",
	"simulate.players":     "int",
	"simulate.ticks":       "int",
	"simulate.frames":      "int",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintln(out)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.Dir)
	fmt.Fprintf(out, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(out, "  max_backups: %d\n", cfg.Logging.MaxBackups)
	fmt.Fprintf(out, "  compress: %v\n", cfg.Logging.Compress)

	fmt.Fprintln(out, "bus:")
	fmt.Fprintf(out, "  trace: %v\n", cfg.Bus.Trace)
	fmt.Fprintf(out, "  loop_queue_size: %d\n", cfg.Bus.LoopQueueSize)
	fmt.Fprintf(out, "  tick_interval_ms: %d\n", cfg.Bus.TickIntervalMs)

	fmt.Fprintln(out, "reload:")
	fmt.Fprintf(out, "  pack_dir: %s\n", cfg.Reload.PackDir)
	fmt.Fprintf(out, "  watch: %v\n", cfg.Reload.Watch)
	fmt.Fprintf(out, "  debounce_ms: %d\n", cfg.Reload.DebounceMs)

	fmt.Fprintln(out, "simulate:")
	fmt.Fprintf(out, "  players: %d\n", cfg.Simulate.Players)
	fmt.Fprintf(out, "  ticks: %d\n", cfg.Simulate.Ticks)
	fmt.Fprintf(out, "  frames: %d\n", cfg.Simulate.Frames)

	return nil
}

// parseConfigValue converts value to the type registered for key.
func parseConfigValue(key, value string) (any, error) {
	keyType, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'hookbus config set --help' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	default:
		if key == "logging.level" {
			level := strings.ToLower(value)
			valid := config.ValidLogLevels()
			for _, l := range valid {
				if l == level {
					return level, nil
				}
			}
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(valid, ", "))
		}
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseConfigValue(key, args[1])
	if err != nil {
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper and make sure the result is still valid
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

// defaultConfigContent is written by 'hookbus config init'.
const defaultConfigContent = `# hookbus configuration

# Debug logging (JSON lines in <dir>/debug.log)
logging:
  enabled: true
  # Options: debug, info, warn, error
  level: info
  # Empty means ~/.config/hookbus/logs
  dir: ""
  max_size_mb: 10
  max_backups: 3
  # Gzip rotated files (debug.log.1.gz, ...)
  compress: false

# Event buses and the loops that own them
bus:
  # Log every registration and dispatched phase at debug level
  trace: false
  # Tasks that may wait for a loop before submissions are rejected
  loop_queue_size: 256
  # Server tick and client frame interval (50ms = 20 ticks per second)
  tick_interval_ms: 50

# Resource pack reloading
reload:
  # Directory holding feature resources (join.yaml, chat/filter.yaml, ...)
  pack_dir: ""
  # Reload whenever a resource changes ('hookbus watch')
  watch: true
  debounce_ms: 200

# Scripted session run by 'hookbus simulate'
simulate:
  players: 4
  ticks: 20
  frames: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'hookbus config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize hookbus.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/hookbus/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: HOOKBUS_* (e.g., HOOKBUS_BUS_TRACE)")

	return nil
}
