package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hookbus configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Bus      BusConfig      `mapstructure:"bus"`
	Reload   ReloadConfig   `mapstructure:"reload"`
	Simulate SimulateConfig `mapstructure:"simulate"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory holding debug.log; empty means <config dir>/logs
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum size of a log file before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
	// Compress gzips rotated log files
	Compress bool `mapstructure:"compress"`
}

// BusConfig controls the event buses and the loops that own them
type BusConfig struct {
	// Trace logs every registration and dispatched phase at DEBUG (default: false)
	Trace bool `mapstructure:"trace"`
	// LoopQueueSize is how many tasks may wait for a loop before submissions fail (default: 256)
	LoopQueueSize int `mapstructure:"loop_queue_size"`
	// TickIntervalMs is the server tick and client frame interval in milliseconds (default: 50)
	TickIntervalMs int `mapstructure:"tick_interval_ms"`
}

// ReloadConfig controls resource pack reloading
type ReloadConfig struct {
	// PackDir is the resource pack directory. Relative paths resolve against
	// the working directory; ~ expands to the home directory. Empty disables reloads.
	PackDir string `mapstructure:"pack_dir"`
	// Watch reloads the pack whenever its files change (default: true)
	Watch bool `mapstructure:"watch"`
	// DebounceMs is the quiet period after a change before reloading (default: 200)
	DebounceMs int `mapstructure:"debounce_ms"`
}

// SimulateConfig controls the scripted session run by `hookbus simulate`
type SimulateConfig struct {
	// Players is the number of players that join (default: 4)
	Players int `mapstructure:"players"`
	// Ticks is the number of server ticks to run (default: 20)
	Ticks int `mapstructure:"ticks"`
	// Frames is the number of client frames to render (default: 3)
	Frames int `mapstructure:"frames"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Bus: BusConfig{
			Trace:          false,
			LoopQueueSize:  256,
			TickIntervalMs: 50, // 20 ticks per second
		},
		Reload: ReloadConfig{
			PackDir:    "",
			Watch:      true,
			DebounceMs: 200,
		},
		Simulate: SimulateConfig{
			Players: 4,
			Ticks:   20,
			Frames:  3,
		},
	}
}

// TickInterval returns the tick interval as a time.Duration
func (c *BusConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Debounce returns the reload debounce as a time.Duration
func (c *ReloadConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolvePackDir returns the absolute pack directory, or "" if none is set.
func (c *ReloadConfig) ResolvePackDir(baseDir string) string {
	if c.PackDir == "" {
		return ""
	}
	return resolvePath(c.PackDir, baseDir)
}

// ResolveDir returns the log directory, defaulting to <config dir>/logs.
func (c *LoggingConfig) ResolveDir(baseDir string) string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return resolvePath(c.Dir, baseDir)
}

// resolvePath expands ~ and resolves relative paths against baseDir.
func resolvePath(path, baseDir string) string {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// If relative path, resolve relative to baseDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Bus defaults
	viper.SetDefault("bus.trace", defaults.Bus.Trace)
	viper.SetDefault("bus.loop_queue_size", defaults.Bus.LoopQueueSize)
	viper.SetDefault("bus.tick_interval_ms", defaults.Bus.TickIntervalMs)

	// Reload defaults
	viper.SetDefault("reload.pack_dir", defaults.Reload.PackDir)
	viper.SetDefault("reload.watch", defaults.Reload.Watch)
	viper.SetDefault("reload.debounce_ms", defaults.Reload.DebounceMs)

	// Simulate defaults
	viper.SetDefault("simulate.players", defaults.Simulate.Players)
	viper.SetDefault("simulate.ticks", defaults.Simulate.Ticks)
	viper.SetDefault("simulate.frames", defaults.Simulate.Frames)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hookbus")
	}
	// Fall back to ~/.config/hookbus
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hookbus"
	}
	return filepath.Join(home, ".config", "hookbus")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
