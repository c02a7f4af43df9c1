package cmd

import (
	"os"
	"strings"

	"github.com/Iron-Ham/hookbus/internal/config"
	"github.com/Iron-Ham/hookbus/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hookbus",
	Short: "Phase-aware event buses for game hosts",
	Long: `Hookbus runs a server bus and a client bus that dispatch host events
(joins, chat, block breaks, ticks, frames, resource reloads) to feature
listeners in ordered phases.

Use 'hookbus simulate' to run a scripted session, 'hookbus watch' to reload
a resource pack as it changes, and 'hookbus phases' to list the phase
contract of every event.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/hookbus/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug/info/warn/error)")
	rootCmd.PersistentFlags().Bool("trace", false, "log every registration and dispatched phase")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("bus.trace", rootCmd.PersistentFlags().Lookup("trace"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/hookbus")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HOOKBUS")
	// Replace dots with underscores for nested keys in env vars
	// e.g., HOOKBUS_BUS_LOOP_QUEUE_SIZE for bus.loop_queue_size
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger builds the debug logger described by cfg. With logging
// disabled it returns a logger that discards everything.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(cwd), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}
