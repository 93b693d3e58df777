// Package cmd contains all CLI commands for MetroFlow.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lan-dot-party/metroflow/internal/config"
	"github.com/lan-dot-party/metroflow/internal/logger"
	"github.com/lan-dot-party/metroflow/pkg/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Loaded configuration (available to subcommands)
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "metroflow",
	Short: "MetroFlow - transit ridership dashboard",
	Long: `MetroFlow renders a ridership dashboard from a flow API:

  • KPIs - total ridership, daily average, busiest station and line
  • Trend chart - ridership per day for the selected date range
  • Lines chart - the ten busiest lines
  • Date filters - apply or reset a desde/hasta range
  • Scheduled refresh and a journal of every load cycle`,
	Version:      version.GetVersion(),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for certain commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" && cmd.Name() == "init" {
			return nil
		}

		development := logger.IsDevelopment()
		logLevel := "info"
		if verbose {
			logLevel = "debug"
		}
		if err := logger.Init(logLevel, development); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Verbose flag takes precedence over the configured level
		if !verbose {
			logger.SetLevel(cfg.General.LogLevel)
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: /etc/metroflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.SetVersionTemplate(`{{printf "MetroFlow %s\n" .Version}}`)
}

// GetConfig returns the loaded configuration.
// Returns nil if config hasn't been loaded yet.
func GetConfig() *config.Config {
	return cfg
}

// SetConfig sets the configuration (useful for testing).
func SetConfig(c *config.Config) {
	cfg = c
}
