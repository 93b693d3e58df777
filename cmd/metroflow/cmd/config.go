package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lan-dot-party/metroflow/internal/config"
)

var configInitOutput string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Commands for managing MetroFlow configuration.`,
}

// configValidateCmd validates the configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Check the configuration file and environment overrides for errors.

Examples:
  metroflow config validate
  metroflow config validate --config /path/to/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		fmt.Println("✅ Configuration is valid!")
		fmt.Printf("   Upstream: %s (timeout: %s)\n", cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
		fmt.Printf("   Journal: %s (retention: %s)\n", cfg.Storage.Type, cfg.Storage.Retention)
		fmt.Printf("   Webserver: %s (enabled: %t)\n", cfg.Webserver.Listen, cfg.Webserver.Enabled)
		fmt.Printf("   Scheduler: %s (enabled: %t)\n", cfg.Scheduler.Schedule, cfg.Scheduler.Enabled)
		fmt.Printf("   Charts: %dx%d\n", cfg.Charts.Width, cfg.Charts.Height)

		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long: `Display the current configuration with defaults and environment
overrides applied.

Examples:
  metroflow config show`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Println("# Current MetroFlow Configuration")
		fmt.Println("# (with defaults applied)")
		fmt.Println()
		fmt.Print(string(data))

		return nil
	},
}

// configInitCmd generates an example configuration
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate an example configuration",
	Long: `Generate an example configuration file.

Examples:
  # Print example config to stdout
  metroflow config init

  # Save example config to file
  metroflow config init --output /etc/metroflow/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInitOutput != "" {
			if err := config.WriteExample(configInitOutput); err != nil {
				return err
			}
			fmt.Printf("Example configuration written to %s\n", configInitOutput)
			return nil
		}

		data, err := config.ExampleYAML()
		if err != nil {
			return err
		}

		fmt.Println("# MetroFlow Configuration")
		fmt.Println("# Generated from defaults")
		fmt.Println()
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "",
		"write the example to this file instead of stdout")
}
