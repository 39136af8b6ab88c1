// Package cmd contains the agentctl CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monitoragent/telemetry-pipeline/config"
)

var (
	cfg          *config.Config
	overridePath string
	outputFormat string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "agentctl",
	Short: "agentctl - telemetry pipeline operator CLI",
	Long: `agentctl operates the agent-side telemetry pipeline: inspect the
resolved configuration, check connectivity to the live-metrics control
endpoint, and manage the local disk spool used when delivery is down.

Examples:
  # Show the resolved configuration
  agentctl config show

  # List spooled (undelivered) batches
  agentctl spool ls

  # Replay spooled batches against the ingestion endpoint
  agentctl spool drain

  # Ping the live-metrics control endpoint once
  agentctl ping
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(overridePath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&overridePath, "config", "", "path to a YAML configuration override file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(spoolCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("agentctl version 0.1.0")
	},
}
