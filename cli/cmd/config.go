package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved agent configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			redacted := *cfg
			redacted.InstrumentationKey = "<redacted>"
			return enc.Encode(redacted)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "role name:           %s\n", cfg.RoleName)
		fmt.Fprintf(cmd.OutOrStdout(), "role instance:       %s\n", cfg.RoleInstance)
		fmt.Fprintf(cmd.OutOrStdout(), "ingestion endpoint:  %s\n", cfg.IngestionEndpoint)
		fmt.Fprintf(cmd.OutOrStdout(), "live endpoint:       %s\n", cfg.LiveEndpoint)
		fmt.Fprintf(cmd.OutOrStdout(), "batch size:          %d\n", cfg.BatchSize)
		fmt.Fprintf(cmd.OutOrStdout(), "batch interval:      %s\n", cfg.BatchInterval)
		fmt.Fprintf(cmd.OutOrStdout(), "max retries:         %d\n", cfg.MaxRetries)
		fmt.Fprintf(cmd.OutOrStdout(), "spool dir:           %s\n", cfg.SpoolDir)
		fmt.Fprintf(cmd.OutOrStdout(), "spool cap bytes:     %d\n", cfg.SpoolCapBytes)
		fmt.Fprintf(cmd.OutOrStdout(), "live metrics:        %v\n", cfg.LiveMetricsEnabled)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
