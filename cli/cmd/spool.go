package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/monitoragent/telemetry-pipeline/internallog"
	"github.com/monitoragent/telemetry-pipeline/transmit"
)

var spoolCmd = &cobra.Command{
	Use:   "spool",
	Short: "Manage the local disk spool of undelivered batches",
}

var spoolLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List spooled batch files, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internallog.New(internallog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "agentctl"})
		spool, err := transmit.NewSpool(cfg.SpoolDir, cfg.SpoolCapBytes, logger)
		if err != nil {
			return err
		}
		paths, err := spool.List()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(paths)
		}

		if len(paths) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "spool is empty")
			return nil
		}
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

var spoolDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Replay spooled batches against the ingestion endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internallog.New(internallog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "agentctl"})
		spool, err := transmit.NewSpool(cfg.SpoolDir, cfg.SpoolCapBytes, logger)
		if err != nil {
			return err
		}

		tx := transmit.New(transmit.Config{
			Endpoint:   cfg.IngestionEndpoint + "/v2.1/track",
			MaxRetries: uint64(cfg.MaxRetries),
		}, &http.Client{}, spool, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := tx.ReplaySpool(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "drain stopped early: %v\n", err)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "drain complete")
		return nil
	},
}

func init() {
	spoolCmd.AddCommand(spoolLsCmd)
	spoolCmd.AddCommand(spoolDrainCmd)
}
