package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/monitoragent/telemetry-pipeline/internallog"
	"github.com/monitoragent/telemetry-pipeline/livemetrics"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send one ping to the live-metrics control endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internallog.New(internallog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "agentctl"})

		agg := livemetrics.New(cfg.InstrumentationKey, logger)
		controller := livemetrics.NewController(agg, livemetrics.Config{
			IKey:         cfg.InstrumentationKey,
			RoleName:     cfg.RoleName,
			RoleInstance: cfg.RoleInstance,
			LiveEndpoint: cfg.LiveEndpoint,
		}, &http.Client{}, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		before := agg.State()
		controller.Ping(ctx)
		after := agg.State()

		fmt.Fprintf(cmd.OutOrStdout(), "ping sent: state %s -> %s\n", before, after)
		if after == livemetrics.Streaming {
			fmt.Fprintln(cmd.OutOrStdout(), "subscriber attached, would begin streaming")
		}
		return nil
	},
}
