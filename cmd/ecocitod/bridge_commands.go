package main

import (
	"context"
	"ecocito-bridge/lib/scrapers/ecocito"
	"ecocito-bridge/lib/telemetry"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(loginCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Polls the portal forever and publishes new collection records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cfg.RequireBridge()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		components, err := newBridge(ctx, cfg)
		if err != nil {
			return err
		}
		defer components.Close()

		telemetry.InstrumentPerfStats(ctx)
		components.service.Run(ctx)
		return nil
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single poll cycle, the exit code reflects its outcome.",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cfg.RequireBridge()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		components, err := newBridge(ctx, cfg)
		if err != nil {
			return err
		}
		defer components.Close()

		report, err := components.service.Cycle(ctx)
		if err != nil {
			return err
		}
		slog.InfoContext(
			ctx, "cycle done",
			"start", report.Start,
			"end", report.End,
			"fetched", report.Fetched,
			"published", report.Published,
			"skipped", report.Skipped,
		)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks the portal credentials by logging in and out.",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := cfg.RequirePortal()
		if err != nil {
			return err
		}
		opts, err := portalOptions(cfg)
		if err != nil {
			return err
		}

		err = ecocito.WithSession(cmd.Context(), opts, func(ctx context.Context, client *ecocito.Client) error {
			slog.InfoContext(ctx, "logged in", "portal", client.BaseUrl.String(), "username", cfg.Portal.Username)
			return nil
		})
		if err != nil {
			return err
		}
		slog.Info("credentials are valid")
		return nil
	},
}
