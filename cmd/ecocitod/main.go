package main

import (
	"context"
	"ecocito-bridge/lib/serviceutil"
	"ecocito-bridge/lib/telemetry"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envPath    string

	cfg Config
	tel telemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:           "ecocitod",
	Short:         "ecocitod forwards Ecocito waste collection records to an MQTT broker.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := LoadDotenv(envPath)
		if err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		cfg, err = LoadConfig(configPath, os.LookupEnv)
		if err != nil {
			return err
		}

		level, _ := telemetry.ParseLevel(cfg.Log.Level)
		format, _ := telemetry.ParseFormat(cfg.Log.Format)
		telemetry.InitSlog(level, format)

		tel, err = telemetry.Setup(cmd.Context(), "ecocitod", cfg.Telemetry)
		return err
	},
}

// shutdownTelemetry flushes the exporters started by the root command, it
// runs after every command including failed ones.
func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err := tel.Shutdown(ctx)
	if err != nil {
		slog.Warn("telemetry shutdown", "err", err)
	}
	tel = telemetry.Telemetry{}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "Config file, <name>.local.<ext> is merged on top of it when present.")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env", "Environment file loaded before reading the environment.")
}

func execute(ctx context.Context, args []string) error {
	defer shutdownTelemetry()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx := serviceutil.SignalContext(context.Background())
	err := execute(ctx, os.Args[1:])
	if err != nil {
		serviceutil.Fatal("ecocitod", err)
	}
}
