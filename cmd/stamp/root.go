package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/yairfalse/stamp/config"
	"github.com/yairfalse/stamp/telemetry"
)

var (
	version    = "0.1.0"
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "stamp",
		Short: "CloudTrail-driven resource ownership tagger",
		Long: `Stamp - Resource Ownership Tagger

Stamp watches CloudTrail for resource creation events and stamps each
new resource with CreatedBy, CreatedDate, and ManagedBy tags the moment
it appears. No more orphaned instances nobody remembers launching.

Handle single events, replay recent CloudTrail history, or run as a
long-lived daemon consuming S3 log-delivery notifications from SQS.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Stamp {{.Version}} - Resource Ownership Tagger
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

// loadConfiguration reads the config file when one is given, otherwise
// falls back to environment variables.
func loadConfiguration() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("STAMP_CONFIG")
	}
	if path != "" {
		return config.LoadConfig(path)
	}
	return config.FromEnv(), nil
}

// initTelemetry wires traces and metrics and returns a shutdown func.
func initTelemetry(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	return telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:    "stamp",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		OTELEndpoint:   cfg.OTELEndpoint,
	})
}
