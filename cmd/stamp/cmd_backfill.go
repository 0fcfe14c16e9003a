package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stamp/backfill"
	"github.com/yairfalse/stamp/tagger"
	"github.com/yairfalse/stamp/types"
)

var backfillSince time.Duration

// backfillCmd represents the backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Tag resources created in recent CloudTrail history",
	Long: `Sweep CloudTrail event history for supported creation events and tag
the resources they created.

Use this to catch up on resources created before real-time delivery was
wired up, or after an outage of the event pipeline. CloudTrail keeps 90
days of history, so --since beyond that finds nothing extra.`,
	Example: `  stamp backfill                 # Sweep the last 24 hours
  stamp backfill --since 72h     # Sweep the last three days`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().DurationVar(&backfillSince, "since", 24*time.Hour, "How far back to sweep")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = shutdown(ctx) }()

	fmt.Printf("🔍 Sweeping CloudTrail history (last %s, region %s)...\n\n", backfillSince, cfg.Region)

	sweeper, err := backfill.NewFromConfig(ctx, cfg.Region, tagger.New(cfg.Region), types.TagSet(cfg.StaticTags()))
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}

	result, err := sweeper.Sweep(ctx, backfillSince)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("📋 Events found:   %d\n", result.EventsFound)
	fmt.Printf("🎯 Facts matched:  %d\n", result.FactsMatched)
	fmt.Printf("✅ Tagged:         %d\n", result.TaggedCount)
	fmt.Printf("❌ Failed:         %d\n", result.FailedCount)

	return nil
}
