package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stamp/extractor"
	"github.com/yairfalse/stamp/internal/daemon"
	"github.com/yairfalse/stamp/orchestrator"
	"github.com/yairfalse/stamp/tagger"
)

var (
	daemonQueueURL    string
	daemonMetricsAddr string
	daemonWaitTime    time.Duration
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the continuous tagging daemon",
	Long: `Run Stamp as a long-lived daemon.

The daemon long-polls an SQS queue for S3 log-delivery notifications,
pulls each CloudTrail log object, and tags every resource the matched
creation events produced.

Features:
- SQS long-polling with redelivery on internal faults
- Prometheus metrics on /metrics
- Health checks on /health, /-/healthy, /-/ready
- Graceful shutdown on SIGTERM/SIGINT`,
	Example: `  stamp daemon --queue-url https://sqs.us-east-1.amazonaws.com/123/trail
  stamp daemon --queue-url $QUEUE --metrics-addr :9090
  stamp daemon --queue-url $QUEUE --wait 10s`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringVar(&daemonQueueURL, "queue-url", "", "SQS queue receiving S3 log-delivery notifications")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", ":2112", "Metrics HTTP server address")
	daemonCmd.Flags().DurationVar(&daemonWaitTime, "wait", 20*time.Second, "SQS long-poll wait time")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if daemonQueueURL != "" {
		cfg.QueueURL = daemonQueueURL
	}

	shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	fetcher, err := extractor.NewS3LogSource(ctx, cfg.Region)
	if err != nil {
		return fmt.Errorf("failed to create log source: %w", err)
	}
	pipeline := orchestrator.New(cfg, tagger.New(cfg.Region), fetcher)

	d, err := daemon.NewFromConfig(ctx, pipeline, daemon.Config{
		QueueURL:    cfg.QueueURL,
		MetricsAddr: daemonMetricsAddr,
		WaitTime:    daemonWaitTime,
		Region:      cfg.Region,
	})
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	fmt.Printf("🚀 Starting Stamp daemon...\n")
	fmt.Printf("   Region: %s\n", cfg.Region)
	fmt.Printf("   Queue: %s\n", cfg.QueueURL)
	fmt.Printf("   Metrics: http://localhost%s/metrics\n\n", daemonMetricsAddr)
	fmt.Println("✨ Daemon running (Ctrl+C to stop)...")

	if err := d.Run(ctx); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	fmt.Println("\n👋 Daemon stopped")
	return nil
}
