package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stamp/extractor"
	"github.com/yairfalse/stamp/orchestrator"
	"github.com/yairfalse/stamp/tagger"
)

// handleCmd represents the handle command
var handleCmd = &cobra.Command{
	Use:   "handle [event-file]",
	Short: "Run one trigger payload through the pipeline",
	Long: `Feed a single trigger payload through the tagging pipeline.

The payload is either an EventBridge envelope carrying one CloudTrail
creation event, or an S3 notification pointing at a CloudTrail log
object. Pass "-" to read the payload from stdin.`,
	Example: `  stamp handle event.json        # Tag from an EventBridge envelope
  cat event.json | stamp handle -  # Same, from stdin`,
	Args: cobra.ExactArgs(1),
	RunE: runHandle,
}

func init() {
	rootCmd.AddCommand(handleCmd)
}

func runHandle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	payload, err := readPayload(args[0])
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = shutdown(ctx) }()

	fetcher, err := extractor.NewS3LogSource(ctx, cfg.Region)
	if err != nil {
		return fmt.Errorf("failed to create log source: %w", err)
	}

	pipeline := orchestrator.New(cfg, tagger.New(cfg.Region), fetcher)
	response := pipeline.Handle(ctx, payload)

	fmt.Printf("Status: %d\n", response.StatusCode)
	fmt.Println(response.Body)

	if response.StatusCode != 200 {
		return fmt.Errorf("pipeline returned status %d", response.StatusCode)
	}
	return nil
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
