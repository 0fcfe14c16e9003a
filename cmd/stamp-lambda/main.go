// Lambda entrypoint for the tagging pipeline. CloudTrail creation events
// arrive through EventBridge, log batches through S3 notifications; both
// land on the same handler.
package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/yairfalse/stamp/config"
	"github.com/yairfalse/stamp/extractor"
	"github.com/yairfalse/stamp/orchestrator"
	"github.com/yairfalse/stamp/tagger"
	"github.com/yairfalse/stamp/telemetry"
)

var pipeline *orchestrator.Pipeline

func main() {
	ctx := context.Background()
	cfg := config.FromEnv()

	if _, err := telemetry.InitOTEL(ctx, telemetry.Config{
		ServiceName:  "stamp-lambda",
		Environment:  cfg.Environment,
		OTELEndpoint: cfg.OTELEndpoint,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to init telemetry")
	}

	fetcher, err := extractor.NewS3LogSource(ctx, cfg.Region)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create log source")
	}

	pipeline = orchestrator.New(cfg, tagger.New(cfg.Region), fetcher)

	lambda.Start(Handler)
}

// Handler runs one invocation payload through the pipeline. Errors are
// reported in the response body, never as invocation failures, so
// EventBridge does not retry events that will never parse.
func Handler(ctx context.Context, event json.RawMessage) (orchestrator.Response, error) {
	return pipeline.Handle(ctx, event), nil
}
