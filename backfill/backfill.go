// Package backfill sweeps recent CloudTrail history for creation events
// and tags the resources they created. It covers accounts where no
// real-time delivery or log trail is wired up to the tagger yet.
package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/stamp/extractor"
	"github.com/yairfalse/stamp/normalizer"
	"github.com/yairfalse/stamp/telemetry"
	"github.com/yairfalse/stamp/types"
)

// CloudTrailAPI is the slice of the CloudTrail client the sweeper uses.
type CloudTrailAPI interface {
	LookupEvents(ctx context.Context, input *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error)
}

// Applicator applies ownership tags for one creation fact.
type Applicator interface {
	Apply(ctx context.Context, fact types.CreationFact, extra types.TagSet) types.TaggingOutcome
}

// Sweeper queries CloudTrail event history and feeds matches through the
// normalize-and-tag flow.
type Sweeper struct {
	client     CloudTrailAPI
	normalizer *normalizer.Normalizer
	applicator Applicator
	staticTags types.TagSet
	logger     *telemetry.Logger
	tracer     trace.Tracer
}

// Result summarizes one sweep.
type Result struct {
	EventsFound  int `json:"events_found"`
	FactsMatched int `json:"facts_matched"`
	TaggedCount  int `json:"tagged_count"`
	FailedCount  int `json:"failed_count"`
}

// New creates a sweeper with an injected CloudTrail client.
func New(client CloudTrailAPI, applicator Applicator, staticTags types.TagSet) *Sweeper {
	return &Sweeper{
		client:     client,
		normalizer: normalizer.New(),
		applicator: applicator,
		staticTags: staticTags,
		logger:     telemetry.NewLogger("backfill"),
		tracer:     otel.Tracer("backfill"),
	}
}

// NewFromConfig creates a sweeper backed by a real CloudTrail client.
func NewFromConfig(ctx context.Context, region string, applicator Applicator, staticTags types.TagSet) (*Sweeper, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(cloudtrail.NewFromConfig(cfg), applicator, staticTags), nil
}

// Sweep looks up every supported creation event in the window and tags the
// resources it finds. Per-event failures drop the event and continue.
func (s *Sweeper) Sweep(ctx context.Context, since time.Duration) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "Sweep")
	defer span.End()

	endTime := time.Now()
	startTime := endTime.Add(-since)

	result := &Result{}
	var aggregate types.TaggingOutcome

	for _, eventName := range normalizer.SupportedEvents() {
		records, err := s.lookupEvents(ctx, eventName, startTime, endTime)
		if err != nil {
			return nil, fmt.Errorf("lookup of %s events failed: %w", eventName, err)
		}
		result.EventsFound += len(records)

		for _, record := range records {
			fact := s.normalizer.Normalize(ctx, extractor.Wrap(record))
			if fact == nil {
				telemetry.RecordEventDropped(ctx)
				continue
			}
			telemetry.RecordEventProcessed(ctx)
			result.FactsMatched++

			aggregate.Append(s.applicator.Apply(ctx, *fact, s.staticTags))
		}
	}

	result.TaggedCount = aggregate.TaggedCount()
	result.FailedCount = aggregate.FailedCount()

	s.logger.WithContext(ctx).Info().
		Int("events_found", result.EventsFound).
		Int("facts_matched", result.FactsMatched).
		Int("tagged", result.TaggedCount).
		Int("failed", result.FailedCount).
		Msg("backfill sweep completed")

	return result, nil
}

// lookupEvents pages through CloudTrail history for one event name,
// dropping failed API calls and records that will not decode.
func (s *Sweeper) lookupEvents(ctx context.Context, eventName string, startTime, endTime time.Time) ([]map[string]any, error) {
	input := &cloudtrail.LookupEventsInput{
		LookupAttributes: []cttypes.LookupAttribute{
			{
				AttributeKey:   cttypes.LookupAttributeKeyEventName,
				AttributeValue: aws.String(eventName),
			},
		},
		StartTime:  &startTime,
		EndTime:    &endTime,
		MaxResults: aws.Int32(50), // max allowed per request
	}

	var records []map[string]any
	for {
		output, err := s.client.LookupEvents(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup CloudTrail events: %w", err)
		}

		for _, event := range output.Events {
			record := decodeEventPayload(aws.ToString(event.CloudTrailEvent))
			if record == nil {
				continue
			}
			if errorCode, _ := record["errorCode"].(string); errorCode != "" {
				continue
			}
			records = append(records, record)
		}

		if output.NextToken == nil || aws.ToString(output.NextToken) == "" {
			break
		}
		input.NextToken = output.NextToken
	}

	return records, nil
}

// decodeEventPayload parses the raw CloudTrail record LookupEvents carries
// as a JSON string.
func decodeEventPayload(payload string) map[string]any {
	if payload == "" {
		return nil
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil
	}
	return record
}
