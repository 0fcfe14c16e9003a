// Package orchestrator wires one trigger invocation through extraction,
// normalization and tagging, and shapes the structured response.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/stamp/config"
	"github.com/yairfalse/stamp/extractor"
	"github.com/yairfalse/stamp/normalizer"
	"github.com/yairfalse/stamp/telemetry"
	"github.com/yairfalse/stamp/types"
)

// Applicator applies ownership tags for one creation fact.
type Applicator interface {
	Apply(ctx context.Context, fact types.CreationFact, extra types.TagSet) types.TaggingOutcome
}

// Pipeline routes a trigger payload through the event-to-tagging flow.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	extractor  *extractor.Extractor
	applicator Applicator
	fetcher    extractor.LogFetcher
	cfg        *config.Config
	logger     *telemetry.Logger
	tracer     trace.Tracer
}

// New creates a pipeline.
func New(cfg *config.Config, applicator Applicator, fetcher extractor.LogFetcher) *Pipeline {
	return &Pipeline{
		normalizer: normalizer.New(),
		extractor:  extractor.New(),
		applicator: applicator,
		fetcher:    fetcher,
		cfg:        cfg,
		logger:     telemetry.NewLogger("orchestrator"),
		tracer:     otel.Tracer("orchestrator"),
	}
}

// s3Trigger is the S3 bucket-notification shape: a list of object references.
type s3Trigger struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// Handle processes one trigger payload end to end. It always returns a
// structured response; internal faults become a 500 body, never a raised
// error back into the trigger transport.
func (p *Pipeline) Handle(ctx context.Context, payload []byte) (resp Response) {
	invocationID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "Handle",
		trace.WithAttributes(attribute.String("invocation_id", invocationID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithContext(ctx).Error().
				Str("invocation_id", invocationID).
				Interface("panic", r).
				Msg("internal fault")
			resp = respond(http.StatusInternalServerError, ErrorResult{
				Message: "Internal server error",
				Error:   fmt.Sprint(r),
			})
		}
	}()

	var envelope map[string]any
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return respond(http.StatusBadRequest, ErrorResult{
			Message: "Trigger payload is not valid JSON",
			Error:   err.Error(),
		})
	}

	if trigger, ok := sniffS3Trigger(payload, envelope); ok {
		return p.handleBatch(ctx, trigger)
	}

	if _, ok := envelope["detail"]; ok {
		return p.handleSingle(ctx, types.RawEvent(envelope))
	}

	return respond(http.StatusBadRequest, ErrorResult{
		Message: "Trigger shape not recognized",
	})
}

// sniffS3Trigger decides whether the payload is a batch-of-logs trigger.
func sniffS3Trigger(payload []byte, envelope map[string]any) (s3Trigger, bool) {
	if _, ok := envelope["Records"]; !ok {
		return s3Trigger{}, false
	}

	var trigger s3Trigger
	if err := json.Unmarshal(payload, &trigger); err != nil {
		return s3Trigger{}, false
	}

	for _, record := range trigger.Records {
		if record.S3.Bucket.Name != "" {
			return trigger, true
		}
	}
	return s3Trigger{}, false
}

// handleSingle runs the live-event path: normalize, tag, full outcome body.
func (p *Pipeline) handleSingle(ctx context.Context, event types.RawEvent) Response {
	fact := p.normalizer.Normalize(ctx, event)
	if fact == nil {
		telemetry.RecordEventDropped(ctx)
		return respond(http.StatusBadRequest, ErrorResult{
			Message: "Event not supported or could not be parsed",
		})
	}
	telemetry.RecordEventProcessed(ctx)

	outcome := p.applicator.Apply(ctx, *fact, p.additionalTags(event))

	return respond(http.StatusOK, SingleResult{
		Message:         "Resource tagging completed",
		EventName:       fact.EventName,
		Service:         fact.Service,
		ResourceKind:    fact.ResourceKind,
		TaggedCount:     outcome.TaggedCount(),
		FailedCount:     outcome.FailedCount(),
		TaggedResources: outcome.TaggedIDs,
		FailedResources: outcome.Failures,
		Actor:           fact.Actor,
		Timestamp:       fact.EventTime,
	})
}

// handleBatch runs the log-batch path: fetch each object, extract, tag.
// A failed object is logged and skipped; siblings still process.
func (p *Pipeline) handleBatch(ctx context.Context, trigger s3Trigger) Response {
	result := BatchResult{Message: "Log batch processed"}
	var aggregate types.TaggingOutcome

	for _, record := range trigger.Records {
		bucket := record.S3.Bucket.Name
		key := record.S3.Object.Key

		body, err := p.fetchObject(ctx, bucket, key)
		if err != nil {
			p.logger.LogExtractError(ctx, "fetch_log_object", err)
			continue
		}
		result.ObjectsProcessed++
		telemetry.RecordLogObject(ctx)

		events := p.extractor.ExtractRecords(ctx, body)
		p.logger.LogBatchObject(ctx, bucket, key, len(events))

		for _, event := range events {
			fact := p.normalizer.Normalize(ctx, event)
			if fact == nil {
				telemetry.RecordEventDropped(ctx)
				continue
			}
			telemetry.RecordEventProcessed(ctx)
			result.EventsMatched++

			outcome := p.applicator.Apply(ctx, *fact, p.additionalTags(event))
			aggregate.Append(outcome)
		}
	}

	result.TaggedCount = aggregate.TaggedCount()
	result.FailedCount = aggregate.FailedCount()
	return respond(http.StatusOK, result)
}

func (p *Pipeline) fetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if p.fetcher == nil {
		return nil, fmt.Errorf("no log fetcher configured")
	}
	return p.fetcher.FetchObject(ctx, bucket, key)
}

// additionalTags layers the configured static tags with per-event audit
// context: source IP and account ID when the event carries them.
func (p *Pipeline) additionalTags(event types.RawEvent) types.TagSet {
	tags := types.TagSet{}
	for k, v := range p.cfg.StaticTags() {
		tags[k] = v
	}

	if ip := event.DetailString("sourceIPAddress"); ip != "" {
		tags["SourceIP"] = ip
	}

	if detail := event.Detail(); detail != nil {
		if identity, ok := detail["userIdentity"].(map[string]any); ok {
			if accountID, _ := identity["accountId"].(string); accountID != "" {
				tags["AccountId"] = accountID
			}
		}
	}

	return tags
}
