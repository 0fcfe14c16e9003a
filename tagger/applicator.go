// Package tagger applies ownership tags to freshly created resources,
// dispatching each creation fact to its service backend.
package tagger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/stamp/telemetry"
	"github.com/yairfalse/stamp/types"
)

// backend tags every resource of one fact in one service. Implementations
// must treat resources independently: one failure never aborts siblings.
type backend interface {
	tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome
}

// Applicator routes creation facts to service backends. The backend map is
// built once and is the single source of truth for which services are
// supported; service whitelist and dispatch cannot drift apart.
type Applicator struct {
	defaultRegion string
	backends      map[string]backend
	logger        *telemetry.Logger
	tracer        trace.Tracer
}

// New creates an applicator with real AWS backends. Clients are built
// lazily per (service, region) on first use and reused after.
func New(defaultRegion string) *Applicator {
	configs := newConfigCache()
	return newWithBackends(defaultRegion, map[string]backend{
		"ec2":      newEC2Backend(configs),
		"s3":       newS3Backend(configs),
		"rds":      newRDSBackend(configs),
		"lambda":   newLambdaBackend(configs),
		"dynamodb": newDynamoDBBackend(configs),
		"sns":      newSNSBackend(configs),
		"sqs":      newSQSBackend(configs),
	})
}

func newWithBackends(defaultRegion string, backends map[string]backend) *Applicator {
	return &Applicator{
		defaultRegion: defaultRegion,
		backends:      backends,
		logger:        telemetry.NewLogger("tagger"),
		tracer:        otel.Tracer("tagger"),
	}
}

// Apply tags every resource in the fact and aggregates the per-resource
// results. Partial success is the steady state under throttling or
// permission errors; nothing rolls back.
func (a *Applicator) Apply(ctx context.Context, fact types.CreationFact, extra types.TagSet) types.TaggingOutcome {
	ctx, span := a.tracer.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("service", fact.Service),
			attribute.Int("resource_count", len(fact.ResourceIDs)),
		))
	defer span.End()

	b, ok := a.backends[fact.Service]
	if !ok {
		a.logger.WithContext(ctx).Warn().
			Str("service", fact.Service).
			Msg("unsupported service")
		return types.AllFailed(fact.ResourceIDs, ErrUnsupportedService)
	}

	region := fact.Region
	if region == "" {
		region = a.defaultRegion
	}

	tags := types.BuildTags(fact.Actor, extra)

	start := time.Now()
	outcome := b.tag(ctx, region, fact, tags)
	telemetry.RecordTagging(ctx, outcome.TaggedCount(), outcome.FailedCount(), time.Since(start).Seconds())

	a.logger.LogTaggingOutcome(ctx, fact.Service, outcome.TaggedCount(), outcome.FailedCount())
	return outcome
}

// SupportedServices returns the backend set, for diagnostics.
func (a *Applicator) SupportedServices() []string {
	services := make([]string, 0, len(a.backends))
	for service := range a.backends {
		services = append(services, service)
	}
	return services
}
