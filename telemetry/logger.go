package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for pipeline operations

func (l *Logger) LogEventDropped(ctx context.Context, eventName, reason string) {
	l.WithContext(ctx).Debug().
		Str("event_name", eventName).
		Str("reason", reason).
		Msg("event dropped")
}

func (l *Logger) LogFactNormalized(ctx context.Context, eventName, service, actor string, resourceCount int) {
	l.WithContext(ctx).Info().
		Str("event_name", eventName).
		Str("service", service).
		Str("actor", actor).
		Int("resource_count", resourceCount).
		Msg("creation event normalized")
}

func (l *Logger) LogTaggingOutcome(ctx context.Context, service string, tagged, failed int) {
	event := l.WithContext(ctx).Info()
	if failed > 0 {
		event = l.WithContext(ctx).Warn()
	}
	event.
		Str("service", service).
		Int("tagged", tagged).
		Int("failed", failed).
		Msg("tagging completed")
}

func (l *Logger) LogBatchObject(ctx context.Context, bucket, key string, matched int) {
	l.WithContext(ctx).Info().
		Str("bucket", bucket).
		Str("key", key).
		Int("matched", matched).
		Msg("processed log object")
}

func (l *Logger) LogExtractError(ctx context.Context, operation string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("operation", operation).
		Msg("batch extraction failed")
}
