package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTELHookAddsTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(OTELHook{})
	logger.Info().Ctx(ctx).Msg("hello")

	output := buf.String()
	assert.Contains(t, output, "trace_id")
	assert.Contains(t, output, "span_id")
	assert.Contains(t, output, span.SpanContext().TraceID().String())
}

func TestOTELHookNoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Hook(OTELHook{})
	logger.Info().Ctx(context.Background()).Msg("hello")

	output := buf.String()
	assert.NotContains(t, output, "trace_id")
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	require.NotNil(t, logger)

	ctxLogger := logger.WithContext(context.Background())
	require.NotNil(t, ctxLogger)
}

func TestInitOTELWithoutCollector(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	shutdown, err := InitOTEL(context.Background(), Config{
		ServiceName:    "stamp-test",
		ServiceVersion: "0.0.0",
		Environment:    "test",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	defer func() { _ = shutdown(context.Background()) }()

	assert.NotNil(t, PrometheusRegistry)
	assert.NotNil(t, EventsProcessed)
	assert.NotNil(t, ResourcesTagged)
	assert.NotNil(t, TagDuration)
}
