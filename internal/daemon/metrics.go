package daemon

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// pollerMetrics holds queue-consumer metrics using OTEL semantic conventions
type pollerMetrics struct {
	messages       metric.Int64Counter
	handleDuration metric.Float64Histogram
}

func newPollerMetrics() (*pollerMetrics, error) {
	meter := otel.Meter("stamp.daemon")

	messages, err := meter.Int64Counter(
		"stamp.daemon.messages",
		metric.WithDescription("Number of queue messages handled"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	handleDuration, err := meter.Float64Histogram(
		"stamp.daemon.handle.duration",
		metric.WithDescription("Duration of message handling"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &pollerMetrics{
		messages:       messages,
		handleDuration: handleDuration,
	}, nil
}

// RecordMessage records one handled message with its response status
func (m *pollerMetrics) RecordMessage(ctx context.Context, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.Int("http.response.status_code", statusCode),
	)
	m.messages.Add(ctx, 1, attrs)
	m.handleDuration.Record(ctx, durationSeconds, attrs)
}
