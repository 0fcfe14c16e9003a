package daemon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPollerMetrics(t *testing.T) {
	metrics, err := newPollerMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)

	// No-op meter provider in tests, recording must still be safe.
	metrics.RecordMessage(context.Background(), 200, 0.05)
	metrics.RecordMessage(context.Background(), 500, 1.2)
}
