package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/stamp/orchestrator"
)

type fakeSQS struct {
	mu      sync.Mutex
	batches [][]sqstypes.Message
	deleted []string
	onDrain func()
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, input *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		if f.onDrain != nil {
			f.onDrain()
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(input.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type fakeHandler struct {
	mu        sync.Mutex
	payloads  []string
	responses map[string]orchestrator.Response
}

func (f *fakeHandler) Handle(ctx context.Context, payload []byte) orchestrator.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, string(payload))
	if response, ok := f.responses[string(payload)]; ok {
		return response
	}
	return orchestrator.Response{StatusCode: http.StatusOK, Body: "{}"}
}

func message(body, receiptHandle string) sqstypes.Message {
	return sqstypes.Message{
		Body:          aws.String(body),
		ReceiptHandle: aws.String(receiptHandle),
	}
}

func TestNew(t *testing.T) {
	daemon, err := New(&fakeSQS{}, &fakeHandler{}, Config{
		QueueURL: "https://sqs.us-east-1.amazonaws.com/123456789012/trail-notifications",
	})
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, daemon.waitTime)
	assert.Equal(t, ":2112", daemon.metricsAddr)
}

func TestNewRequiresQueueURL(t *testing.T) {
	_, err := New(&fakeSQS{}, &fakeHandler{}, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue URL")
}

func TestPollDeletesHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		batches: [][]sqstypes.Message{
			{message(`{"some":"payload"}`, "receipt-1")},
		},
		onDrain: cancel,
	}
	handler := &fakeHandler{}

	daemon, err := New(client, handler, Config{QueueURL: "https://example/queue"})
	require.NoError(t, err)

	require.NoError(t, daemon.poll(ctx))

	assert.Equal(t, []string{`{"some":"payload"}`}, handler.payloads)
	assert.Equal(t, []string{"receipt-1"}, client.deleted)
	assert.Equal(t, int64(1), daemon.processed.Load())
}

func TestPollDeletesRejectedMessages(t *testing.T) {
	// A 400 means the body will never parse, so redelivery is pointless.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		batches: [][]sqstypes.Message{
			{message("not json", "receipt-1")},
		},
		onDrain: cancel,
	}
	handler := &fakeHandler{responses: map[string]orchestrator.Response{
		"not json": {StatusCode: http.StatusBadRequest},
	}}

	daemon, err := New(client, handler, Config{QueueURL: "https://example/queue"})
	require.NoError(t, err)

	require.NoError(t, daemon.poll(ctx))

	assert.Equal(t, []string{"receipt-1"}, client.deleted)
}

func TestPollKeepsMessagesOnInternalFault(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeSQS{
		batches: [][]sqstypes.Message{
			{message("boom", "receipt-1")},
		},
		onDrain: cancel,
	}
	handler := &fakeHandler{responses: map[string]orchestrator.Response{
		"boom": {StatusCode: http.StatusInternalServerError},
	}}

	daemon, err := New(client, handler, Config{QueueURL: "https://example/queue"})
	require.NoError(t, err)

	require.NoError(t, daemon.poll(ctx))

	assert.Equal(t, []string{"boom"}, handler.payloads)
	assert.Empty(t, client.deleted)
}

func TestHealth(t *testing.T) {
	daemon, err := New(&fakeSQS{}, &fakeHandler{}, Config{QueueURL: "https://example/queue"})
	require.NoError(t, err)

	daemon.processed.Add(3)

	health := daemon.Health()
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, int64(3), health.MessagesProcessed)
	assert.GreaterOrEqual(t, health.Uptime, int64(0))
}

func TestHTTPEndpoints(t *testing.T) {
	daemon, err := New(&fakeSQS{}, &fakeHandler{}, Config{QueueURL: "https://example/queue"})
	require.NoError(t, err)

	server := httptest.NewServer(daemon.routes())
	defer server.Close()

	for _, path := range []string{"/health", "/-/healthy", "/-/ready", "/metrics"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}
