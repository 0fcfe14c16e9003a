// Package daemon runs the tagging pipeline as a long-lived process. It
// long-polls an SQS queue for S3 log-delivery notifications, hands each
// message body to the pipeline, and serves Prometheus metrics and health
// endpoints over HTTP.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yairfalse/stamp/orchestrator"
	"github.com/yairfalse/stamp/telemetry"
)

// SQSAPI is the slice of the SQS client the poller uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, input *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one trigger payload.
type Handler interface {
	Handle(ctx context.Context, payload []byte) orchestrator.Response
}

// Config holds daemon configuration
type Config struct {
	QueueURL    string
	MetricsAddr string
	WaitTime    time.Duration
	Region      string
}

// Daemon manages the SQS poll loop and the metrics server
type Daemon struct {
	client      SQSAPI
	handler     Handler
	queueURL    string
	metricsAddr string
	waitTime    time.Duration
	startTime   time.Time
	processed   atomic.Int64
	metrics     *pollerMetrics
	logger      *telemetry.Logger
}

// New creates a daemon with an injected SQS client.
func New(client SQSAPI, handler Handler, cfg Config) (*Daemon, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("queue URL is required")
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = 20 * time.Second
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":2112"
	}

	metrics, err := newPollerMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create poller metrics: %w", err)
	}

	return &Daemon{
		client:      client,
		handler:     handler,
		queueURL:    cfg.QueueURL,
		metricsAddr: cfg.MetricsAddr,
		waitTime:    cfg.WaitTime,
		startTime:   time.Now(),
		metrics:     metrics,
		logger:      telemetry.NewLogger("daemon"),
	}, nil
}

// NewFromConfig creates a daemon backed by a real SQS client.
func NewFromConfig(ctx context.Context, handler Handler, cfg Config) (*Daemon, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(sqs.NewFromConfig(awsCfg), handler, cfg)
}

// Run starts the poll loop and the metrics server and blocks until the
// context is canceled or either actor fails.
func (d *Daemon) Run(ctx context.Context) error {
	var group run.Group

	pollCtx, cancelPoll := context.WithCancel(ctx)
	group.Add(
		func() error { return d.poll(pollCtx) },
		func(error) { cancelPoll() },
	)

	server := &http.Server{
		Addr:    d.metricsAddr,
		Handler: d.routes(),
	}
	group.Add(
		func() error {
			d.logger.Info().Str("addr", d.metricsAddr).Msg("starting metrics server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		},
	)

	return group.Run()
}

// poll long-polls the queue until the context is canceled. Receive errors
// back off and retry rather than killing the daemon.
func (d *Daemon) poll(ctx context.Context) error {
	d.logger.Info().Str("queue_url", d.queueURL).Msg("starting queue poller")

	for {
		if ctx.Err() != nil {
			return nil
		}

		output, err := d.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(d.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     int32(d.waitTime.Seconds()),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Error().Err(err).Msg("receive failed, backing off")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, message := range output.Messages {
			d.handleMessage(ctx, aws.ToString(message.Body), message.ReceiptHandle)
		}
	}
}

// handleMessage runs one message through the pipeline. Internal faults
// leave the message on the queue for redelivery; everything else deletes
// it, including malformed bodies that would never succeed on retry.
func (d *Daemon) handleMessage(ctx context.Context, body string, receiptHandle *string) {
	start := time.Now()
	response := d.handler.Handle(ctx, []byte(body))
	d.metrics.RecordMessage(ctx, response.StatusCode, time.Since(start).Seconds())
	d.processed.Add(1)

	if response.StatusCode == http.StatusInternalServerError {
		d.logger.Warn().Int("status", response.StatusCode).Msg("leaving message for redelivery")
		return
	}

	_, err := d.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(d.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to delete message")
	}
}

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/health", d.serveHealth)
	mux.HandleFunc("/-/healthy", d.serveHealth)
	mux.HandleFunc("/-/ready", d.serveHealth)
	return mux
}

func metricsHandler() http.Handler {
	if telemetry.PrometheusRegistry != nil {
		return promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

func (d *Daemon) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d.Health())
}

// Health returns daemon health status
func (d *Daemon) Health() HealthStatus {
	return HealthStatus{
		Status:            "healthy",
		Uptime:            int64(time.Since(d.startTime).Seconds()),
		MessagesProcessed: d.processed.Load(),
	}
}

// HealthStatus represents daemon health
type HealthStatus struct {
	Status            string `json:"status"`
	Uptime            int64  `json:"uptime_seconds"`
	MessagesProcessed int64  `json:"messages_processed"`
}
