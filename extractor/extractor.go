// Package extractor turns compressed CloudTrail log objects into the raw
// event envelopes the normalizer consumes.
package extractor

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yairfalse/stamp/normalizer"
	"github.com/yairfalse/stamp/telemetry"
	"github.com/yairfalse/stamp/types"
)

// logDocument is the CloudTrail log file layout: {"Records": [...]}.
type logDocument struct {
	Records []map[string]any `json:"Records"`
}

// Extractor filters CloudTrail log batches down to taggable creation events.
type Extractor struct {
	logger *telemetry.Logger
}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{
		logger: telemetry.NewLogger("extractor"),
	}
}

// ExtractRecords decompresses and parses one gzipped CloudTrail log object
// and returns the surviving creation events, rewrapped in the EventBridge
// envelope. A corrupt object yields an empty slice, never an error: one bad
// log file must not sink the rest of the trigger.
func (e *Extractor) ExtractRecords(ctx context.Context, compressed []byte) []types.RawEvent {
	records, err := decodeLogObject(compressed)
	if err != nil {
		e.logger.LogExtractError(ctx, "decode_log_object", err)
		return nil
	}

	var events []types.RawEvent
	for _, record := range records {
		eventName, _ := record["eventName"].(string)
		if !normalizer.Supported(eventName) {
			continue
		}

		// Failed API calls never created anything
		if errorCode, _ := record["errorCode"].(string); errorCode != "" {
			e.logger.LogEventDropped(ctx, eventName, "error code "+errorCode)
			continue
		}

		events = append(events, Wrap(record))
	}

	return events
}

// decodeLogObject gunzips and unmarshals a CloudTrail log file body.
func decodeLogObject(compressed []byte) ([]map[string]any, error) {
	reader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer func() { _ = reader.Close() }()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress log object: %w", err)
	}

	var doc logDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse log object: %w", err)
	}

	return doc.Records, nil
}

// Wrap rewraps a raw CloudTrail record into the EventBridge envelope so
// every ingestion path feeds the same normalizer.
func Wrap(record map[string]any) types.RawEvent {
	eventSource, _ := record["eventSource"].(string)
	servicePrefix, _, _ := strings.Cut(eventSource, ".")

	return types.RawEvent{
		"version":     "0",
		"id":          record["eventID"],
		"detail-type": "AWS API Call via CloudTrail",
		"source":      "aws." + servicePrefix,
		"account":     record["recipientAccountId"],
		"time":        record["eventTime"],
		"region":      record["awsRegion"],
		"detail":      record,
	}
}
