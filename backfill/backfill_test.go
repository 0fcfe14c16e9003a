package backfill

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/stamp/types"
)

type fakeCloudTrail struct {
	// events keyed by looked-up event name
	events map[string][]string
	calls  []string
}

func (f *fakeCloudTrail) LookupEvents(ctx context.Context, input *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error) {
	eventName := aws.ToString(input.LookupAttributes[0].AttributeValue)
	f.calls = append(f.calls, eventName)

	var events []cttypes.Event
	for _, payload := range f.events[eventName] {
		events = append(events, cttypes.Event{CloudTrailEvent: aws.String(payload)})
	}
	return &cloudtrail.LookupEventsOutput{Events: events}, nil
}

type fakeApplicator struct {
	facts []types.CreationFact
}

func (f *fakeApplicator) Apply(ctx context.Context, fact types.CreationFact, extra types.TagSet) types.TaggingOutcome {
	f.facts = append(f.facts, fact)
	return types.TaggingOutcome{TaggedIDs: fact.ResourceIDs}
}

func recordJSON(t *testing.T, record map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(record)
	require.NoError(t, err)
	return string(payload)
}

func TestSweep(t *testing.T) {
	bucketRecord := recordJSON(t, map[string]any{
		"eventName":   "CreateBucket",
		"eventSource": "s3.amazonaws.com",
		"awsRegion":   "us-east-1",
		"userIdentity": map[string]any{
			"arn": "arn:aws:iam::123456789012:user/alice",
		},
		"requestParameters": map[string]any{"bucketName": "old-bucket"},
	})
	failedRecord := recordJSON(t, map[string]any{
		"eventName": "CreateBucket",
		"errorCode": "BucketAlreadyExists",
	})

	client := &fakeCloudTrail{events: map[string][]string{
		"CreateBucket": {bucketRecord, failedRecord, "not json"},
	}}
	applicator := &fakeApplicator{}
	sweeper := New(client, applicator, types.TagSet{"Environment": "prod"})

	result, err := sweeper.Sweep(context.Background(), time.Hour)
	require.NoError(t, err)

	// One lookup per supported event name
	assert.Len(t, client.calls, 11)
	assert.Contains(t, client.calls, "RunInstances")
	assert.Contains(t, client.calls, "CreateQueue")

	assert.Equal(t, 1, result.EventsFound)
	assert.Equal(t, 1, result.FactsMatched)
	assert.Equal(t, 1, result.TaggedCount)
	assert.Equal(t, 0, result.FailedCount)

	require.Len(t, applicator.facts, 1)
	assert.Equal(t, []string{"old-bucket"}, applicator.facts[0].ResourceIDs)
	assert.Equal(t, "s3", applicator.facts[0].Service)
}

func TestDecodeEventPayload(t *testing.T) {
	assert.Nil(t, decodeEventPayload(""))
	assert.Nil(t, decodeEventPayload("{broken"))
	assert.Equal(t,
		map[string]any{"eventName": "CreateVolume"},
		decodeEventPayload(`{"eventName":"CreateVolume"}`))
}
