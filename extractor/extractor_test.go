package extractor

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gzipLog builds a gzipped CloudTrail log object from records.
func gzipLog(t *testing.T, records []map[string]any) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{"Records": records})
	require.NoError(t, err)

	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	_, err = writer.Write(body)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestExtractRecordsFiltering(t *testing.T) {
	records := []map[string]any{
		{
			"eventID":     "evt-1",
			"eventName":   "CreateBucket",
			"eventSource": "s3.amazonaws.com",
			"eventTime":   "2024-01-15T10:30:00Z",
			"awsRegion":   "us-east-1",
			"userIdentity": map[string]any{
				"arn": "arn:aws:iam::123456789012:user/test",
			},
			"requestParameters": map[string]any{
				"bucketName": "my-bucket",
			},
			"recipientAccountId": "123456789012",
		},
		{
			// Failed call: never tagged
			"eventID":     "evt-2",
			"eventName":   "CreateBucket",
			"eventSource": "s3.amazonaws.com",
			"errorCode":   "BucketAlreadyExists",
		},
		{
			// Not a creation event
			"eventID":     "evt-3",
			"eventName":   "DeleteBucket",
			"eventSource": "s3.amazonaws.com",
		},
	}

	events := New().ExtractRecords(context.Background(), gzipLog(t, records))

	require.Len(t, events, 1)
	assert.Equal(t, "CreateBucket", events[0].DetailString("eventName"))
	assert.Equal(t, "aws.s3", events[0]["source"])
	assert.Equal(t, "AWS API Call via CloudTrail", events[0]["detail-type"])
	assert.Equal(t, "evt-1", events[0]["id"])
	assert.Equal(t, "123456789012", events[0]["account"])
	assert.Equal(t, "us-east-1", events[0]["region"])
}

func TestExtractRecordsEnvelopeFeedsNormalizer(t *testing.T) {
	records := []map[string]any{
		{
			"eventID":     "evt-ec2",
			"eventName":   "RunInstances",
			"eventSource": "ec2.amazonaws.com",
			"awsRegion":   "eu-central-1",
			"userIdentity": map[string]any{
				"arn": "arn:aws:iam::123456789012:role/deployer",
			},
			"responseElements": map[string]any{
				"instancesSet": map[string]any{
					"items": []any{
						map[string]any{"instanceId": "i-abc"},
					},
				},
			},
		},
	}

	events := New().ExtractRecords(context.Background(), gzipLog(t, records))

	require.Len(t, events, 1)
	detail := events[0].Detail()
	require.NotNil(t, detail)
	assert.Equal(t, "RunInstances", detail["eventName"])
	assert.Equal(t, "eu-central-1", detail["awsRegion"])
}

func TestExtractRecordsCorruptInput(t *testing.T) {
	e := New()
	ctx := context.Background()

	t.Run("not gzip", func(t *testing.T) {
		assert.Empty(t, e.ExtractRecords(ctx, []byte("plain text")))
	})

	t.Run("gzip of invalid json", func(t *testing.T) {
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		_, _ = writer.Write([]byte("{not json"))
		_ = writer.Close()

		assert.Empty(t, e.ExtractRecords(ctx, buf.Bytes()))
	})

	t.Run("empty records", func(t *testing.T) {
		assert.Empty(t, e.ExtractRecords(ctx, gzipLog(t, nil)))
	})
}

type fakeS3 struct {
	body string
	err  error
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestS3LogSourceFetchObject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		source := NewS3LogSourceWithClient(&fakeS3{body: "log-bytes"})

		body, err := source.FetchObject(context.Background(), "trail-bucket", "AWSLogs/x.json.gz")

		require.NoError(t, err)
		assert.Equal(t, []byte("log-bytes"), body)
	})

	t.Run("client error", func(t *testing.T) {
		source := NewS3LogSourceWithClient(&fakeS3{err: errors.New("AccessDenied")})

		_, err := source.FetchObject(context.Background(), "trail-bucket", "key")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "trail-bucket")
	})
}
