package extractor

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// LogFetcher retrieves a raw log object body. The pipeline depends only on
// this contract; timeouts and retries belong to the implementation's SDK.
type LogFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3API is the slice of the S3 client the log source uses.
type S3API interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3LogSource fetches CloudTrail log objects from S3.
type S3LogSource struct {
	client S3API
}

// NewS3LogSource creates a log source backed by a real S3 client.
func NewS3LogSource(ctx context.Context, region string) (*S3LogSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3LogSource{client: s3.NewFromConfig(cfg)}, nil
}

// NewS3LogSourceWithClient creates a log source with an injected client.
func NewS3LogSourceWithClient(client S3API) *S3LogSource {
	return &S3LogSource{client: client}
}

// FetchObject downloads one object body.
func (s *S3LogSource) FetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = output.Body.Close() }()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}

	return body, nil
}

var _ LogFetcher = (*S3LogSource)(nil)
