package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yairfalse/stamp/types"
)

// S3TagAPI is the slice of the S3 client the backend uses.
type S3TagAPI interface {
	PutBucketTagging(ctx context.Context, input *s3.PutBucketTaggingInput, optFns ...func(*s3.Options)) (*s3.PutBucketTaggingOutput, error)
}

// s3Backend tags buckets by name. PutBucketTagging replaces the whole tag
// set, which is what makes re-tagging idempotent.
type s3Backend struct {
	clients *clientCache[S3TagAPI]
}

func newS3Backend(configs *configCache) *s3Backend {
	return &s3Backend{
		clients: newClientCache(func(ctx context.Context, region string) (S3TagAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return s3.NewFromConfig(cfg), nil
		}),
	}
}

func (b *s3Backend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	tagSet := make([]s3types.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		tagSet = append(tagSet, s3types.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	var outcome types.TaggingOutcome
	for _, bucketName := range fact.ResourceIDs {
		_, err := client.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
			Bucket:  aws.String(bucketName),
			Tagging: &s3types.Tagging{TagSet: tagSet},
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: bucketName,
				Error:      errorCode(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, bucketName)
	}

	return outcome
}
