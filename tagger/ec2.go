package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/stamp/types"
)

// EC2API is the slice of the EC2 client the backend uses.
type EC2API interface {
	CreateTags(ctx context.Context, input *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// ec2Backend tags instances, volumes, snapshots and security groups.
// CreateTags addresses all of them directly by resource ID.
type ec2Backend struct {
	clients *clientCache[EC2API]
}

func newEC2Backend(configs *configCache) *ec2Backend {
	return &ec2Backend{
		clients: newClientCache(func(ctx context.Context, region string) (EC2API, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return ec2.NewFromConfig(cfg), nil
		}),
	}
}

func (b *ec2Backend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	tagList := make([]ec2types.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		tagList = append(tagList, ec2types.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	var outcome types.TaggingOutcome
	for _, resourceID := range fact.ResourceIDs {
		_, err := client.CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: []string{resourceID},
			Tags:      tagList,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: resourceID,
				Error:      errorCode(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, resourceID)
	}

	return outcome
}
