package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/yairfalse/stamp/types"
)

// SNSAPI is the slice of the SNS client the backend uses.
type SNSAPI interface {
	TagResource(ctx context.Context, input *sns.TagResourceInput, optFns ...func(*sns.Options)) (*sns.TagResourceOutput, error)
}

// snsBackend tags topics. CreateTopic already reports the topic ARN, so
// the ID is used verbatim.
type snsBackend struct {
	clients *clientCache[SNSAPI]
}

func newSNSBackend(configs *configCache) *snsBackend {
	return &snsBackend{
		clients: newClientCache(func(ctx context.Context, region string) (SNSAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return sns.NewFromConfig(cfg), nil
		}),
	}
}

func (b *snsBackend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	tagList := make([]snstypes.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		tagList = append(tagList, snstypes.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	var outcome types.TaggingOutcome
	for _, topicARN := range fact.ResourceIDs {
		_, err := client.TagResource(ctx, &sns.TagResourceInput{
			ResourceArn: aws.String(topicARN),
			Tags:        tagList,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: topicARN,
				Error:      errorCodeMessage(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, topicARN)
	}

	return outcome
}
