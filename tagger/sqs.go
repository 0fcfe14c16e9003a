package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/yairfalse/stamp/types"
)

// SQSAPI is the slice of the SQS client the backend uses.
type SQSAPI interface {
	TagQueue(ctx context.Context, input *sqs.TagQueueInput, optFns ...func(*sqs.Options)) (*sqs.TagQueueOutput, error)
}

// sqsBackend tags queues by the URL CreateQueue reported.
type sqsBackend struct {
	clients *clientCache[SQSAPI]
}

func newSQSBackend(configs *configCache) *sqsBackend {
	return &sqsBackend{
		clients: newClientCache(func(ctx context.Context, region string) (SQSAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return sqs.NewFromConfig(cfg), nil
		}),
	}
}

func (b *sqsBackend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	var outcome types.TaggingOutcome
	for _, queueURL := range fact.ResourceIDs {
		_, err := client.TagQueue(ctx, &sqs.TagQueueInput{
			QueueUrl: aws.String(queueURL),
			Tags:     tags,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: queueURL,
				Error:      errorCodeMessage(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, queueURL)
	}

	return outcome
}
