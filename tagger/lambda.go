package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/yairfalse/stamp/types"
)

// LambdaAPI is the slice of the Lambda client the backend uses.
type LambdaAPI interface {
	TagResource(ctx context.Context, input *lambda.TagResourceInput, optFns ...func(*lambda.Options)) (*lambda.TagResourceOutput, error)
}

// lambdaBackend tags functions by the name the creation event carried.
type lambdaBackend struct {
	clients *clientCache[LambdaAPI]
}

func newLambdaBackend(configs *configCache) *lambdaBackend {
	return &lambdaBackend{
		clients: newClientCache(func(ctx context.Context, region string) (LambdaAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return lambda.NewFromConfig(cfg), nil
		}),
	}
}

func (b *lambdaBackend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	var outcome types.TaggingOutcome
	for _, functionName := range fact.ResourceIDs {
		_, err := client.TagResource(ctx, &lambda.TagResourceInput{
			Resource: aws.String(functionName),
			Tags:     tags,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: functionName,
				Error:      errorCodeMessage(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, functionName)
	}

	return outcome
}
