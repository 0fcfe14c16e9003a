package tagger

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yairfalse/stamp/types"
)

// DynamoDBAPI is the slice of the DynamoDB client the backend uses.
type DynamoDBAPI interface {
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	TagResource(ctx context.Context, input *dynamodb.TagResourceInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TagResourceOutput, error)
}

// dynamodbBackend tags tables. TagResource only takes an ARN, so each
// table name costs an extra DescribeTable round-trip first. That asymmetry
// is the DynamoDB API, not a choice made here.
type dynamodbBackend struct {
	clients *clientCache[DynamoDBAPI]
}

func newDynamoDBBackend(configs *configCache) *dynamodbBackend {
	return &dynamodbBackend{
		clients: newClientCache(func(ctx context.Context, region string) (DynamoDBAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return dynamodb.NewFromConfig(cfg), nil
		}),
	}
}

func (b *dynamodbBackend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	tagList := make([]ddbtypes.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		tagList = append(tagList, ddbtypes.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	var outcome types.TaggingOutcome
	for _, tableName := range fact.ResourceIDs {
		arn, err := b.resolveTableARN(ctx, client, tableName)
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: tableName,
				Error:      errorCodeMessage(err),
			})
			continue
		}

		_, err = client.TagResource(ctx, &dynamodb.TagResourceInput{
			ResourceArn: aws.String(arn),
			Tags:        tagList,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: tableName,
				Error:      errorCodeMessage(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, tableName)
	}

	return outcome
}

func (b *dynamodbBackend) resolveTableARN(ctx context.Context, client DynamoDBAPI, tableName string) (string, error) {
	output, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(output.Table.TableArn), nil
}
