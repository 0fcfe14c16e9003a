package tagger

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/yairfalse/stamp/types"
)

// RDSAPI is the slice of the RDS client the backend uses.
type RDSAPI interface {
	AddTagsToResource(ctx context.Context, input *rds.AddTagsToResourceInput, optFns ...func(*rds.Options)) (*rds.AddTagsToResourceOutput, error)
}

// rdsBackend tags DB instances and clusters. AddTagsToResource wants an
// ARN, which has to be synthesized here: the account segment is not known
// at this layer, and RDS accepts a wildcard in its place.
type rdsBackend struct {
	clients *clientCache[RDSAPI]
}

func newRDSBackend(configs *configCache) *rdsBackend {
	return &rdsBackend{
		clients: newClientCache(func(ctx context.Context, region string) (RDSAPI, error) {
			cfg, err := configs.get(ctx, region)
			if err != nil {
				return nil, err
			}
			return rds.NewFromConfig(cfg), nil
		}),
	}
}

// rdsARN builds the tagging ARN for one RDS resource.
func rdsARN(region, resourceKind, resourceID string) string {
	switch resourceKind {
	case "db":
		return fmt.Sprintf("arn:aws:rds:%s:*:db:%s", region, resourceID)
	case "cluster":
		return fmt.Sprintf("arn:aws:rds:%s:*:cluster:%s", region, resourceID)
	default:
		return resourceID
	}
}

func (b *rdsBackend) tag(ctx context.Context, region string, fact types.CreationFact, tags types.TagSet) types.TaggingOutcome {
	client, err := b.clients.get(ctx, region)
	if err != nil {
		return types.AllFailed(fact.ResourceIDs, errorCode(err))
	}

	tagList := make([]rdstypes.Tag, 0, len(tags))
	for _, key := range sortedKeys(tags) {
		tagList = append(tagList, rdstypes.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}

	var outcome types.TaggingOutcome
	for _, resourceID := range fact.ResourceIDs {
		_, err := client.AddTagsToResource(ctx, &rds.AddTagsToResourceInput{
			ResourceName: aws.String(rdsARN(region, fact.ResourceKind, resourceID)),
			Tags:         tagList,
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, types.TagFailure{
				ResourceID: resourceID,
				Error:      errorCodeMessage(err),
			})
			continue
		}
		outcome.TaggedIDs = append(outcome.TaggedIDs, resourceID)
	}

	return outcome
}
