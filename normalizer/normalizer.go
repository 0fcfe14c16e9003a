// Package normalizer distills heterogeneous CloudTrail creation events
// into canonical creation facts via a static per-event schema table.
package normalizer

import (
	"context"
	"fmt"

	"github.com/yairfalse/stamp/telemetry"
	"github.com/yairfalse/stamp/types"
)

// Normalizer converts raw audit events into creation facts.
type Normalizer struct {
	logger *telemetry.Logger
}

// New creates a normalizer.
func New() *Normalizer {
	return &Normalizer{
		logger: telemetry.NewLogger("normalizer"),
	}
}

// Normalize extracts a creation fact from a raw event, or nil when the
// event is unsupported or not parseable. Malformed shapes never error;
// they drop the event.
func (n *Normalizer) Normalize(ctx context.Context, event types.RawEvent) *types.CreationFact {
	detail := event.Detail()
	if detail == nil {
		n.logger.LogEventDropped(ctx, "", "no detail section")
		return nil
	}

	actor := extractActor(detail)
	if actor == "" {
		n.logger.LogEventDropped(ctx, event.DetailString("eventName"), "no actor identity")
		return nil
	}

	eventName, _ := detail["eventName"].(string)
	schema, ok := Lookup(eventName)
	if !ok {
		n.logger.LogEventDropped(ctx, eventName, "unsupported event")
		return nil
	}

	resourceIDs := extractResourceIDs(detail, schema)
	if len(resourceIDs) == 0 {
		n.logger.LogEventDropped(ctx, eventName, "no resource ids")
		return nil
	}

	eventTime, _ := detail["eventTime"].(string)
	region, _ := detail["awsRegion"].(string)

	fact := &types.CreationFact{
		Actor:        actor,
		EventName:    eventName,
		Service:      schema.Service,
		ResourceKind: schema.ResourceKind,
		ResourceIDs:  resourceIDs,
		EventTime:    eventTime,
		Region:       region,
	}

	n.logger.LogFactNormalized(ctx, eventName, schema.Service, actor, len(resourceIDs))
	return fact
}

// extractActor resolves who made the call, trying the identity ARN, the
// synthesized root-account ARN, then the raw principal ID.
func extractActor(detail map[string]any) string {
	identity, _ := detail["userIdentity"].(map[string]any)
	if identity == nil {
		return ""
	}

	if arn, _ := identity["arn"].(string); arn != "" {
		return arn
	}

	if identityType, _ := identity["type"].(string); identityType == "Root" {
		if accountID, _ := identity["accountId"].(string); accountID != "" {
			return fmt.Sprintf("arn:aws:iam::%s:root", accountID)
		}
	}

	// Last resort: the principal ID, possibly a composite
	// "AKIAEXAMPLE:session-name" string. Passed through unparsed.
	principalID, _ := identity["principalId"].(string)
	return principalID
}

// extractResourceIDs walks the schema's path and collects the IDs at its end.
func extractResourceIDs(detail map[string]any, schema Schema) []string {
	value, ok := resolvePath(detail, schema.IDPath)
	if !ok {
		return nil
	}
	return collectIDs(value, schema.IDKey)
}
