package types

// TagFailure records one resource the backend refused to tag.
type TagFailure struct {
	ResourceID string `json:"resource_id"`
	Error      string `json:"error"`
}

// TaggingOutcome is the per-fact result of a tagging pass. Resources are
// tagged independently, so partial success is normal operation, not an
// error state.
type TaggingOutcome struct {
	TaggedIDs []string     `json:"tagged_resources"`
	Failures  []TagFailure `json:"failed_resources"`
}

// Append folds another outcome into this one, preserving order.
func (o *TaggingOutcome) Append(other TaggingOutcome) {
	o.TaggedIDs = append(o.TaggedIDs, other.TaggedIDs...)
	o.Failures = append(o.Failures, other.Failures...)
}

// TaggedCount returns how many resources were tagged.
func (o TaggingOutcome) TaggedCount() int { return len(o.TaggedIDs) }

// FailedCount returns how many resources failed.
func (o TaggingOutcome) FailedCount() int { return len(o.Failures) }

// AllFailed builds an outcome where every resource carries the same error.
func AllFailed(resourceIDs []string, errMsg string) TaggingOutcome {
	outcome := TaggingOutcome{}
	for _, id := range resourceIDs {
		outcome.Failures = append(outcome.Failures, TagFailure{
			ResourceID: id,
			Error:      errMsg,
		})
	}
	return outcome
}
