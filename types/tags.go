package types

import "time"

// Tag keys stamped onto every resource.
const (
	TagCreatedBy   = "CreatedBy"
	TagCreatedDate = "CreatedDate"
	TagManagedBy   = "ManagedBy"

	// ManagedByValue marks resources tagged by stamp.
	ManagedByValue = "auto-tagger"
)

// TagSet is the key/value collection written to a resource.
// AWS tag collections are unordered sets, so a map is the honest shape.
type TagSet map[string]string

// BuildTags assembles the effective tag set for one tagging pass:
// the three ownership defaults layered under the caller's extras.
// Extras win on key collision.
func BuildTags(actor string, extra TagSet) TagSet {
	tags := TagSet{
		TagCreatedBy:   actor,
		TagCreatedDate: time.Now().UTC().Format(time.RFC3339),
		TagManagedBy:   ManagedByValue,
	}
	for k, v := range extra {
		tags[k] = v
	}
	return tags
}

// Merge layers other on top of t and returns t. Nil-safe on other.
func (t TagSet) Merge(other TagSet) TagSet {
	for k, v := range other {
		t[k] = v
	}
	return t
}
