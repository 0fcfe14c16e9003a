package types

// CreationFact is the canonical record of "someone created resources".
// It is what the normalizer distills a CloudTrail event down to and the
// only thing the tagger ever sees.
type CreationFact struct {
	Actor        string   `json:"actor"`
	EventName    string   `json:"event_name"`
	Service      string   `json:"service"`
	ResourceKind string   `json:"resource_kind"`
	ResourceIDs  []string `json:"resource_ids"`
	EventTime    string   `json:"event_time,omitempty"`
	Region       string   `json:"region,omitempty"`
}

// RawEvent is one audit record in the EventBridge envelope shape:
// arbitrary nested maps and slices with the CloudTrail record under "detail".
// Produced by the trigger transport or the batch extractor, read-only after.
type RawEvent map[string]any

// Detail returns the CloudTrail record body, or nil if the envelope
// has no detail section.
func (e RawEvent) Detail() map[string]any {
	detail, _ := e["detail"].(map[string]any)
	return detail
}

// DetailString reads a top-level string field out of the detail section.
func (e RawEvent) DetailString(key string) string {
	detail := e.Detail()
	if detail == nil {
		return ""
	}
	s, _ := detail[key].(string)
	return s
}
