package telemetry

import "context"

// Nil-safe recording helpers. Instruments exist only after InitOTEL; the
// Lambda cold path and unit tests run without it.

// RecordEventProcessed counts one normalized creation event.
func RecordEventProcessed(ctx context.Context) {
	if EventsProcessed != nil {
		EventsProcessed.Add(ctx, 1)
	}
}

// RecordEventDropped counts one unsupported or malformed event.
func RecordEventDropped(ctx context.Context) {
	if EventsDropped != nil {
		EventsDropped.Add(ctx, 1)
	}
}

// RecordTagging counts a tagging pass outcome and its duration.
func RecordTagging(ctx context.Context, tagged, failed int, seconds float64) {
	if ResourcesTagged != nil {
		ResourcesTagged.Add(ctx, int64(tagged))
	}
	if ResourcesFailed != nil {
		ResourcesFailed.Add(ctx, int64(failed))
	}
	if TagDuration != nil {
		TagDuration.Record(ctx, seconds)
	}
}

// RecordLogObject counts one parsed CloudTrail log object.
func RecordLogObject(ctx context.Context) {
	if LogObjectsParsed != nil {
		LogObjectsParsed.Add(ctx, 1)
	}
}
