package orchestrator

import (
	"encoding/json"

	"github.com/yairfalse/stamp/types"
)

// Response is the structured result handed back to the trigger transport.
// Mirrors the API-gateway shape: a status code and a JSON body.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// SingleResult is the body of a single-event invocation.
type SingleResult struct {
	Message         string             `json:"message"`
	EventName       string             `json:"event_name"`
	Service         string             `json:"service"`
	ResourceKind    string             `json:"resource_kind"`
	TaggedCount     int                `json:"tagged_count"`
	FailedCount     int                `json:"failed_count"`
	TaggedResources []string           `json:"tagged_resources"`
	FailedResources []types.TagFailure `json:"failed_resources"`
	Actor           string             `json:"actor"`
	Timestamp       string             `json:"timestamp,omitempty"`
}

// BatchResult is the body of a log-batch invocation: aggregate counts only.
type BatchResult struct {
	Message          string `json:"message"`
	ObjectsProcessed int    `json:"objects_processed"`
	EventsMatched    int    `json:"events_matched"`
	TaggedCount      int    `json:"tagged_count"`
	FailedCount      int    `json:"failed_count"`
}

// ErrorResult is the body of a rejected or failed invocation.
type ErrorResult struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// respond marshals a body into a Response. Marshal failure of our own
// types would be a defect; fall back to a bare message.
func respond(statusCode int, body any) Response {
	encoded, err := json.Marshal(body)
	if err != nil {
		return Response{StatusCode: statusCode, Body: `{"message":"encoding failure"}`}
	}
	return Response{StatusCode: statusCode, Body: string(encoded)}
}
