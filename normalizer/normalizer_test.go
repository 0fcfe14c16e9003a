package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/stamp/types"
)

func testIdentity() map[string]any {
	return map[string]any{
		"arn": "arn:aws:iam::123456789012:user/test-user",
	}
}

// eventForSchema builds a minimal well-formed raw event for one schema entry.
func eventForSchema(eventName string, schema Schema) types.RawEvent {
	var terminal any = "resource-id-1"
	if schema.IDKey != "" {
		terminal = []any{
			map[string]any{schema.IDKey: "resource-id-1"},
		}
	}

	// Build the nested detail from the inside out
	node := terminal
	for i := len(schema.IDPath) - 1; i >= 1; i-- {
		node = map[string]any{schema.IDPath[i]: node}
	}

	detail := map[string]any{
		"eventName":    eventName,
		"userIdentity": testIdentity(),
		"eventTime":    "2024-01-15T10:30:00Z",
		"awsRegion":    "us-east-1",
		schema.IDPath[0]: node,
	}
	return types.RawEvent{"detail": detail}
}

func TestNormalizeEverySupportedEvent(t *testing.T) {
	n := New()
	ctx := context.Background()

	for _, eventName := range SupportedEvents() {
		t.Run(eventName, func(t *testing.T) {
			schema, ok := Lookup(eventName)
			require.True(t, ok)

			fact := n.Normalize(ctx, eventForSchema(eventName, schema))

			require.NotNil(t, fact)
			assert.Equal(t, eventName, fact.EventName)
			assert.Equal(t, schema.Service, fact.Service)
			assert.Equal(t, schema.ResourceKind, fact.ResourceKind)
			assert.Equal(t, []string{"resource-id-1"}, fact.ResourceIDs)
			assert.Equal(t, "us-east-1", fact.Region)
			assert.Equal(t, "2024-01-15T10:30:00Z", fact.EventTime)
			assert.Equal(t, "arn:aws:iam::123456789012:user/test-user", fact.Actor)
		})
	}
}

func TestNormalizeRunInstancesMultiple(t *testing.T) {
	event := types.RawEvent{
		"detail": map[string]any{
			"eventName":    "RunInstances",
			"userIdentity": testIdentity(),
			"responseElements": map[string]any{
				"instancesSet": map[string]any{
					"items": []any{
						map[string]any{"instanceId": "i-0123456789abcdef0"},
						map[string]any{"instanceId": "i-0abcdef0123456789"},
					},
				},
			},
			"eventTime": "2024-01-15T10:30:00Z",
			"awsRegion": "eu-west-1",
		},
	}

	fact := New().Normalize(context.Background(), event)

	require.NotNil(t, fact)
	assert.Equal(t, "ec2", fact.Service)
	assert.Equal(t, "instance", fact.ResourceKind)
	assert.Equal(t, []string{"i-0123456789abcdef0", "i-0abcdef0123456789"}, fact.ResourceIDs)
}

func TestNormalizeUnknownEvent(t *testing.T) {
	event := types.RawEvent{
		"detail": map[string]any{
			"eventName":    "DeleteBucket",
			"userIdentity": testIdentity(),
			"requestParameters": map[string]any{
				"bucketName": "doomed-bucket",
			},
		},
	}

	assert.Nil(t, New().Normalize(context.Background(), event))
}

func TestNormalizeNoIdentity(t *testing.T) {
	event := types.RawEvent{
		"detail": map[string]any{
			"eventName":    "CreateBucket",
			"userIdentity": map[string]any{},
			"requestParameters": map[string]any{
				"bucketName": "my-bucket",
			},
		},
	}

	assert.Nil(t, New().Normalize(context.Background(), event))
}

func TestNormalizeRootIdentity(t *testing.T) {
	event := types.RawEvent{
		"detail": map[string]any{
			"eventName": "CreateVolume",
			"userIdentity": map[string]any{
				"type":      "Root",
				"accountId": "123456789012",
			},
			"responseElements": map[string]any{
				"volumeId": "vol-049df61146c4d7901",
			},
		},
	}

	fact := New().Normalize(context.Background(), event)

	require.NotNil(t, fact)
	assert.Equal(t, "arn:aws:iam::123456789012:root", fact.Actor)
}

func TestNormalizePrincipalIDFallback(t *testing.T) {
	event := types.RawEvent{
		"detail": map[string]any{
			"eventName": "CreateBucket",
			"userIdentity": map[string]any{
				"principalId": "AIDAI23HXD2O7EXAMPLE:session-name",
			},
			"requestParameters": map[string]any{
				"bucketName": "session-bucket",
			},
		},
	}

	fact := New().Normalize(context.Background(), event)

	require.NotNil(t, fact)
	// Composite principal IDs are accepted verbatim
	assert.Equal(t, "AIDAI23HXD2O7EXAMPLE:session-name", fact.Actor)
}

func TestNormalizeMalformedShapes(t *testing.T) {
	tests := []struct {
		name  string
		event types.RawEvent
	}{
		{
			name:  "no detail",
			event: types.RawEvent{"source": "aws.ec2"},
		},
		{
			name: "path through wrong type",
			event: types.RawEvent{
				"detail": map[string]any{
					"eventName":        "CreateVolume",
					"userIdentity":     testIdentity(),
					"responseElements": "not-a-map",
				},
			},
		},
		{
			name: "terminal value empty",
			event: types.RawEvent{
				"detail": map[string]any{
					"eventName":    "CreateBucket",
					"userIdentity": testIdentity(),
					"requestParameters": map[string]any{
						"bucketName": "",
					},
				},
			},
		},
		{
			name: "terminal value wrong type",
			event: types.RawEvent{
				"detail": map[string]any{
					"eventName":    "CreateBucket",
					"userIdentity": testIdentity(),
					"requestParameters": map[string]any{
						"bucketName": float64(42),
					},
				},
			},
		},
		{
			name: "sequence elements missing id key",
			event: types.RawEvent{
				"detail": map[string]any{
					"eventName":    "RunInstances",
					"userIdentity": testIdentity(),
					"responseElements": map[string]any{
						"instancesSet": map[string]any{
							"items": []any{
								map[string]any{"imageId": "ami-12345678"},
							},
						},
					},
				},
			},
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, n.Normalize(context.Background(), tt.event))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	schema, _ := Lookup("CreateTable")
	event := eventForSchema("CreateTable", schema)

	n := New()
	first := n.Normalize(context.Background(), event)
	second := n.Normalize(context.Background(), event)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
}

func TestResolvePath(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": []any{
				map[string]any{"c": "found"},
			},
		},
	}

	tests := []struct {
		name  string
		path  []string
		want  any
		found bool
	}{
		{"map descent", []string{"a", "b"}, []any{map[string]any{"c": "found"}}, true},
		{"slice index", []string{"a", "b", "0", "c"}, "found", true},
		{"missing field", []string{"a", "x"}, nil, false},
		{"index out of range", []string{"a", "b", "3", "c"}, nil, false},
		{"non-numeric index", []string{"a", "b", "x", "c"}, nil, false},
		{"empty path", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := resolvePath(doc, tt.path)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSupportedEvents(t *testing.T) {
	events := SupportedEvents()

	assert.Len(t, events, 11)
	assert.True(t, Supported("RunInstances"))
	assert.False(t, Supported("TerminateInstances"))
}
