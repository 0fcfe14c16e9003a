package normalizer

import "sort"

// Schema describes where one creation event keeps its resource IDs.
// IDPath is walked through the event detail; IDKey, when set, names the
// field to pluck from each element of a terminal sequence.
type Schema struct {
	Service      string
	ResourceKind string
	IDPath       []string
	IDKey        string
}

// eventSchemas maps CloudTrail event names to extraction schemas.
// The table is the compatibility contract with existing tag consumers;
// entries must not be reshaped.
var eventSchemas = map[string]Schema{
	// EC2
	"RunInstances": {
		Service:      "ec2",
		ResourceKind: "instance",
		IDPath:       []string{"responseElements", "instancesSet", "items"},
		IDKey:        "instanceId",
	},
	"CreateVolume": {
		Service:      "ec2",
		ResourceKind: "volume",
		IDPath:       []string{"responseElements", "volumeId"},
	},
	"CreateSnapshot": {
		Service:      "ec2",
		ResourceKind: "snapshot",
		IDPath:       []string{"responseElements", "snapshotId"},
	},
	"CreateSecurityGroup": {
		Service:      "ec2",
		ResourceKind: "security-group",
		IDPath:       []string{"responseElements", "groupId"},
	},

	// S3
	"CreateBucket": {
		Service:      "s3",
		ResourceKind: "bucket",
		IDPath:       []string{"requestParameters", "bucketName"},
	},

	// RDS
	"CreateDBInstance": {
		Service:      "rds",
		ResourceKind: "db",
		IDPath:       []string{"requestParameters", "dBInstanceIdentifier"},
	},
	"CreateDBCluster": {
		Service:      "rds",
		ResourceKind: "cluster",
		IDPath:       []string{"requestParameters", "dBClusterIdentifier"},
	},

	// Lambda
	"CreateFunction": {
		Service:      "lambda",
		ResourceKind: "function",
		IDPath:       []string{"responseElements", "functionName"},
	},

	// DynamoDB
	"CreateTable": {
		Service:      "dynamodb",
		ResourceKind: "table",
		IDPath:       []string{"responseElements", "tableDescription", "tableName"},
	},

	// SNS
	"CreateTopic": {
		Service:      "sns",
		ResourceKind: "topic",
		IDPath:       []string{"responseElements", "topicArn"},
	},

	// SQS
	"CreateQueue": {
		Service:      "sqs",
		ResourceKind: "queue",
		IDPath:       []string{"responseElements", "QueueUrl"},
	},
}

// Lookup returns the schema for an event name.
func Lookup(eventName string) (Schema, bool) {
	schema, ok := eventSchemas[eventName]
	return schema, ok
}

// Supported reports whether an event name is tagged at all.
func Supported(eventName string) bool {
	_, ok := eventSchemas[eventName]
	return ok
}

// SupportedEvents returns all supported event names, sorted.
func SupportedEvents() []string {
	names := make([]string, 0, len(eventSchemas))
	for name := range eventSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
