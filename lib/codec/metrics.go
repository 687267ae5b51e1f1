package codec

import "github.com/VictoriaMetrics/metrics"

// Process-wide codec counters. Exposed through the default metrics set; call
// metrics.WritePrometheus to export them alongside any other application
// metrics.
var (
	metricSchemaBuilds      = metrics.NewCounter(`structwire_schema_builds_total`)
	metricSerializeCalls    = metrics.NewCounter(`structwire_serialize_calls_total`)
	metricDeserializeCalls  = metrics.NewCounter(`structwire_deserialize_calls_total`)
	metricSerializedBytes   = metrics.NewCounter(`structwire_serialized_bytes_total`)
	metricDeserializedBytes = metrics.NewCounter(`structwire_deserialized_bytes_total`)
)
