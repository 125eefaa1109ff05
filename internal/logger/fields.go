package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that logs from the
// dispatcher, the NiFi client and the workflow executor can be correlated.
const (
	// Distributed tracing
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// Request correlation
	KeyRequestID = "user_request_id" // caller-supplied X-Request-ID, "-" when absent
	KeyActionID  = "action_id"       // caller-supplied X-Action-ID, "-" when absent
	KeyClientIP  = "client_ip"       // caller IP address

	// Tool dispatch
	KeyTool     = "tool"     // tool name being dispatched
	KeyPhase    = "phase"    // tool phase tag filter
	KeyWorkflow = "workflow" // workflow name
	KeyNode     = "node"     // workflow node name

	// NiFi target
	KeyServer      = "nifi_server"  // configured NiFi server id
	KeyObjectType  = "object_type"  // processor, connection, port, process_group, controller_service
	KeyObjectID    = "object_id"    // NiFi component id
	KeyObjectName  = "object_name"  // NiFi component name
	KeyGroupID     = "process_group_id"
	KeyRevision    = "revision"     // revision version echoed on mutations
	KeySubRequest  = "sub_request"  // async sub-resource id (drop/listing/provenance)
	KeyHTTPStatus  = "http_status"  // NiFi HTTP response status
	KeyEndpoint    = "endpoint"     // NiFi REST path
	KeyBatchIndex  = "request_index"
	KeyBatchSize   = "batch_size"
	KeyActionCount = "actions_taken"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyAttempt    = "attempt"
	KeyTimeoutSec = "timeout_seconds"
)

// Field constructors for type safety.

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the caller request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ActionID returns a slog.Attr for the caller action id
func ActionID(id string) slog.Attr {
	return slog.String(KeyActionID, id)
}

// Tool returns a slog.Attr for a tool name
func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// Workflow returns a slog.Attr for a workflow name
func Workflow(name string) slog.Attr {
	return slog.String(KeyWorkflow, name)
}

// Node returns a slog.Attr for a workflow node name
func Node(name string) slog.Attr {
	return slog.String(KeyNode, name)
}

// Server returns a slog.Attr for a NiFi server id
func Server(id string) slog.Attr {
	return slog.String(KeyServer, id)
}

// ObjectType returns a slog.Attr for a NiFi component kind
func ObjectType(t string) slog.Attr {
	return slog.String(KeyObjectType, t)
}

// ObjectID returns a slog.Attr for a NiFi component id
func ObjectID(id string) slog.Attr {
	return slog.String(KeyObjectID, id)
}

// GroupID returns a slog.Attr for a process group id
func GroupID(id string) slog.Attr {
	return slog.String(KeyGroupID, id)
}

// Revision returns a slog.Attr for a revision version
func Revision(version int64) slog.Attr {
	return slog.Int64(KeyRevision, version)
}

// SubRequest returns a slog.Attr for an async sub-resource id
func SubRequest(id string) slog.Attr {
	return slog.String(KeySubRequest, id)
}

// Endpoint returns a slog.Attr for a NiFi REST path
func Endpoint(path string) slog.Attr {
	return slog.String(KeyEndpoint, path)
}

// HTTPStatus returns a slog.Attr for a NiFi HTTP status code
func HTTPStatus(code int) slog.Attr {
	return slog.Int(KeyHTTPStatus, code)
}

// BatchIndex returns a slog.Attr for a batch item index
func BatchIndex(i int) slog.Attr {
	return slog.Int(KeyBatchIndex, i)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Attempt returns a slog.Attr for retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
