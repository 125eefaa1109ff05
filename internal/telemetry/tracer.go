package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for bridge spans. Tool and workflow keys use the "bridge."
// prefix; NiFi round-trip keys use "nifi.".
const (
	AttrTool         = "bridge.tool"
	AttrWorkflow     = "bridge.workflow"
	AttrWorkflowNode = "bridge.workflow_node"
	AttrRequestID    = "bridge.user_request_id"
	AttrActionID     = "bridge.action_id"
	AttrBatchSize    = "bridge.batch_size"

	AttrNiFiServer = "nifi.server"
	AttrNiFiMethod = "nifi.method"
	AttrNiFiPath   = "nifi.path"
	AttrNiFiStatus = "nifi.status"
)

// TraceTool wraps one tool dispatch in a span.
func TraceTool(ctx context.Context, tool, server, requestID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "tool."+tool,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrTool, tool),
			attribute.String(AttrNiFiServer, server),
			attribute.String(AttrRequestID, requestID),
		),
	)
}

// TraceWorkflow wraps one workflow run in a span.
func TraceWorkflow(ctx context.Context, workflow, server, requestID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "workflow."+workflow,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrWorkflow, workflow),
			attribute.String(AttrNiFiServer, server),
			attribute.String(AttrRequestID, requestID),
		),
	)
}

// EndSpan finalizes a span, recording err when present.
func EndSpan(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		RecordError(ctx, err)
	}
	span.End()
}
