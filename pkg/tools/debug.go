package tools

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

// maxEventContentBytes bounds how much FlowFile content a single event
// detail response may carry.
const maxEventContentBytes = 64 * 1024

// handleListFlowFiles lists the queued FlowFiles of one connection via the
// async listing-request lifecycle.
func handleListFlowFiles(ctx context.Context, call *Call) (any, error) {
	connectionID := call.String("connection_id")
	if connectionID == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"connection_id\""}
	}
	timeout := call.TimeoutSeconds(30 * time.Second)

	listing, err := call.NiFi.ListQueue(ctx, connectionID, timeout)
	if err != nil {
		if nifi.IsTimeout(err) && listing != nil {
			// Partial summaries observed before the budget ran out are
			// still useful to the caller.
			return map[string]any{
				"finished":  false,
				"flowfiles": listing.FlowFileSummaries,
				"message":   err.Error(),
			}, nil
		}
		return nil, err
	}

	result := map[string]any{
		"finished":  true,
		"flowfiles": listing.FlowFileSummaries,
	}
	if listing.QueueSize != nil {
		result["queue_size"] = listing.QueueSize
	}
	return result, nil
}

// handleProvenanceEvents queries provenance for a component or FlowFile.
func handleProvenanceEvents(ctx context.Context, call *Call) (any, error) {
	query := nifi.ProvenanceQuery{
		ComponentID:  call.String("component_id"),
		FlowFileUUID: call.String("flowfile_uuid"),
	}
	if query.ComponentID == "" && query.FlowFileUUID == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "provide component_id or flowfile_uuid"}
	}
	if n, ok := call.Args["max_results"].(float64); ok && n > 0 {
		query.MaxResults = int(n)
	}
	timeout := call.TimeoutSeconds(30 * time.Second)

	events, err := call.NiFi.QueryProvenance(ctx, query, timeout)
	if err != nil {
		return nil, err
	}
	return map[string]any{"events": events, "count": len(events)}, nil
}

// handleEventDetails fetches one provenance event with its attributes and,
// on request, its input/output content up to maxEventContentBytes. Binary
// content is reported by size only.
func handleEventDetails(ctx context.Context, call *Call) (any, error) {
	n, ok := call.Args["event_id"].(float64)
	if !ok {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"event_id\""}
	}
	eventID := int64(n)

	event, err := call.NiFi.GetProvenanceEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	result := map[string]any{"event": event}

	includeContent := false
	if v, ok := call.Args["include_content"].(bool); ok {
		includeContent = v
	}
	if includeContent {
		if event.InputContentAvailable {
			result["input_content"] = fetchEventContent(ctx, call.NiFi, eventID, "input")
		}
		if event.OutputContentAvailable {
			result["output_content"] = fetchEventContent(ctx, call.NiFi, eventID, "output")
		}
	}
	return result, nil
}

// fetchEventContent reads one side of an event's content, truncating and
// refusing non-text payloads. Failures degrade to a message; the event
// details already fetched still reach the caller.
func fetchEventContent(ctx context.Context, client *nifi.Client, eventID int64, direction string) map[string]any {
	raw, err := client.GetProvenanceEventContent(ctx, eventID, direction)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	truncated := false
	if len(raw) > maxEventContentBytes {
		raw = raw[:maxEventContentBytes]
		truncated = true
	}
	if !utf8.Valid(raw) {
		return map[string]any{
			"message": fmt.Sprintf("binary content (%d bytes), not included", len(raw)),
		}
	}
	out := map[string]any{"text": string(raw)}
	if truncated {
		out["truncated"] = true
	}
	return out
}
