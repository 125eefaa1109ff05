package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context.
//
// One LogContext is created per inbound bridge request and travels with the
// request's context.Context. Every *Ctx log call prepends its fields so that
// tool handlers never have to thread correlation ids through signatures.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	RequestID string    // X-Request-ID header value, "-" when absent
	ActionID  string    // X-Action-ID header value, "-" when absent
	Server    string    // NiFi server id the request is bound to
	Tool      string    // tool name being dispatched
	Workflow  string    // workflow name, when executing a workflow
	ClientIP  string    // caller IP address (without port)
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given correlation ids.
// Empty ids are normalized to "-" so every log line carries both keys.
func NewLogContext(requestID, actionID string) *LogContext {
	if requestID == "" {
		requestID = "-"
	}
	if actionID == "" {
		actionID = "-"
	}
	return &LogContext{
		RequestID: requestID,
		ActionID:  actionID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	cp := *lc
	return &cp
}

// WithServer returns a copy with the NiFi server id set
func (lc *LogContext) WithServer(server string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Server = server
	}
	return clone
}

// WithTool returns a copy with the tool name set
func (lc *LogContext) WithTool(tool string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Tool = tool
	}
	return clone
}

// WithWorkflow returns a copy with the workflow name set
func (lc *LogContext) WithWorkflow(workflow string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Workflow = workflow
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
