// Package tools implements the tool registry, dispatcher and handlers of the
// bridge.
//
// A tool is a named operation callers dispatch by name with a JSON argument
// object. The registry holds immutable descriptors; the dispatcher validates
// and auto-corrects arguments, invokes the handler with an explicit
// request-scoped Call, and normalizes the result into a JSON-serializable
// shape.
package tools

import (
	"time"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

// Call carries the request-scoped collaborators of one tool invocation.
//
// The HTTP front-end exclusively constructs a Call per inbound request and
// discards it on return. Handlers receive it as an explicit parameter and
// must not retain it past the invocation.
type Call struct {
	// NiFi is the client bound to the server selected by X-Nifi-Server-Id.
	NiFi *nifi.Client

	// RequestID and ActionID are the caller-supplied correlation ids,
	// "-" when absent. They are also present in the LogContext of the
	// invocation's context.Context.
	RequestID string
	ActionID  string

	// Deadline bounds the whole invocation. Polling loops consult it.
	Deadline time.Time

	// Args is the argument object after normalization.
	Args map[string]any
}

// TimeoutSeconds reads the optional timeout_seconds argument, defaulting to
// def. A present-but-zero value is honored: it means "one status check".
func (c *Call) TimeoutSeconds(def time.Duration) time.Duration {
	v, ok := c.Args["timeout_seconds"]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return time.Duration(n * float64(time.Second))
	case int:
		return time.Duration(n) * time.Second
	case int64:
		return time.Duration(n) * time.Second
	default:
		return def
	}
}

// String reads a string argument, empty when absent or mistyped.
func (c *Call) String(key string) string {
	s, _ := c.Args[key].(string)
	return s
}

// StringDefault reads a string argument with a fallback.
func (c *Call) StringDefault(key, def string) string {
	if s, ok := c.Args[key].(string); ok && s != "" {
		return s
	}
	return def
}

// Items reads a list argument as []map[string]any. The normalizer has
// already coerced lone objects into single-item lists for batch parameters.
func (c *Call) Items(key string) []map[string]any {
	raw, ok := c.Args[key].([]any)
	if !ok {
		if typed, ok := c.Args[key].([]map[string]any); ok {
			return typed
		}
		return nil
	}
	items := make([]map[string]any, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items
}
