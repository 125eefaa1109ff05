package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nifiops/nifibridge/internal/logger"
)

// Registry holds the tool descriptors. It is populated once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Names must be unique lower-snake identifiers;
// violations are programming errors surfaced at startup.
func (r *Registry) Register(d *Descriptor) error {
	if !nameRe.MatchString(d.Name) {
		return fmt.Errorf("invalid tool name %q", d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("duplicate tool name %q", d.Name)
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %q has no handler", d.Name)
	}
	for _, p := range d.Phases {
		if _, ok := ParsePhase(string(p)); !ok {
			return fmt.Errorf("tool %q has unknown phase %q", d.Name, p)
		}
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister registers and panics on error. Used by the startup catalog,
// where a failure means a miswired tool table.
func (r *Registry) MustRegister(d *Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Get returns the descriptor for a tool name.
func (r *Registry) Get(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// List returns descriptors in registration order, optionally filtered to one
// phase.
func (r *Registry) List(phase Phase) []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		d := r.byName[name]
		if phase != "" && !d.HasPhase(phase) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch resolves and invokes a tool.
//
// The sequence is: descriptor lookup, argument normalization, handler
// invocation, result normalization. Errors from normalization and the
// handler propagate to the front-end, which maps them to HTTP statuses.
func (r *Registry) Dispatch(ctx context.Context, name string, call *Call) (any, error) {
	d, ok := r.Get(name)
	if !ok {
		return nil, &ToolError{Code: ErrUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
	}

	args, err := NormalizeArgs(ctx, name, call.Args)
	if err != nil {
		return nil, err
	}
	call.Args = args

	logger.DebugCtx(ctx, "dispatching tool", logger.KeyTool, name)

	result, err := d.Handler(ctx, call)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizeResult(result)
	if err != nil {
		logger.ErrorCtx(ctx, "tool produced unserializable result",
			logger.KeyTool, name, logger.KeyError, err.Error())
		return nil, &ToolError{Code: ErrInternal, Message: "tool result is not JSON-serializable"}
	}
	return normalized, nil
}

// ErrorCode classifies a ToolError for HTTP mapping at the front-end.
type ErrorCode string

const (
	ErrUnknownTool ErrorCode = "unknown_tool"
	ErrBadRequest  ErrorCode = "bad_request"
	ErrInternal    ErrorCode = "internal_error"
	ErrRateLimited ErrorCode = "rate_limited"
)

// ToolError is a dispatcher- or handler-level domain error.
type ToolError struct {
	Code    ErrorCode
	Message string
}

func (e *ToolError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// TextContent is one text item of a content-list result, mirroring the
// content shape LLM tool protocols use.
type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result pairs a content list with a structured payload. When Structured
// carries a "result" key, that value wins; otherwise the whole map is the
// result.
type Result struct {
	Content    []TextContent
	Structured map[string]any
}

// NormalizeResult flattens handler return shapes into a JSON-serializable
// value:
//
//   - *Result: prefer Structured["result"], else Structured.
//   - []TextContent: parse each text as JSON where possible, keeping the
//     plain string on decode failure; a single item collapses to its value.
//   - anything else: returned as-is after a serializability check.
func NormalizeResult(v any) (any, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case *Result:
		if r.Structured != nil {
			if inner, ok := r.Structured["result"]; ok {
				return ensureSerializable(inner)
			}
			return ensureSerializable(r.Structured)
		}
		return NormalizeResult(r.Content)
	case []TextContent:
		if len(r) == 1 {
			return parseOrPass(r[0].Text), nil
		}
		out := make([]any, 0, len(r))
		for _, item := range r {
			out = append(out, parseOrPass(item.Text))
		}
		return out, nil
	case TextContent:
		return parseOrPass(r.Text), nil
	default:
		return ensureSerializable(v)
	}
}

// parseOrPass decodes text as JSON when possible, otherwise preserves it.
func parseOrPass(text string) any {
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	return decoded
}

// ensureSerializable round-trips the value to confirm JSON encodability.
func ensureSerializable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if _, err := json.Marshal(v); err != nil {
		return nil, err
	}
	return v, nil
}
