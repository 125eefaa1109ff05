package tools

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/pkg/nifi"
)

// ItemStatus is the per-item outcome of a batch tool.
type ItemStatus string

const (
	StatusSuccess ItemStatus = "success"
	StatusWarning ItemStatus = "warning"
	StatusError   ItemStatus = "error"
)

// ItemResult is one entry of a batch tool response. The response list always
// has the same length and order as the input list; RequestIndex echoes the
// input position so callers can line items up after filtering.
type ItemResult struct {
	Status       ItemStatus     `json:"status"`
	Message      string         `json:"message,omitempty"`
	Entity       any            `json:"entity,omitempty"`
	RequestIndex int            `json:"request_index"`
	Input        map[string]any `json:"input,omitempty"`
}

// ItemFunc processes one batch item and returns the shaped entity.
type ItemFunc func(ctx context.Context, item map[string]any) (any, error)

// warnError marks an item outcome as a warning rather than a failure.
type warnError struct{ msg string }

func (e *warnError) Error() string { return e.msg }

// Warnf builds an item error that surfaces as a warning result: the item was
// deliberately not acted on, but the batch does not count it as a failure.
func Warnf(format string, args ...any) error {
	return &warnError{msg: fmt.Sprintf(format, args...)}
}

// RunBatch applies fn to each item, isolating failures. One item's error or
// panic never aborts the rest of the batch.
func RunBatch(ctx context.Context, items []map[string]any, fn ItemFunc) []ItemResult {
	results := make([]ItemResult, len(items))
	for i, item := range items {
		results[i] = runItem(ctx, i, item, fn)
	}
	LogBatchSummary(ctx, results)
	return results
}

// LogBatchSummary emits one line with the per-status counts of a finished
// batch.
func LogBatchSummary(ctx context.Context, results []ItemResult) {
	var successful, failed, warnings int
	for _, r := range results {
		switch r.Status {
		case StatusError:
			failed++
		case StatusWarning:
			warnings++
		default:
			successful++
		}
	}
	logger.InfoCtx(ctx, "batch finished",
		"successful", successful, "failed", failed, "warnings", warnings)
}

func runItem(ctx context.Context, index int, item map[string]any, fn ItemFunc) (result ItemResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "batch item panicked",
				logger.KeyBatchIndex, index,
				logger.KeyError, fmt.Sprint(r),
				"stack", string(debug.Stack()))
			result = ItemResult{
				Status:       StatusError,
				Message:      fmt.Sprintf("internal error: %v", r),
				RequestIndex: index,
				Input:        item,
			}
		}
	}()

	entity, err := fn(ctx, item)
	if err != nil {
		var we *warnError
		if errors.As(err, &we) {
			return ItemResult{
				Status:       StatusWarning,
				Message:      we.msg,
				RequestIndex: index,
				Input:        item,
			}
		}
		return ItemResult{
			Status:       StatusError,
			Message:      itemErrorMessage(err),
			RequestIndex: index,
			Input:        item,
		}
	}
	return ItemResult{
		Status:       StatusSuccess,
		Entity:       entity,
		RequestIndex: index,
	}
}

// itemErrorMessage renders an item error for the caller, keeping the NiFi
// classification visible and attaching a recovery hint on conflicts.
func itemErrorMessage(err error) string {
	var ne *nifi.Error
	if errors.As(err, &ne) {
		if ne.Kind == nifi.KindConflict {
			return fmt.Sprintf("%s (the object changed since it was last read; re-fetch it and retry)", ne.Message)
		}
		return ne.Message
	}
	return err.Error()
}

// RequireString reads a mandatory string field from a batch item.
func RequireString(item map[string]any, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field %q must be a non-empty string", key)
	}
	return s, nil
}

// OptString reads an optional string field, empty when absent.
func OptString(item map[string]any, key string) string {
	s, _ := item[key].(string)
	return s
}

// firstString reads the first non-empty string among aliased field names.
func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := OptString(item, key); s != "" {
			return s
		}
	}
	return ""
}

// OptFloat reads an optional numeric field.
func OptFloat(item map[string]any, key string, def float64) float64 {
	switch n := item[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

// OptStringSlice reads an optional list-of-strings field, tolerating the
// JSON []any decoding.
func OptStringSlice(item map[string]any, key string) []string {
	switch v := item[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// OptStringMap reads an optional map-of-nullable-strings field, the shape of
// processor and controller-service property objects. Explicit JSON nulls are
// preserved as nil pointers, which the API uses to unset a property.
func OptStringMap(item map[string]any, key string) map[string]*string {
	raw, ok := item[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]*string, len(raw))
	for k, v := range raw {
		switch s := v.(type) {
		case string:
			val := s
			out[k] = &val
		case nil:
			out[k] = nil
		default:
			val := fmt.Sprint(s)
			out[k] = &val
		}
	}
	return out
}
