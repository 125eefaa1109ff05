package nifi

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a NiFi client error so that tool handlers can map it to a
// tool-level outcome without string matching.
type Kind int

const (
	// KindTransport covers connection failures and 5xx responses.
	KindTransport Kind = iota
	// KindAuth covers token acquisition and 401/403 responses.
	KindAuth
	// KindNotFound covers 404 responses.
	KindNotFound
	// KindConflict covers 409 responses: stale revisions and invalid state
	// transitions (deleting a running processor, starting an invalid one).
	KindConflict
	// KindBadRequest covers 400-level validation failures.
	KindBadRequest
	// KindTimeout covers async sub-resources that did not finish in budget.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindTimeout:
		return "timeout"
	default:
		return "transport"
	}
}

// Error is the error type surfaced by every client operation.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status from NiFi, 0 when not applicable
	Message string // NiFi's response body or a synthesized message
	// EntityID identifies the component or async sub-resource involved.
	// For timeouts on drop/listing/provenance requests it carries the
	// sub-resource id so callers can inspect it.
	EntityID string
	// StaleVersion is set on revision conflicts so callers may retry.
	StaleVersion int64
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("nifi: %s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("nifi: %s: %s", e.Kind, e.Message)
}

// newError builds an *Error from an HTTP status and response body.
func newError(status int, message string) *Error {
	kind := KindTransport
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status >= 400 && status < 500:
		kind = KindBadRequest
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsNotFound reports whether err is a NiFi 404.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsConflict reports whether err is a revision or state conflict.
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return IsKind(err, KindAuth) }

// IsTimeout reports whether err is an async sub-resource timeout.
func IsTimeout(err error) bool { return IsKind(err, KindTimeout) }

// IsBadRequest reports whether err is a NiFi validation failure.
func IsBadRequest(err error) bool { return IsKind(err, KindBadRequest) }
