package apiclient

import (
	"fmt"
	"net/http"
)

// APIError is an RFC 7807 problem response from the bridge.
type APIError struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

// IsNotFound reports whether the server rejected the target as unknown.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsBadRequest reports whether the request itself was invalid.
func (e *APIError) IsBadRequest() bool {
	return e.Status == http.StatusBadRequest
}

// IsRateLimited reports whether the server throttled the call.
func (e *APIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}
