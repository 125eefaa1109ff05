package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/tools"
)

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"type":"about:blank","title":"encoding failure","status":500}`, http.StatusInternalServerError)
	}
}

// writeProblem writes an RFC 7807 response.
func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// writeError maps a dispatch error onto an HTTP problem response.
//
// Tool-level errors carry their own classification; NiFi client errors map
// by kind: conflicts, validation failures and polling timeouts are the
// caller's to act on (400), authentication failures mean the bridge cannot
// reach NiFi (503).
func writeError(w http.ResponseWriter, err error) {
	var te *tools.ToolError
	if errors.As(err, &te) {
		switch te.Code {
		case tools.ErrUnknownTool:
			writeProblem(w, http.StatusNotFound, "unknown tool", te.Message)
		case tools.ErrBadRequest:
			writeProblem(w, http.StatusBadRequest, "invalid request", te.Message)
		case tools.ErrRateLimited:
			writeProblem(w, http.StatusTooManyRequests, "rate limited", te.Message)
		default:
			writeProblem(w, http.StatusInternalServerError, "internal error", te.Message)
		}
		return
	}

	var ne *nifi.Error
	if errors.As(err, &ne) {
		switch ne.Kind {
		case nifi.KindNotFound:
			writeProblem(w, http.StatusNotFound, "object not found", ne.Message)
		case nifi.KindConflict:
			writeProblem(w, http.StatusBadRequest, "conflict",
				ne.Message+" (the object changed since it was last read; re-fetch it and retry)")
		case nifi.KindBadRequest:
			writeProblem(w, http.StatusBadRequest, "invalid request", ne.Message)
		case nifi.KindAuth:
			writeProblem(w, http.StatusServiceUnavailable, "NiFi authentication failed", ne.Message)
		case nifi.KindTimeout:
			writeProblem(w, http.StatusBadRequest, "NiFi request timed out",
				ne.Message+" (the sub-resource id is left in place for inspection; retry with a larger timeout)")
		default:
			writeProblem(w, http.StatusInternalServerError, "NiFi request failed", ne.Message)
		}
		return
	}

	writeProblem(w, http.StatusInternalServerError, "internal error", err.Error())
}
