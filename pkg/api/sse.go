package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nifiops/nifibridge/internal/logger"
)

// sseHeartbeat is the interval between progress events while a dispatch is
// in flight, so proxies and clients see a live stream.
const sseHeartbeat = 2 * time.Second

// streamTool is the SSE variant of tool dispatch.
//
// GET /sse/tools/{name}?arguments=<urlencoded-json> emits a `start` event,
// zero or more `progress` events, then exactly one terminal `complete` or
// `error` event and closes the stream.
func (h *handlers) streamTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.deps.Tools.Get(name); !ok {
		writeProblem(w, http.StatusNotFound, "unknown tool", "no such tool: "+name)
		return
	}

	args := map[string]any{}
	if raw := r.URL.Query().Get("arguments"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			writeProblem(w, http.StatusBadRequest, "invalid arguments", "the arguments query parameter must be a JSON object: "+err.Error())
			return
		}
	}

	server, title, detail := h.bindServer(r)
	if server == nil {
		writeProblem(w, http.StatusBadRequest, title, detail)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "streaming unsupported", "the connection does not support server-sent events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx, call := h.prepareCall(r, server, name, args)

	emit := func(event string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			payload = []byte(`{}`)
		}
		fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event, payload)
		flusher.Flush()
	}

	emit("start", map[string]any{"tool": name})

	type dispatchResult struct {
		result any
		err    error
	}
	done := make(chan dispatchResult, 1)
	start := time.Now()
	go func() {
		result, err := h.deps.Tools.Dispatch(ctx, name, call)
		done <- dispatchResult{result: result, err: err}
	}()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.deps.Metrics.RecordTool(name, "error", time.Since(start))
			emit("error", map[string]any{"error": "client disconnected"})
			return
		case <-ticker.C:
			emit("progress", map[string]any{
				"tool":       name,
				"elapsed_ms": time.Since(start).Milliseconds(),
			})
		case out := <-done:
			h.deps.Metrics.RecordTool(name, outcomeLabel(out.err), time.Since(start))
			if out.err != nil {
				logger.WarnCtx(ctx, "streamed tool dispatch failed",
					logger.KeyTool, name, logger.KeyError, out.err.Error())
				emit("error", map[string]any{"error": out.err.Error()})
				return
			}
			emit("complete", map[string]any{"result": out.result})
			return
		}
	}
}
