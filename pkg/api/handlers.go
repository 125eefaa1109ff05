package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/internal/telemetry"
	"github.com/nifiops/nifibridge/pkg/config"
	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/tools"
	"github.com/nifiops/nifibridge/pkg/workflow"
)

// handlers carries the route implementations.
type handlers struct {
	deps Deps
}

func newHandlers(deps Deps) *handlers {
	return &handlers{deps: deps}
}

func (h *handlers) requestTimeout() time.Duration {
	if t := h.deps.Config.Server.RequestTimeout; t > 0 {
		return t
	}
	return config.DefaultRequestTimeout
}

// headerOr reads a header, substituting def when absent.
func headerOr(r *http.Request, name, def string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return def
}

// bindServer resolves the X-Nifi-Server-Id header against the configured
// server list. Both a missing header and an unknown id are caller errors.
func (h *handlers) bindServer(r *http.Request) (*config.NiFiServerConfig, string, string) {
	id := r.Header.Get("X-Nifi-Server-Id")
	if id == "" {
		return nil, "missing server selection", "the X-Nifi-Server-Id header is required; list configured servers at GET /config/nifi-servers"
	}
	server, ok := h.deps.Config.NiFiServer(id)
	if !ok {
		return nil, "unknown NiFi server", "no configured NiFi server has id " + id
	}
	return server, "", ""
}

// newNiFiClient builds the request-scoped client for one server entry.
func (h *handlers) newNiFiClient(server *config.NiFiServerConfig) *nifi.Client {
	return nifi.New(nifi.Config{
		BaseURL:        server.URL,
		Username:       server.Username,
		Password:       server.Password,
		TLSSkipVerify:  server.TLSSkipVerify,
		RequestTimeout: server.RequestTimeout,
		PollInterval:   server.PollInterval,
		Metrics:        h.deps.NiFiMetrics,
	})
}

// toolRequest is the body of POST /tools/{name}.
type toolRequest struct {
	Arguments map[string]any `json:"arguments"`
	// Context carries ambient defaults (for example process_group_id) that
	// fill argument gaps without overriding explicit values.
	Context map[string]any `json:"context,omitempty"`
}

// mergedArgs folds context defaults into the arguments.
func (tr *toolRequest) mergedArgs() map[string]any {
	args := tr.Arguments
	if args == nil {
		args = map[string]any{}
	}
	for k, v := range tr.Context {
		if _, exists := args[k]; !exists {
			args[k] = v
		}
	}
	return args
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// listNiFiServers exposes id and name only; credentials never leave the
// process.
func (h *handlers) listNiFiServers(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]string, 0, len(h.deps.Config.NiFiServers))
	for _, s := range h.deps.Config.NiFiServers {
		out = append(out, map[string]string{"id": s.ID, "name": s.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": out})
}

// toolListing is one entry of GET /tools.
type toolListing struct {
	Name        string         `json:"name"`
	Phases      []tools.Phase  `json:"phases"`
	Description tools.Sections `json:"description"`
	Parameters  any            `json:"parameters,omitempty"`
}

func (h *handlers) listTools(w http.ResponseWriter, r *http.Request) {
	var phase tools.Phase
	if raw := r.URL.Query().Get("phase"); raw != "" {
		parsed, ok := tools.ParsePhase(raw)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "unknown phase", "no such phase tag: "+raw)
			return
		}
		phase = parsed
	}

	descriptors := h.deps.Tools.List(phase)
	out := make([]toolListing, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, toolListing{
			Name:        d.Name,
			Phases:      d.Phases,
			Description: tools.ParseDescription(d.Description),
			Parameters:  d.Schema,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out})
}

func (h *handlers) dispatchTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.deps.Tools.Get(name); !ok {
		writeProblem(w, http.StatusNotFound, "unknown tool", "no such tool: "+name)
		return
	}

	var req toolRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}

	server, title, detail := h.bindServer(r)
	if server == nil {
		writeProblem(w, http.StatusBadRequest, title, detail)
		return
	}

	ctx, call := h.prepareCall(r, server, name, req.mergedArgs())
	ctx, span := telemetry.TraceTool(ctx, name, server.ID, call.RequestID)

	start := time.Now()
	result, err := h.deps.Tools.Dispatch(ctx, name, call)
	telemetry.EndSpan(ctx, span, err)
	h.deps.Metrics.RecordTool(name, outcomeLabel(err), time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// prepareCall builds the invocation context and Call for one dispatch.
func (h *handlers) prepareCall(r *http.Request, server *config.NiFiServerConfig, tool string, args map[string]any) (context.Context, *tools.Call) {
	requestID := headerOr(r, "X-Request-ID", "-")
	actionID := headerOr(r, "X-Action-ID", "-")

	lc := logger.NewLogContext(requestID, actionID).WithServer(server.ID)
	if tool != "" {
		lc = lc.WithTool(tool)
	}
	ctx := logger.WithContext(r.Context(), lc)

	return ctx, &tools.Call{
		NiFi:      h.newNiFiClient(server),
		RequestID: requestID,
		ActionID:  actionID,
		Deadline:  time.Now().Add(h.requestTimeout()),
		Args:      args,
	}
}

// workflowListing is one entry of GET /workflows.
type workflowListing struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Start       string   `json:"start"`
	Nodes       []string `json:"nodes"`
}

func describeWorkflow(def *workflow.Definition) workflowListing {
	nodes := make([]string, 0, len(def.Nodes))
	for name := range def.Nodes {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return workflowListing{
		Name:        def.Name,
		Description: def.Description,
		Start:       def.Start,
		Nodes:       nodes,
	}
}

func (h *handlers) listWorkflows(w http.ResponseWriter, r *http.Request) {
	defs := h.deps.Workflows.List()
	out := make([]workflowListing, 0, len(defs))
	for _, def := range defs {
		out = append(out, describeWorkflow(def))
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": out})
}

func (h *handlers) getWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := h.deps.Workflows.Get(name)
	if !ok {
		writeProblem(w, http.StatusNotFound, "unknown workflow", "no such workflow: "+name)
		return
	}
	writeJSON(w, http.StatusOK, describeWorkflow(def))
}

func (h *handlers) validateWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	def, ok := h.deps.Workflows.Get(name)
	if !ok {
		writeProblem(w, http.StatusNotFound, "unknown workflow", "no such workflow: "+name)
		return
	}
	if err := def.Validate(); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// workflowRequest is the body of POST /workflows/execute.
type workflowRequest struct {
	Workflow string         `json:"workflow"`
	Inputs   map[string]any `json:"inputs,omitempty"`
}

func (h *handlers) executeWorkflow(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	if req.Workflow == "" {
		writeProblem(w, http.StatusBadRequest, "invalid body", "the workflow field is required")
		return
	}

	def, ok := h.deps.Workflows.Get(req.Workflow)
	if !ok {
		writeProblem(w, http.StatusNotFound, "unknown workflow", "no such workflow: "+req.Workflow)
		return
	}

	server, title, detail := h.bindServer(r)
	if server == nil {
		writeProblem(w, http.StatusBadRequest, title, detail)
		return
	}

	ctx, call := h.prepareCall(r, server, "", nil)
	lc := logger.FromContext(ctx)
	if lc != nil {
		ctx = logger.WithContext(ctx, lc.WithWorkflow(def.Name))
	}

	exec := workflow.NewExecutor(h.deps.Tools, workflow.ExecutorConfig{
		MaxActions: h.deps.Config.Workflow.MaxActions,
		MaxRetries: h.deps.Config.Workflow.MaxRetries,
	})

	ctx, span := telemetry.TraceWorkflow(ctx, def.Name, server.ID, call.RequestID)

	start := time.Now()
	outcome, err := exec.Execute(ctx, def, req.Inputs, call, nil)
	telemetry.EndSpan(ctx, span, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.deps.Metrics.RecordWorkflow(def.Name, outcome.Success, outcome.ActionsTaken, time.Since(start))

	writeJSON(w, http.StatusOK, outcome)
}

// decodeBody decodes a JSON body, treating an empty body as an empty object.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// outcomeLabel is the metrics label for a dispatch result.
func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
