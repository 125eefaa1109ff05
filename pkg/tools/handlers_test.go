package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

func decodeJSONBody(r *http.Request, into *map[string]any) error {
	return json.NewDecoder(r.Body).Decode(into)
}

// newToolCall wires a Call against an httptest NiFi double.
func newToolCall(t *testing.T, handler http.HandlerFunc) (*Call, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := nifi.New(nifi.Config{BaseURL: srv.URL, RequestTimeout: 5 * time.Second, PollInterval: time.Millisecond})
	return &Call{NiFi: client, RequestID: "req-1", ActionID: "act-1", Args: map[string]any{}}, srv.Close
}

func TestDeleteObjects_ConnectionsGoFirst(t *testing.T) {
	var mu sync.Mutex
	var deletions []string

	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"x","revision":{"version":1},"component":{"id":"x"}}`))
		case http.MethodDelete:
			mu.Lock()
			deletions = append(deletions, r.URL.Path)
			mu.Unlock()
			_, _ = w.Write([]byte(`{}`))
		}
	})
	defer done()

	call.Args = map[string]any{"objects": []any{
		map[string]any{"object_type": "processor", "object_id": "p1"},
		map[string]any{"object_type": "connection", "object_id": "c1"},
		map[string]any{"object_type": "process_group", "object_id": "g1"},
	}}

	result, err := handleDeleteObjects(context.Background(), call)
	require.NoError(t, err)

	results := result.([]ItemResult)
	require.Len(t, results, 3)
	// Results stay in input order with the matching request_index.
	for i, r := range results {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.Equal(t, i, r.RequestIndex)
	}
	// Execution order is connection, processor, group.
	require.Len(t, deletions, 3)
	assert.Equal(t, "/connections/c1", deletions[0])
	assert.Equal(t, "/processors/p1", deletions[1])
	assert.Equal(t, "/process-groups/g1", deletions[2])
}

func TestDeleteObjects_MalformedItemDoesNotBlockRest(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":1},"component":{"id":"p1"}}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	})
	defer done()

	call.Args = map[string]any{"objects": []any{
		map[string]any{"object_type": "spaceship", "object_id": "x"},
		map[string]any{"object_type": "processor", "object_id": "p1"},
	}}

	result, err := handleDeleteObjects(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Message, "spaceship")
	assert.Equal(t, StatusSuccess, results[1].Status)
}

func TestOperate_RefusesStartingInvalidProcessor(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "an invalid processor must never receive a run-status PUT")
		_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":1},"component":{"id":"p1","state":"STOPPED","validationStatus":"INVALID","validationErrors":["'File Size' is required"]}}`))
	})
	defer done()

	call.Args = map[string]any{"operations": []any{
		map[string]any{"object_type": "processor", "object_id": "p1", "operation": "start"},
	}}

	result, err := handleOperateObjects(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	require.Len(t, results, 1)
	assert.Equal(t, StatusWarning, results[0].Status)
	assert.Contains(t, results[0].Message, "invalid")
	assert.Contains(t, results[0].Message, "'File Size' is required")
}

func TestOperate_AcceptsOperationTypeAlias(t *testing.T) {
	putState := ""
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":1},"component":{"id":"p1","state":"RUNNING","validationStatus":"VALID"}}`))
		case http.MethodPut:
			var body map[string]any
			require.NoError(t, decodeJSONBody(r, &body))
			putState, _ = body["state"].(string)
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":2},"component":{"id":"p1","state":"STOPPED"}}`))
		}
	})
	defer done()

	call.Args = map[string]any{"operations": []any{
		map[string]any{"object_type": "processor", "object_id": "p1", "operation_type": "stop"},
	}}

	result, err := handleOperateObjects(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	require.Len(t, results, 1)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "STOPPED", putState)
}

func TestOperate_RefusesStartingDisabledProcessor(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":1},"component":{"id":"p1","state":"DISABLED","validationStatus":"VALID"}}`))
	})
	defer done()

	call.Args = map[string]any{"operations": []any{
		map[string]any{"object_type": "processor", "object_id": "p1", "operation": "start"},
	}}

	result, err := handleOperateObjects(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Message, "enable it before starting")
}

func TestOperate_RefusesEnablingInvalidService(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs1","revision":{"version":1},"component":{"id":"cs1","validationStatus":"INVALID","validationErrors":["missing driver"]}}`))
	})
	defer done()

	call.Args = map[string]any{"operations": []any{
		map[string]any{"object_type": "controller_service", "object_id": "cs1", "operation": "enable"},
	}}

	result, err := handleOperateObjects(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Message, "missing driver")
}

func TestCreateConnections_AmbiguousNameListsCandidates(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/process-groups/g1/processors":
			_, _ = w.Write([]byte(`{"processors":[
				{"id":"11111111-1111-1111-1111-111111111111","component":{"name":"Dup"}},
				{"id":"22222222-2222-2222-2222-222222222222","component":{"name":"Dup"}},
				{"id":"33333333-3333-3333-3333-333333333333","component":{"name":"Target"}}]}`))
		case "/process-groups/g1/input-ports":
			_, _ = w.Write([]byte(`{"inputPorts":[]}`))
		case "/process-groups/g1/output-ports":
			_, _ = w.Write([]byte(`{"outputPorts":[]}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	defer done()

	call.Args = map[string]any{
		"process_group_id": "g1",
		"connections": []any{
			map[string]any{"source": "Dup", "destination": "Target"},
		},
	}

	result, err := handleCreateConnections(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Message, "ambiguous")
	assert.Contains(t, results[0].Message, "11111111-1111-1111-1111-111111111111")
	assert.Contains(t, results[0].Message, "22222222-2222-2222-2222-222222222222")
}

func TestCreateConnections_ResolvesNamesAndDefaultsRelationship(t *testing.T) {
	var posted map[string]any
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/process-groups/g1/processors":
			_, _ = w.Write([]byte(`{"processors":[
				{"id":"11111111-1111-1111-1111-111111111111","component":{"name":"Gen"}},
				{"id":"22222222-2222-2222-2222-222222222222","component":{"name":"Log"}}]}`))
		case r.URL.Path == "/process-groups/g1/input-ports":
			_, _ = w.Write([]byte(`{"inputPorts":[]}`))
		case r.URL.Path == "/process-groups/g1/output-ports":
			_, _ = w.Write([]byte(`{"outputPorts":[]}`))
		case r.Method == http.MethodPost:
			require.NoError(t, decodeJSONBody(r, &posted))
			_, _ = w.Write([]byte(`{"id":"c-new","component":{"id":"c-new"}}`))
		}
	})
	defer done()

	call.Args = map[string]any{
		"process_group_id": "g1",
		"connections": []any{
			map[string]any{"source": "Gen", "destination": "Log"},
		},
	}

	result, err := handleCreateConnections(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	require.Equal(t, StatusSuccess, results[0].Status)

	component := posted["component"].(map[string]any)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", component["source"].(map[string]any)["id"])
	assert.Equal(t, []any{"success"}, component["selectedRelationships"])
}

func TestCreateConnections_AcceptsSourceTargetNameAliases(t *testing.T) {
	var posted map[string]any
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/process-groups/g1/processors":
			_, _ = w.Write([]byte(`{"processors":[
				{"id":"11111111-1111-1111-1111-111111111111","component":{"name":"Gen"}},
				{"id":"22222222-2222-2222-2222-222222222222","component":{"name":"Log"}}]}`))
		case r.URL.Path == "/process-groups/g1/input-ports":
			_, _ = w.Write([]byte(`{"inputPorts":[]}`))
		case r.URL.Path == "/process-groups/g1/output-ports":
			_, _ = w.Write([]byte(`{"outputPorts":[]}`))
		case r.Method == http.MethodPost:
			require.NoError(t, decodeJSONBody(r, &posted))
			_, _ = w.Write([]byte(`{"id":"c-new","component":{"id":"c-new"}}`))
		}
	})
	defer done()

	call.Args = map[string]any{
		"process_group_id": "g1",
		"connections": []any{
			map[string]any{"source_name": "Gen", "target_name": "Log"},
		},
	}

	result, err := handleCreateConnections(context.Background(), call)
	require.NoError(t, err)
	results := result.([]ItemResult)
	require.Equal(t, StatusSuccess, results[0].Status)

	component := posted["component"].(map[string]any)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", component["destination"].(map[string]any)["id"])
}

func TestUpdateConnection_RejectsEmptyRelationships(t *testing.T) {
	call, done := newToolCall(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no NiFi request expected, got %s %s", r.Method, r.URL.Path)
	})
	defer done()

	call.Args = map[string]any{
		"connection_id": "c1",
		"relationships": []any{},
	}

	_, err := handleUpdateConnection(context.Background(), call)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrBadRequest, te.Code)
	assert.Contains(t, te.Message, "delete_nifi_objects")
}

func TestExpertHelp_UnconfiguredAdvisor(t *testing.T) {
	h := newExpertHelpHandler(nil, NewRateLimiter(2, time.Hour), nil)
	_, err := h(context.Background(), &Call{RequestID: "r", Args: map[string]any{"question": "why?"}})
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "not configured")
}

type stubAdvisor struct{ calls int }

func (s *stubAdvisor) Advise(ctx context.Context, question, flowContext string) (string, error) {
	s.calls++
	return "use MergeContent", nil
}

func TestExpertHelp_RateLimitPerRequestID(t *testing.T) {
	advisor := &stubAdvisor{}
	h := newExpertHelpHandler(advisor, NewRateLimiter(2, time.Hour), nil)
	call := &Call{RequestID: "req-9", Args: map[string]any{"question": "how to merge?"}}

	for i := 0; i < 2; i++ {
		result, err := h(context.Background(), call)
		require.NoError(t, err)
		assert.Equal(t, "use MergeContent", result.(map[string]any)["answer"])
	}

	// The third call is a success-shaped refusal, not an error, so a
	// looping agent keeps functioning and asks its user instead.
	result, err := h(context.Background(), call)
	require.NoError(t, err)
	refusal := result.(map[string]any)
	assert.Equal(t, true, refusal["rate_limited"])
	assert.Contains(t, refusal["answer"], "ask the user directly")
	assert.Equal(t, 2, advisor.calls, "the advisor is not consulted past the ceiling")

	// A different user request has a fresh budget.
	other := &Call{RequestID: "req-10", Args: map[string]any{"question": "how?"}}
	_, err = h(context.Background(), other)
	assert.NoError(t, err)
}
