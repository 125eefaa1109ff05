package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/tools"
)

// fakeCanvas is a NiFi double sufficient for the shipped workflows: it
// accepts group/processor/connection creation and serves status and flow
// reads.
func fakeCanvas(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	created := 0
	mux := http.NewServeMux()

	mux.HandleFunc("/flow/process-groups/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status"):
			_, _ = w.Write([]byte(`{"processGroupStatus":{"aggregateSnapshot":{"flowFilesQueued":0}}}`))
		default:
			_, _ = w.Write([]byte(`{"processGroupFlow":{"id":"root","flow":{}}}`))
		}
	})
	mux.HandleFunc("/process-groups/root/process-groups", func(w http.ResponseWriter, r *http.Request) {
		created++
		_, _ = w.Write([]byte(`{"id":"g-new","component":{"id":"g-new","name":"demo"}}`))
	})
	mux.HandleFunc("/process-groups/g-new/processors", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created++
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			name := body["component"].(map[string]any)["name"].(string)
			id := fmt.Sprintf("00000000-0000-0000-0000-0000000000%02d", created)
			_, _ = w.Write([]byte(fmt.Sprintf(`{"id":"%s","component":{"id":"%s","name":"%s"}}`, id, id, name)))
			return
		}
		_, _ = w.Write([]byte(`{"processors":[]}`))
	})
	mux.HandleFunc("/process-groups/g-new/connections", func(w http.ResponseWriter, r *http.Request) {
		created++
		_, _ = w.Write([]byte(`{"id":"c-new","component":{"id":"c-new"}}`))
	})
	mux.HandleFunc("/flow/bulletin-board", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bulletinBoard":{"bulletins":[]}}`))
	})
	mux.HandleFunc("/processors/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		id := parts[2]
		_, _ = w.Write([]byte(fmt.Sprintf(`{"id":"%s","revision":{"version":1},"component":{"id":"%s","name":"proc","state":"STOPPED","validationStatus":"VALID"}}`, id, id)))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Logf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(mux), &created
}

func TestFuncNode_NilPostRoutesOnStatus(t *testing.T) {
	node := &funcNode{name: "n"}
	cases := []struct {
		exec any
		want string
	}{
		{map[string]any{"status": "error"}, ActionError},
		{map[string]any{"status": "retry"}, ActionRetry},
		{map[string]any{"status": "ok"}, ActionDefault},
		{map[string]any{}, ActionDefault},
		{nil, ActionDefault},
		{"plain result", ActionDefault},
	}
	for _, tc := range cases {
		action, err := node.Post(context.Background(), nil, nil, tc.exec)
		require.NoError(t, err)
		assert.Equal(t, tc.want, action, "exec %v", tc.exec)
	}
}

func TestBuildSimpleFlow_HappyPath(t *testing.T) {
	srv, _ := fakeCanvas(t)
	defer srv.Close()

	client := nifi.New(nifi.Config{BaseURL: srv.URL, RequestTimeout: 5 * time.Second, PollInterval: time.Millisecond})
	registry := tools.Catalog(tools.Deps{})
	exec := NewExecutor(registry, ExecutorConfig{MaxActions: 20})

	inputs := map[string]any{
		"flow_name":        "demo",
		"process_group_id": "root",
		"processors": []any{
			map[string]any{"processor_type": "org.apache.nifi.processors.standard.GenerateFlowFile"},
			map[string]any{"processor_type": "org.apache.nifi.processors.standard.LogAttribute"},
		},
	}

	outcome, err := exec.Execute(context.Background(), BuildSimpleFlow(), inputs, &tools.Call{NiFi: client}, nil)
	require.NoError(t, err)
	require.True(t, outcome.Success, outcome.Error)
	assert.Equal(t, "verify", outcome.FinalNode)
	assert.Equal(t, "g-new", outcome.State["group_id"])

	ids, ok := outcome.State["processor_ids"].([]string)
	require.True(t, ok)
	assert.Len(t, ids, 2)
	assert.NotEmpty(t, outcome.Milestones)
}

func TestBuildSimpleFlow_RejectsSingleProcessor(t *testing.T) {
	registry := tools.Catalog(tools.Deps{})
	exec := NewExecutor(registry, ExecutorConfig{})

	inputs := map[string]any{
		"flow_name":  "demo",
		"processors": []any{map[string]any{"processor_type": "t"}},
	}
	outcome, err := exec.Execute(context.Background(), BuildSimpleFlow(), inputs, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "at least two processors")
}

func TestDiagnoseFlow_ReportsInvalidProcessors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/flow/process-groups/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			_, _ = w.Write([]byte(`{"processGroupStatus":{"aggregateSnapshot":{"flowFilesQueued":12}}}`))
			return
		}
		_, _ = w.Write([]byte(`{"processGroupFlow":{"id":"root","flow":{}}}`))
	})
	mux.HandleFunc("/flow/bulletin-board", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bulletinBoard":{"bulletins":[{"id":1,"bulletin":{"id":1,"level":"ERROR","sourceName":"Gen","message":"disk full"}}]}}`))
	})
	mux.HandleFunc("/process-groups/root/processors", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"processors":[
			{"id":"p1","component":{"id":"p1","name":"Gen","state":"RUNNING","validationStatus":"INVALID","validationErrors":["bad property"]}},
			{"id":"p2","component":{"id":"p2","name":"Log","state":"RUNNING","validationStatus":"VALID"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := nifi.New(nifi.Config{BaseURL: srv.URL, RequestTimeout: 5 * time.Second, PollInterval: time.Millisecond})
	exec := NewExecutor(tools.Catalog(tools.Deps{}), ExecutorConfig{})

	inputs := map[string]any{"process_group_id": "root"}
	outcome, err := exec.Execute(context.Background(), DiagnoseFlow(), inputs, &tools.Call{NiFi: client}, nil)
	require.NoError(t, err)
	require.True(t, outcome.Success, outcome.Error)

	diagnosis, ok := outcome.State["diagnosis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, diagnosis["healthy"])

	findings := diagnosis["findings"].([]any)
	kinds := map[string]bool{}
	for _, f := range findings {
		kinds[f.(map[string]any)["kind"].(string)] = true
	}
	assert.True(t, kinds["invalid_processor"])
	assert.True(t, kinds["bulletin"])
}
