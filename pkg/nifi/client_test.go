package nifi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNiFi is a minimal NiFi API double recording requests.
type fakeNiFi struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	handler  http.HandlerFunc
}

func newFakeNiFi(handler http.HandlerFunc) (*fakeNiFi, *httptest.Server) {
	f := &fakeNiFi{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r)
		var body map[string]any
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &body)
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()
		f.handler(w, r)
	}))
	return f, srv
}

func testClient(baseURL string) *Client {
	return New(Config{BaseURL: baseURL, RequestTimeout: 5 * time.Second, PollInterval: time.Millisecond})
}

func TestAuth_TokenAttached(t *testing.T) {
	var gotAuth string
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/access/token":
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "alice", r.PostForm.Get("username"))
			_, _ = w.Write([]byte("tok-123"))
		default:
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"processors":[]}`))
		}
	})
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "alice", Password: "secret"})
	_, err := c.ListProcessors(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestAuth_PlaintextFallback(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/access/token" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("Access tokens are only issued over HTTPS"))
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"processors":[]}`))
	})
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "alice", Password: "secret"})
	_, err := c.ListProcessors(context.Background(), "root")
	assert.NoError(t, err)
}

func TestAuth_FailureSurfacesAuthError(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad credentials"))
	})
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Username: "alice", Password: "wrong"})
	_, err := c.ListProcessors(context.Background(), "root")
	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestUpdateProcessor_EchoesFetchedRevision(t *testing.T) {
	f, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":7},"component":{"id":"p1","name":"Gen"}}`))
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":8},"component":{"id":"p1","name":"Gen"}}`))
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	props := map[string]*string{"File Size": strPtr("1KB")}
	updated, err := c.UpdateProcessorConfig(context.Background(), "p1", ProcessorConfigUpdate{Properties: props})
	require.NoError(t, err)
	assert.EqualValues(t, 8, updated.Revision.Version)

	// The PUT must carry the version returned by the preceding GET.
	putBody := f.bodies[len(f.bodies)-1]
	rev := putBody["revision"].(map[string]any)
	assert.EqualValues(t, 7, rev["version"])
}

func TestUpdateProcessor_ConflictCarriesStaleVersion(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":3},"component":{"id":"p1"}}`))
		case http.MethodPut:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte("p1 is not the most up-to-date revision"))
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.UpdateProcessorConfig(context.Background(), "p1", ProcessorConfigUpdate{Properties: map[string]*string{}})
	require.Error(t, err)
	require.True(t, IsConflict(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.EqualValues(t, 3, e.StaleVersion)
}

func TestGetPort_FallsBackToOutput(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/input-ports/port1":
			w.WriteHeader(http.StatusNotFound)
		case "/output-ports/port1":
			_, _ = w.Write([]byte(`{"id":"port1","revision":{"version":1},"component":{"id":"port1","name":"out","type":"OUTPUT_PORT"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	port, err := c.GetPort(context.Background(), "port1")
	require.NoError(t, err)
	assert.Equal(t, PortOutput, port.Kind)
}

func TestGetPort_BothMissingIsNotFound(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetPort(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
}

func TestDeleteProcessor_AlreadyGoneIsSuccess(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	c := testClient(srv.URL)
	assert.NoError(t, c.DeleteProcessor(context.Background(), "ghost"))
}

func TestDelete_AlreadyGoneIsSuccessForEveryType(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	c := testClient(srv.URL)
	ctx := context.Background()
	assert.NoError(t, c.DeleteConnection(ctx, "ghost"))
	assert.NoError(t, c.DeletePort(ctx, "ghost"))
	assert.NoError(t, c.DeleteControllerService(ctx, "ghost"))
	assert.NoError(t, c.DeleteProcessGroup(ctx, "ghost"))
}

func TestDeleteProcessor_RefusesRunning(t *testing.T) {
	f, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method, "a running processor must never receive a DELETE")
		_, _ = w.Write([]byte(`{"id":"p1","revision":{"version":4},"component":{"id":"p1","state":"RUNNING"}}`))
	})
	defer srv.Close()

	c := testClient(srv.URL)
	err := c.DeleteProcessor(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop it before deleting")
	assert.Len(t, f.requests, 1)
}

func TestDropQueue_Lifecycle(t *testing.T) {
	var deleted bool
	polls := 0
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":false}}`))
		case r.Method == http.MethodGet:
			polls++
			if polls < 2 {
				_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":false}}`))
				return
			}
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":true,"dropped":"5 / 1,024 bytes","droppedCount":5}}`))
		case r.Method == http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	dr, err := c.DropQueue(context.Background(), "conn1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, dr.Finished)
	assert.True(t, deleted, "drop request must be deleted after polling")
}

func TestDropQueue_ZeroTimeoutDeletesAndTimesOut(t *testing.T) {
	var deleted bool
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":false}}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":false}}`))
		case http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.DropQueue(context.Background(), "conn1", 0)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "dr1", e.EntityID, "timeout must surface the sub-resource id")
	assert.True(t, deleted, "cleanup delete must run on timeout")
}

func TestDropQueue_DeleteFailureSwallowed(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":true,"dropped":"0 / 0 bytes"}}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{"dropRequest":{"id":"dr1","finished":true}}`))
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.DropQueue(context.Background(), "conn1", time.Second)
	assert.NoError(t, err, "cleanup delete failures must not propagate")
}

func TestGetBulletinBoard_SanitizesEmbeddedNewlines(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		// NiFi quirk: raw newline inside a JSON string value.
		_, _ = w.Write([]byte("{\"bulletinBoard\":{\"bulletins\":[{\"id\":1,\"bulletin\":{\"id\":1,\"level\":\"ERROR\",\"message\":\"line one\nline two\"}}]}}"))
	})
	defer srv.Close()

	c := testClient(srv.URL)
	bulletins, err := c.GetBulletinBoard(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, bulletins, 1)
	assert.Equal(t, "line one\nline two", bulletins[0].Bulletin.Message)
}

func TestQueryProvenance_FallsBackToEmbeddedResults(t *testing.T) {
	_, srv := newFakeNiFi(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"provenance":{"id":"q1","finished":true,"results":{"provenanceEvents":[{"eventId":42,"eventType":"CREATE"}]}}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/provenance/q1/results":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"provenance":{"id":"q1","finished":true,"results":{"provenanceEvents":[{"eventId":42,"eventType":"CREATE"}]}}}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		}
	})
	defer srv.Close()

	c := testClient(srv.URL)
	events, err := c.QueryProvenance(context.Background(), ProvenanceQuery{ComponentID: "p1"}, time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.EqualValues(t, 42, events[0].EventID)
}

func TestSanitizeBulletinJSON_PreservesStructure(t *testing.T) {
	in := "{\n  \"a\": \"x\ny\",\n  \"b\": 1\n}"
	out := sanitizeBulletinJSON(in)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "x\ny", decoded["a"])
	assert.EqualValues(t, 1, decoded["b"])
}

func strPtr(s string) *string { return &s }
