// Package nifi provides a typed REST client for Apache NiFi.
//
// The client wraps NiFi's /nifi-api surface with uniform authentication,
// revision-aware optimistic-concurrency updates and polling of NiFi's
// asynchronous sub-resources (drop requests, listing requests, provenance
// queries). Every operation takes a context.Context and returns a classified
// *Error on failure.
package nifi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nifiops/nifibridge/internal/logger"
)

// Config configures a client for one NiFi instance.
type Config struct {
	// BaseURL is the NiFi API root, e.g. "https://nifi:8443/nifi-api".
	BaseURL string

	// Username and Password are exchanged for a bearer token on first use.
	// Leave both empty for unsecured instances.
	Username string
	Password string

	// TLSSkipVerify disables certificate verification (self-signed dev setups).
	TLSSkipVerify bool

	// RequestTimeout bounds each individual HTTP round-trip. Default 30s.
	RequestTimeout time.Duration

	// PollInterval is the sleep between async sub-resource status checks.
	// Default 500ms.
	PollInterval time.Duration

	// Metrics, when not nil, receives one observation per round-trip.
	Metrics Metrics
}

// Metrics receives round-trip observations. Pass nil to disable collection
// with zero overhead.
type Metrics interface {
	RecordRequest(method string, status int, duration time.Duration)
}

// Client is a NiFi REST API client bound to one configured NiFi server.
//
// A Client is request-scoped in the bridge: the HTTP front-end creates one per
// inbound call and discards it on return, so no locking guards the token.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	username     string
	password     string
	token        string
	authAttempted bool
	// clientID is sent in every revision payload so NiFi can attribute
	// concurrent edits to this client.
	clientID     string
	pollInterval time.Duration
	metrics      Metrics
}

// New creates a client for the given NiFi instance.
func New(cfg Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	transport := http.DefaultTransport
	if cfg.TLSSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-in for dev instances
		transport = t
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		username:     cfg.Username,
		password:     cfg.Password,
		clientID:     uuid.NewString(),
		pollInterval: interval,
		metrics:      cfg.Metrics,
	}
}

// ClientID returns the client id used in revision payloads.
func (c *Client) ClientID() string {
	return c.clientID
}

// newRevision returns the revision payload for creating a new entity.
func (c *Client) newRevision() *Revision {
	return &Revision{ClientID: c.clientID, Version: 0}
}

// do performs a JSON request against the NiFi API and decodes the response.
//
// Error responses are classified into *Error by HTTP status. A 409 carries
// NiFi's explanatory body, which distinguishes revision conflicts from state
// conflicts for the caller's message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	respBody, _, err := c.doRaw(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{Kind: KindTransport, Message: fmt.Sprintf("decoding %s %s response: %v", method, path, err)}
		}
	}
	return nil
}

// doRaw performs a request and returns the raw response body. Used directly
// by the bulletin board fetch, which must sanitize the body before parsing.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, 0, err
	}

	var bodyReader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		bodyReader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, &Error{Kind: KindBadRequest, Message: fmt.Sprintf("encoding request body: %v", err)}
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Message: fmt.Sprintf("creating request: %v", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.metrics.RecordRequest(method, status, time.Since(start))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, &Error{Kind: KindTimeout, Message: fmt.Sprintf("%s %s: %v", method, path, ctx.Err())}
		}
		return nil, 0, &Error{Kind: KindTransport, Message: fmt.Sprintf("%s %s: %v", method, path, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: fmt.Sprintf("reading response body: %v", err)}
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(respBody))
		if msg == "" {
			msg = resp.Status
		}
		logger.DebugCtx(ctx, "NiFi request failed",
			"method", method,
			logger.KeyEndpoint, path,
			logger.KeyHTTPStatus, resp.StatusCode,
			logger.KeyError, msg,
		)
		return nil, resp.StatusCode, newError(resp.StatusCode, msg)
	}

	return respBody, resp.StatusCode, nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs a POST request.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// put performs a PUT request.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

// deleteWithRevision performs a DELETE carrying the revision in the query
// string, which is how NiFi expects it for component deletion.
func (c *Client) deleteWithRevision(ctx context.Context, path string, rev *Revision, result any) error {
	query := url.Values{}
	if rev != nil {
		query.Set("version", fmt.Sprintf("%d", rev.Version))
		if rev.ClientID != "" {
			query.Set("clientId", rev.ClientID)
		}
	}
	return conflictWithVersion(c.do(ctx, http.MethodDelete, path, query, nil, result), rev)
}

// delete performs a plain DELETE request (async sub-resources carry no revision).
func (c *Client) delete(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, result)
}

// conflictWithVersion tags a conflict error with the revision version that was
// echoed, so callers can decide to re-fetch and retry.
func conflictWithVersion(err error, rev *Revision) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindConflict && rev != nil {
		e.StaleVersion = rev.Version
	}
	return err
}
