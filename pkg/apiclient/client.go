// Package apiclient provides a typed client for the bridge HTTP API,
// consumed by nbctl and integration tests.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the bridge API client.
//
// Server selects the NiFi instance by configured id; RequestID and ActionID
// are optional correlation ids forwarded as headers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	server     string
	requestID  string
	actionID   string
}

// New creates a client for the bridge at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// WithServer returns a client bound to the given NiFi server id.
func (c *Client) WithServer(serverID string) *Client {
	clone := *c
	clone.server = serverID
	return &clone
}

// WithCorrelation returns a client carrying the given correlation ids.
func (c *Client) WithCorrelation(requestID, actionID string) *Client {
	clone := *c
	clone.requestID = requestID
	clone.actionID = actionID
	return &clone
}

// do performs an HTTP request and decodes the response.
func (c *Client) do(method, path string, query url.Values, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.server != "" {
		req.Header.Set("X-Nifi-Server-Id", c.server)
	}
	if c.requestID != "" {
		req.Header.Set("X-Request-ID", c.requestID)
	}
	if c.actionID != "" {
		req.Header.Set("X-Action-ID", c.actionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr APIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Title != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return &APIError{
			Status: resp.StatusCode,
			Title:  http.StatusText(resp.StatusCode),
			Detail: string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// get performs a GET request.
func (c *Client) get(path string, query url.Values, result any) error {
	return c.do(http.MethodGet, path, query, nil, result)
}

// post performs a POST request.
func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, nil, body, result)
}
