package nifi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nifiops/nifibridge/internal/logger"
)

// ensureToken exchanges the configured credentials for a bearer token on the
// first authenticated call. Subsequent calls reuse the token; the client is
// request-scoped so expiry within one request is not a concern.
//
// NiFi refuses to issue tokens over plaintext HTTP with a 409. When the base
// URL is plaintext we treat that refusal as "development instance, no auth"
// and continue unauthenticated with a warning rather than failing the call.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" || c.authAttempted {
		return nil
	}
	if c.username == "" && c.password == "" {
		c.authAttempted = true
		return nil
	}
	c.authAttempted = true

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/access/token", strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Kind: KindAuth, Message: fmt.Sprintf("creating token request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: fmt.Sprintf("requesting access token: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: fmt.Sprintf("reading token response: %v", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		c.token = strings.TrimSpace(string(body))
		if c.token == "" {
			return &Error{Kind: KindAuth, Status: resp.StatusCode, Message: "NiFi returned an empty access token"}
		}
		logger.DebugCtx(ctx, "acquired NiFi access token")
		return nil

	case resp.StatusCode == http.StatusConflict && c.isPlaintext() &&
		strings.Contains(string(body), "Access tokens are only issued over HTTPS"):
		// Unsecured development instance: proceed without a token.
		logger.WarnCtx(ctx, "NiFi refuses tokens over HTTP, continuing unauthenticated",
			"base_url", c.baseURL)
		return nil

	default:
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return &Error{Kind: KindAuth, Status: resp.StatusCode, Message: msg}
	}
}

// isPlaintext reports whether the client targets an http:// base URL.
func (c *Client) isPlaintext() bool {
	return strings.HasPrefix(c.baseURL, "http://")
}
