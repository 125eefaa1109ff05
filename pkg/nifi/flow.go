package nifi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SearchFlow runs a flow-wide search for the given query string.
func (c *Client) SearchFlow(ctx context.Context, query string) (*SearchResults, error) {
	q := url.Values{}
	q.Set("q", query)
	var resp struct {
		SearchResultsDTO *SearchResults `json:"searchResultsDTO"`
	}
	if err := c.get(ctx, "/flow/search-results", q, &resp); err != nil {
		return nil, err
	}
	if resp.SearchResultsDTO == nil {
		return &SearchResults{}, nil
	}
	return resp.SearchResultsDTO, nil
}

// ListProcessorTypes returns the global processor-type catalog.
func (c *Client) ListProcessorTypes(ctx context.Context) ([]DocumentedType, error) {
	var resp struct {
		ProcessorTypes []DocumentedType `json:"processorTypes"`
	}
	if err := c.get(ctx, "/flow/processor-types", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ProcessorTypes, nil
}

// ListControllerServiceTypes returns the global controller-service-type
// catalog.
func (c *Client) ListControllerServiceTypes(ctx context.Context) ([]DocumentedType, error) {
	var resp struct {
		ControllerServiceTypes []DocumentedType `json:"controllerServiceTypes"`
	}
	if err := c.get(ctx, "/flow/controller-service-types", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ControllerServiceTypes, nil
}

// GetBulletinBoard fetches recent bulletins, optionally filtered to one
// source component id.
//
// NiFi can emit raw newlines inside JSON string values on this endpoint, so
// the body is fetched as text, embedded newlines are escaped before parsing
// and the unescape happens naturally during JSON decode, leaving the literal
// newline in the message string.
func (c *Client) GetBulletinBoard(ctx context.Context, sourceID string, limit int) ([]BulletinEntity, error) {
	q := url.Values{}
	if sourceID != "" {
		q.Set("sourceId", sourceID)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}

	raw, _, err := c.doRaw(ctx, http.MethodGet, "/flow/bulletin-board", q, nil)
	if err != nil {
		return nil, err
	}

	sanitized := sanitizeBulletinJSON(string(raw))

	var resp struct {
		BulletinBoard struct {
			Bulletins []BulletinEntity `json:"bulletins"`
		} `json:"bulletinBoard"`
	}
	if err := json.Unmarshal([]byte(sanitized), &resp); err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("decoding bulletin board: %v", err)}
	}
	return resp.BulletinBoard.Bulletins, nil
}

// sanitizeBulletinJSON escapes raw control characters that NiFi leaves inside
// JSON string literals on the bulletin board endpoint. Only characters inside
// strings are rewritten; structural whitespace is preserved.
func sanitizeBulletinJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
				continue
			case r == '\\':
				escaped = true
				b.WriteRune(r)
				continue
			case r == '"':
				inString = false
				b.WriteRune(r)
				continue
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			}
			b.WriteRune(r)
			continue
		}
		if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
