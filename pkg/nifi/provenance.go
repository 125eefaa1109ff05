package nifi

import (
	"context"
	"fmt"
	"time"

	"github.com/nifiops/nifibridge/internal/logger"
)

// ProvenanceQuery describes a provenance search.
type ProvenanceQuery struct {
	ComponentID string
	FlowFileUUID string
	MaxResults  int
}

// ProvenanceEvent is one provenance event summary.
type ProvenanceEvent struct {
	EventID        int64             `json:"eventId"`
	EventType      string            `json:"eventType,omitempty"`
	EventTime      string            `json:"eventTime,omitempty"`
	ComponentID    string            `json:"componentId,omitempty"`
	ComponentName  string            `json:"componentName,omitempty"`
	ComponentType  string            `json:"componentType,omitempty"`
	FlowFileUUID   string            `json:"flowFileUuid,omitempty"`
	FileSize       string            `json:"fileSize,omitempty"`
	Details        string            `json:"details,omitempty"`
	Attributes     []EventAttribute  `json:"attributes,omitempty"`
	InputContentAvailable  bool      `json:"inputContentAvailable,omitempty"`
	OutputContentAvailable bool      `json:"outputContentAvailable,omitempty"`
}

// EventAttribute is one FlowFile attribute on a provenance event.
type EventAttribute struct {
	Name          string `json:"name"`
	Value         string `json:"value,omitempty"`
	PreviousValue string `json:"previousValue,omitempty"`
}

// provenanceDTO mirrors the nested shape of /provenance responses.
type provenanceDTO struct {
	ID       string `json:"id"`
	Finished bool   `json:"finished"`
	Results  *struct {
		ProvenanceEvents []ProvenanceEvent `json:"provenanceEvents"`
	} `json:"results,omitempty"`
}

type provenanceEntity struct {
	Provenance *provenanceDTO `json:"provenance"`
}

// QueryProvenance submits a provenance query, polls it to completion, reads
// the events and deletes the query on every exit path.
//
// NiFi returns results either via a secondary /results GET or embedded in the
// final query status; the embedded form is used as fallback when the
// secondary resource is missing.
func (c *Client) QueryProvenance(ctx context.Context, query ProvenanceQuery, timeout time.Duration) ([]ProvenanceEvent, error) {
	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = 100
	}

	searchTerms := map[string]any{}
	if query.ComponentID != "" {
		searchTerms["ProcessorID"] = map[string]any{"value": query.ComponentID}
	}
	if query.FlowFileUUID != "" {
		searchTerms["FlowFileUUID"] = map[string]any{"value": query.FlowFileUUID}
	}
	payload := map[string]any{
		"provenance": map[string]any{
			"request": map[string]any{
				"maxResults":  maxResults,
				"searchTerms": searchTerms,
			},
		},
	}

	var created provenanceEntity
	if err := c.post(ctx, "/provenance", payload, &created); err != nil {
		return nil, err
	}
	if created.Provenance == nil {
		return nil, &Error{Kind: KindTransport, Message: "provenance response missing provenance"}
	}
	queryID := created.Provenance.ID

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.delete(cleanupCtx, fmt.Sprintf("/provenance/%s", queryID), nil); err != nil {
			logger.WarnCtx(ctx, "failed to delete provenance query",
				logger.KeySubRequest, queryID,
				logger.KeyError, err.Error(),
			)
		}
	}()

	last := created.Provenance
	pollErr := c.pollUntil(ctx, timeout, queryID, func(ctx context.Context) (bool, error) {
		var status provenanceEntity
		if err := c.get(ctx, fmt.Sprintf("/provenance/%s", queryID), nil, &status); err != nil {
			return false, err
		}
		if status.Provenance != nil {
			last = status.Provenance
		}
		return last.Finished, nil
	})
	if pollErr != nil {
		return nil, pollErr
	}

	// Prefer the secondary results resource; fall back to the embedded
	// results of the final status when it is absent.
	var results provenanceEntity
	err := c.get(ctx, fmt.Sprintf("/provenance/%s/results", queryID), nil, &results)
	switch {
	case err == nil && results.Provenance != nil && results.Provenance.Results != nil:
		return results.Provenance.Results.ProvenanceEvents, nil
	case IsNotFound(err) || (err == nil && (results.Provenance == nil || results.Provenance.Results == nil)):
		if last.Results != nil {
			return last.Results.ProvenanceEvents, nil
		}
		return nil, nil
	default:
		return nil, err
	}
}

// GetProvenanceEvent returns the details of one provenance event.
func (c *Client) GetProvenanceEvent(ctx context.Context, eventID int64) (*ProvenanceEvent, error) {
	var resp struct {
		ProvenanceEvent *ProvenanceEvent `json:"provenanceEvent"`
	}
	if err := c.get(ctx, fmt.Sprintf("/provenance-events/%d", eventID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.ProvenanceEvent == nil {
		return nil, &Error{Kind: KindNotFound, Message: fmt.Sprintf("provenance event %d not found", eventID)}
	}
	return resp.ProvenanceEvent, nil
}

// GetProvenanceEventContent fetches the input or output content of one event.
// direction must be "input" or "output".
func (c *Client) GetProvenanceEventContent(ctx context.Context, eventID int64, direction string) ([]byte, error) {
	if direction != "input" && direction != "output" {
		return nil, &Error{Kind: KindBadRequest, Message: fmt.Sprintf("content direction must be input or output, got %q", direction)}
	}
	raw, _, err := c.doRaw(ctx, "GET", fmt.Sprintf("/provenance-events/%d/content/%s", eventID, direction), nil, nil)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
