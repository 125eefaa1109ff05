package nifi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nifiops/nifibridge/internal/logger"
)

// DropRequest is the status of an asynchronous queue drop.
type DropRequest struct {
	ID               string `json:"id"`
	URI              string `json:"uri,omitempty"`
	Finished         bool   `json:"finished"`
	FailureReason    string `json:"failureReason,omitempty"`
	CurrentCount     int64  `json:"currentCount,omitempty"`
	Current          string `json:"current,omitempty"`
	OriginalCount    int64  `json:"originalCount,omitempty"`
	Original         string `json:"original,omitempty"` // "N / M bytes"
	DroppedCount     int64  `json:"droppedCount,omitempty"`
	Dropped          string `json:"dropped,omitempty"`
	PercentCompleted int    `json:"percentCompleted,omitempty"`
}

type dropRequestEntity struct {
	DropRequest *DropRequest `json:"dropRequest"`
}

// CreateDropRequest starts dropping the queue of one connection.
func (c *Client) CreateDropRequest(ctx context.Context, connectionID string) (*DropRequest, error) {
	var resp dropRequestEntity
	if err := c.post(ctx, fmt.Sprintf("/flowfile-queues/%s/drop-requests", connectionID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.DropRequest == nil {
		return nil, &Error{Kind: KindTransport, Message: "drop request response missing dropRequest"}
	}
	return resp.DropRequest, nil
}

// GetDropRequest reads the status of a drop request.
func (c *Client) GetDropRequest(ctx context.Context, connectionID, requestID string) (*DropRequest, error) {
	var resp dropRequestEntity
	if err := c.get(ctx, fmt.Sprintf("/flowfile-queues/%s/drop-requests/%s", connectionID, requestID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.DropRequest, nil
}

// DeleteDropRequest removes a finished or abandoned drop request.
func (c *Client) DeleteDropRequest(ctx context.Context, connectionID, requestID string) error {
	return c.delete(ctx, fmt.Sprintf("/flowfile-queues/%s/drop-requests/%s", connectionID, requestID), nil)
}

// DropQueue runs the full drop lifecycle for one connection: create, poll
// until finished or the timeout budget is spent, then delete the sub-resource
// on every exit path. Delete failures are logged and swallowed.
//
// On timeout the returned error carries the drop request id for caller
// inspection; the final observed status is returned alongside it.
func (c *Client) DropQueue(ctx context.Context, connectionID string, timeout time.Duration) (*DropRequest, error) {
	created, err := c.CreateDropRequest(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	defer func() {
		// Cleanup runs regardless of polling outcome.
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.DeleteDropRequest(cleanupCtx, connectionID, created.ID); err != nil {
			logger.WarnCtx(ctx, "failed to delete drop request",
				logger.KeySubRequest, created.ID,
				logger.KeyError, err.Error(),
			)
		}
	}()

	last := created
	pollErr := c.pollUntil(ctx, timeout, created.ID, func(ctx context.Context) (bool, error) {
		status, err := c.GetDropRequest(ctx, connectionID, created.ID)
		if err != nil {
			return false, err
		}
		last = status
		return status.Finished, nil
	})
	if pollErr != nil {
		return last, pollErr
	}
	if last.FailureReason != "" {
		return last, &Error{Kind: KindBadRequest, Message: last.FailureReason, EntityID: created.ID}
	}
	return last, nil
}

// FlowFileSummary is one queued FlowFile from a listing request.
type FlowFileSummary struct {
	UUID             string `json:"uuid"`
	Filename         string `json:"filename,omitempty"`
	Position         int    `json:"position,omitempty"`
	Size             int64  `json:"size,omitempty"`
	QueuedDuration   int64  `json:"queuedDuration,omitempty"`
	LineageDuration  int64  `json:"lineageDuration,omitempty"`
	PenaltyExpiresIn int64  `json:"penaltyExpiresIn,omitempty"`
	Penalized        bool   `json:"penalized,omitempty"`
}

// ListingRequest is the status of an asynchronous queue listing.
type ListingRequest struct {
	ID               string            `json:"id"`
	Finished         bool              `json:"finished"`
	FailureReason    string            `json:"failureReason,omitempty"`
	FlowFileSummaries []FlowFileSummary `json:"flowFileSummaries,omitempty"`
	QueueSize        *QueueSize        `json:"queueSize,omitempty"`
}

// QueueSize carries the queue counters of a listing request.
type QueueSize struct {
	ObjectCount int64 `json:"objectCount"`
	ByteCount   int64 `json:"byteCount"`
}

type listingRequestEntity struct {
	ListingRequest *ListingRequest `json:"listingRequest"`
}

// ListQueue runs the full listing lifecycle for one connection: create, poll
// until finished or timeout, read summaries from the final status, and delete
// the sub-resource on every exit path.
func (c *Client) ListQueue(ctx context.Context, connectionID string, timeout time.Duration) (*ListingRequest, error) {
	var created listingRequestEntity
	if err := c.post(ctx, fmt.Sprintf("/flowfile-queues/%s/listing-requests", connectionID), nil, &created); err != nil {
		return nil, err
	}
	if created.ListingRequest == nil {
		return nil, &Error{Kind: KindTransport, Message: "listing request response missing listingRequest"}
	}
	requestID := created.ListingRequest.ID

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := c.delete(cleanupCtx, fmt.Sprintf("/flowfile-queues/%s/listing-requests/%s", connectionID, requestID), nil); err != nil {
			logger.WarnCtx(ctx, "failed to delete listing request",
				logger.KeySubRequest, requestID,
				logger.KeyError, err.Error(),
			)
		}
	}()

	last := created.ListingRequest
	pollErr := c.pollUntil(ctx, timeout, requestID, func(ctx context.Context) (bool, error) {
		var status listingRequestEntity
		if err := c.get(ctx, fmt.Sprintf("/flowfile-queues/%s/listing-requests/%s", connectionID, requestID), nil, &status); err != nil {
			return false, err
		}
		if status.ListingRequest != nil {
			last = status.ListingRequest
		}
		return last.Finished, nil
	})
	if pollErr != nil {
		return last, pollErr
	}
	if last.FailureReason != "" {
		return last, &Error{Kind: KindBadRequest, Message: last.FailureReason, EntityID: requestID}
	}
	return last, nil
}

// GetConnectionQueueSize reads the live queue counters of one connection from
// its status block.
func (c *Client) GetConnectionQueueSize(ctx context.Context, connectionID string) (*QueueSize, error) {
	var resp struct {
		ConnectionStatus struct {
			AggregateSnapshot struct {
				FlowFilesQueued int64           `json:"flowFilesQueued"`
				BytesQueued     int64           `json:"bytesQueued"`
				Queued          json.RawMessage `json:"queued"`
			} `json:"aggregateSnapshot"`
		} `json:"connectionStatus"`
	}
	if err := c.get(ctx, fmt.Sprintf("/flow/connections/%s/status", connectionID), nil, &resp); err != nil {
		return nil, err
	}
	return &QueueSize{
		ObjectCount: resp.ConnectionStatus.AggregateSnapshot.FlowFilesQueued,
		ByteCount:   resp.ConnectionStatus.AggregateSnapshot.BytesQueued,
	}, nil
}
