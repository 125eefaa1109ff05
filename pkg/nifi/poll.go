package nifi

import (
	"context"
	"time"
)

// pollUntil repeatedly calls check until it reports done, the timeout budget
// is spent, or the context is cancelled.
//
// The deadline is consulted at the top of every iteration and the sleep sits
// at the bottom, so a zero timeout performs exactly one status check before
// surfacing KindTimeout. subID is carried on the timeout error so callers can
// inspect the sub-resource NiFi is still holding.
func (c *Client) pollUntil(ctx context.Context, timeout time.Duration, subID string, check func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(timeout)

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if !time.Now().Before(deadline) {
			return &Error{
				Kind:     KindTimeout,
				Message:  "request did not finish within " + timeout.String(),
				EntityID: subID,
			}
		}

		select {
		case <-ctx.Done():
			return &Error{Kind: KindTimeout, Message: ctx.Err().Error(), EntityID: subID}
		case <-time.After(c.pollInterval):
		}
	}
}
