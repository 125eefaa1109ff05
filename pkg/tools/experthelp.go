package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/pkg/llm"
)

// Expert help defaults: two consultations per user request within a day.
const (
	expertHelpLimit  = 2
	expertHelpWindow = 24 * time.Hour
)

// newExpertHelpHandler builds the get_expert_help handler. When advisor is
// nil the tool reports itself unconfigured instead of failing opaquely.
//
// Calls are rate limited per user request id so a looping agent cannot burn
// through the provider quota on one task.
func newExpertHelpHandler(advisor llm.Advisor, limiter *RateLimiter, onDenied func()) Handler {
	return func(ctx context.Context, call *Call) (any, error) {
		question := call.String("question")
		if question == "" {
			return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"question\""}
		}
		if advisor == nil {
			return nil, &ToolError{Code: ErrBadRequest, Message: "expert help is not configured on this server"}
		}

		allowed, remaining := limiter.Allow(call.RequestID)
		if !allowed {
			// Over-limit is a guidance message, not a failure: the agent
			// should fall back to asking its own user.
			logger.WarnCtx(ctx, "expert help limit reached",
				logger.KeyRequestID, call.RequestID)
			if onDenied != nil {
				onDenied()
			}
			return map[string]any{
				"answer": fmt.Sprintf("The expert help limit for this request has been reached (%d calls per 24 hours). Please ask the user directly for guidance.", expertHelpLimit),
				"remaining_calls": 0,
				"rate_limited":    true,
			}, nil
		}
		logger.InfoCtx(ctx, "consulting expert",
			logger.KeyRequestID, call.RequestID,
			"remaining_calls", remaining)

		flowContext := expertFlowContext(ctx, call)
		answer, err := advisor.Advise(ctx, question, flowContext)
		if err != nil {
			return nil, &ToolError{Code: ErrInternal, Message: err.Error()}
		}
		return map[string]any{
			"answer":          answer,
			"remaining_calls": remaining,
		}, nil
	}
}

// expertFlowContext assembles the flow context passed to the advisor: the
// caller's own context string, enriched with the documented flow of the
// requested group when one is given. Enrichment failures degrade silently;
// the question still reaches the advisor.
func expertFlowContext(ctx context.Context, call *Call) string {
	supplied := call.String("context")
	groupID := call.String("process_group_id")
	if groupID == "" || call.NiFi == nil {
		return supplied
	}

	flow, err := call.NiFi.GetProcessGroupFlow(ctx, groupID)
	if err != nil {
		logger.WarnCtx(ctx, "could not enrich expert context with flow",
			logger.KeyGroupID, groupID, logger.KeyError, err.Error())
		return supplied
	}
	doc := buildFlowDocument(flow, true)
	encoded, err := json.Marshal(doc)
	if err != nil {
		return supplied
	}
	if supplied == "" {
		return string(encoded)
	}
	return supplied + "\n\nCurrent flow:\n" + string(encoded)
}
