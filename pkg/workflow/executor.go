package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nifiops/nifibridge/internal/logger"
	"github.com/nifiops/nifibridge/pkg/tools"
)

// Defaults applied when the executor config leaves fields zero.
const (
	defaultMaxActions = 50
	defaultMaxRetries = 2
)

// ExecutorConfig tunes run limits.
type ExecutorConfig struct {
	// MaxActions caps tool dispatches per node; 0 means the default.
	MaxActions int
	// MaxRetries caps consecutive ActionRetry edges on one node.
	MaxRetries int
}

// Executor runs workflow definitions against the tool registry.
type Executor struct {
	registry   *tools.Registry
	maxActions int
	maxRetries int
}

// NewExecutor creates an executor dispatching through registry.
func NewExecutor(registry *tools.Registry, cfg ExecutorConfig) *Executor {
	if cfg.MaxActions <= 0 {
		cfg.MaxActions = defaultMaxActions
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &Executor{
		registry:   registry,
		maxActions: cfg.MaxActions,
		maxRetries: cfg.MaxRetries,
	}
}

// Outcome is the terminal result of one run.
type Outcome struct {
	Workflow     string          `json:"workflow"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	ErrorType    string          `json:"error_type,omitempty"`
	FinalNode    string          `json:"final_node,omitempty"`
	ActionsTaken int             `json:"actions_taken"`
	Steps        map[string]Step `json:"steps,omitempty"`
	Milestones   []Milestone     `json:"milestones,omitempty"`
	State        map[string]any  `json:"state,omitempty"`
}

// Execute runs def to completion. inputs seed the shared state; call binds
// the NiFi server and correlation ids; onUpdate, when not nil, receives
// progress snapshots as nodes advance.
//
// A run ends successfully when a node has no default edge or Post returns
// ActionDone. It fails when a node errors with no error edge, the context
// ends, or a node hits its action ceiling.
func (e *Executor) Execute(ctx context.Context, def *Definition, inputs map[string]any, call *tools.Call, onUpdate func(Snapshot)) (*Outcome, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	nodeNames := make([]string, 0, len(def.Nodes))
	for name := range def.Nodes {
		nodeNames = append(nodeNames, name)
	}
	progress := NewProgress(def.Name, nodeNames, onUpdate)

	state := make(map[string]any, len(inputs))
	for k, v := range inputs {
		state[k] = v
	}
	run := &Run{
		State:      state,
		registry:   e.registry,
		call:       call,
		progress:   progress,
		maxActions: e.maxActions,
		deadline:   call.Deadline,
	}

	outcome := &Outcome{Workflow: def.Name}
	current := def.Start
	retries := 0

	for current != "" {
		node := def.Nodes[current]
		outcome.FinalNode = current
		// A fresh node gets a fresh action budget; retries of the same
		// node keep spending the one they have.
		if run.node != current {
			run.enterNode(current)
		}

		// Deadline check happens before Exec so a run never starts work
		// it cannot finish.
		if !run.deadline.IsZero() && time.Now().After(run.deadline) {
			e.fail(progress, current, outcome, run, "workflow deadline exceeded")
			return outcome, nil
		}
		if err := ctx.Err(); err != nil {
			e.fail(progress, current, outcome, run, err.Error())
			return outcome, nil
		}

		logger.DebugCtx(ctx, "workflow node starting",
			logger.KeyWorkflow, def.Name, logger.KeyNode, current)

		progress.SetStatus(current, StatusPreparing)
		prep, err := node.Prep(ctx, run)
		if err != nil {
			next, handled := e.follow(def, current, ActionError)
			if !handled {
				e.fail(progress, current, outcome, run, fmt.Sprintf("%s: %v", current, err))
				return outcome, nil
			}
			progress.SetStatus(current, StatusFailed)
			current = next
			retries = 0
			continue
		}

		progress.SetStatus(current, StatusRunning)
		exec, err := node.Exec(ctx, run, prep)
		if err != nil {
			if errors.Is(err, ErrActionLimit) {
				outcome.ErrorType = ErrActionLimit.Error()
				e.fail(progress, current, outcome, run, fmt.Sprintf("%s: %v", current, err))
				return outcome, nil
			}
			next, handled := e.follow(def, current, ActionError)
			if !handled {
				e.fail(progress, current, outcome, run, fmt.Sprintf("%s: %v", current, err))
				return outcome, nil
			}
			progress.SetStatus(current, StatusFailed)
			current = next
			retries = 0
			continue
		}

		action, err := node.Post(ctx, run, prep, exec)
		if err != nil {
			e.fail(progress, current, outcome, run, fmt.Sprintf("%s: %v", current, err))
			return outcome, nil
		}

		switch action {
		case ActionRetry:
			if retries >= e.maxRetries {
				e.fail(progress, current, outcome, run, fmt.Sprintf("%s: retry limit reached", current))
				return outcome, nil
			}
			retries++
			progress.SetStatus(current, StatusPending)
			continue
		case ActionDone:
			progress.SetStatus(current, StatusCompleted)
			current = ""
		case "", ActionDefault:
			progress.SetStatus(current, StatusCompleted)
			next, ok := e.follow(def, current, ActionDefault)
			if !ok {
				current = ""
			} else {
				current = next
			}
			retries = 0
		default:
			next, ok := e.follow(def, current, action)
			if !ok {
				e.fail(progress, current, outcome, run, fmt.Sprintf("%s: no edge for action %q", current, action))
				return outcome, nil
			}
			progress.SetStatus(current, StatusCompleted)
			current = next
			retries = 0
		}
	}

	progress.MarkRemainingSkipped()
	snapshot := progress.Snapshot()
	outcome.Success = true
	outcome.ActionsTaken = run.actions
	outcome.Steps = snapshot.Steps
	outcome.Milestones = snapshot.Milestones
	outcome.State = run.State
	return outcome, nil
}

// follow resolves one edge, reporting whether it exists.
func (e *Executor) follow(def *Definition, from, action string) (string, bool) {
	actions, ok := def.Edges[from]
	if !ok {
		return "", false
	}
	next, ok := actions[action]
	return next, ok
}

// fail finalizes a failed outcome.
func (e *Executor) fail(progress *Progress, node string, outcome *Outcome, run *Run, message string) {
	progress.SetStatus(node, StatusFailed)
	progress.MarkRemainingSkipped()
	snapshot := progress.Snapshot()
	outcome.Success = false
	outcome.Error = message
	outcome.ActionsTaken = run.actions
	outcome.Steps = snapshot.Steps
	outcome.Milestones = snapshot.Milestones
	outcome.State = run.State
}
