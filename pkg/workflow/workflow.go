// Package workflow implements guided multi-step procedures on top of the
// tool registry.
//
// A workflow is a linear chain of named nodes. Each node runs in three
// stages: Prep validates and gathers inputs from the shared state, Exec
// performs the work (usually by dispatching tools), and Post stores results
// and picks the next edge. Every tool dispatch counts against the node's
// action ceiling; a node that exhausts it terminates the run with
// ErrActionLimit.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nifiops/nifibridge/pkg/tools"
)

// Edge actions a Post stage may return.
const (
	ActionDefault = "default"
	ActionError   = "error"
	ActionRetry   = "retry"
	ActionDone    = "done"
)

// ErrActionLimit terminates a run whose current node exhausted its action
// ceiling.
var ErrActionLimit = errors.New("action_limit_exceeded")

// Node is one step of a workflow.
//
// Prep reads the shared state and returns the node's working input. Exec
// does the work. Post stores results back into the state and returns the
// edge action to follow; returning ActionDone ends the run successfully.
type Node interface {
	Name() string
	Prep(ctx context.Context, run *Run) (any, error)
	Exec(ctx context.Context, run *Run, prep any) (any, error)
	Post(ctx context.Context, run *Run, prep, exec any) (string, error)
}

// Definition is an immutable workflow description.
type Definition struct {
	Name        string
	Description string
	Start       string
	Nodes       map[string]Node
	// Edges maps node name and action to the next node. A missing entry
	// for ActionDefault ends the run; a missing entry for ActionError
	// fails it.
	Edges map[string]map[string]string
}

// Validate checks the definition is a runnable graph.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow has no name")
	}
	if _, ok := d.Nodes[d.Start]; !ok {
		return fmt.Errorf("workflow %s: start node %q is not defined", d.Name, d.Start)
	}
	for from, actions := range d.Edges {
		if _, ok := d.Nodes[from]; !ok {
			return fmt.Errorf("workflow %s: edge from undefined node %q", d.Name, from)
		}
		for action, to := range actions {
			if _, ok := d.Nodes[to]; !ok {
				return fmt.Errorf("workflow %s: edge %s/%s targets undefined node %q", d.Name, from, action, to)
			}
		}
	}
	return nil
}

// Run is the mutable state of one workflow execution. It is confined to the
// executor goroutine; progress snapshots are how other goroutines observe it.
type Run struct {
	// State is the shared blackboard. Node results land under
	// "<node>_result"; inputs arrive under their parameter names.
	State map[string]any

	registry    *tools.Registry
	call        *tools.Call
	progress    *Progress
	node        string
	actions     int
	nodeActions int
	maxActions  int
	deadline    time.Time
}

// CallTool dispatches one tool against the run's NiFi server, counting it
// toward the current node's action ceiling. The counter resets when the run
// moves to another node; a node that exhausts it gets ErrActionLimit and no
// further dispatches.
func (r *Run) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	if r.maxActions > 0 && r.nodeActions >= r.maxActions {
		return nil, ErrActionLimit
	}
	r.nodeActions++
	r.actions++
	r.progress.AddAction(r.node)

	call := &tools.Call{
		NiFi:      r.call.NiFi,
		RequestID: r.call.RequestID,
		ActionID:  r.call.ActionID,
		Deadline:  r.deadline,
		Args:      args,
	}
	return r.registry.Dispatch(ctx, name, call)
}

// ActionsTaken reports the number of tool dispatches across the whole run.
func (r *Run) ActionsTaken() int { return r.actions }

// enterNode points the counters at a node, resetting the per-node budget.
func (r *Run) enterNode(name string) {
	r.node = name
	r.nodeActions = 0
}

// Milestone records a noteworthy checkpoint for the run summary.
func (r *Run) Milestone(message string) {
	r.progress.addMilestone(message)
}

// StoreResult places a node's result under its conventional state key.
func (r *Run) StoreResult(node string, result any) {
	r.State[node+"_result"] = result
}

// Result reads a prior node's result.
func (r *Run) Result(node string) (any, bool) {
	v, ok := r.State[node+"_result"]
	return v, ok
}

// String reads a string input from the shared state.
func (r *Run) String(key string) string {
	s, _ := r.State[key].(string)
	return s
}
