package workflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nifiops/nifibridge/pkg/tools"
)

// countingRegistry returns a registry with one tool recording call counts.
func countingRegistry(t *testing.T, calls *int) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	require.NoError(t, r.Register(&tools.Descriptor{
		Name:   "touch",
		Phases: []tools.Phase{tools.PhaseOperate},
		Handler: func(ctx context.Context, call *tools.Call) (any, error) {
			*calls++
			return map[string]any{"ok": true}, nil
		},
	}))
	return r
}

// chainDef builds a linear workflow of n nodes, each dispatching one tool.
func chainDef(n int) *Definition {
	nodes := map[string]Node{}
	edges := map[string]map[string]string{}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("step_%d", i)
		nodes[name] = &funcNode{
			name: name,
			exec: func(ctx context.Context, run *Run, prep any) (any, error) {
				return run.CallTool(ctx, "touch", map[string]any{})
			},
			post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
				run.Milestone(fmt.Sprintf("%s done", run.progress.Snapshot().CurrentNode))
				return ActionDefault, nil
			},
		}
		if i < n-1 {
			edges[name] = map[string]string{ActionDefault: fmt.Sprintf("step_%d", i+1)}
		}
	}
	return &Definition{Name: "chain", Start: "step_0", Nodes: nodes, Edges: edges}
}

func TestExecute_LinearChainCompletes(t *testing.T) {
	calls := 0
	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{MaxActions: 10})

	outcome, err := exec.Execute(context.Background(), chainDef(3), nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, outcome.ActionsTaken)
	assert.Equal(t, "step_2", outcome.FinalNode)
}

func TestExecute_ActionCeilingTerminatesNode(t *testing.T) {
	calls := 0
	def := &Definition{
		Name:  "greedy",
		Start: "hungry",
		Nodes: map[string]Node{
			"hungry": &funcNode{
				name: "hungry",
				exec: func(ctx context.Context, run *Run, prep any) (any, error) {
					for i := 0; i < 4; i++ {
						if _, err := run.CallTool(ctx, "touch", map[string]any{}); err != nil {
							return nil, err
						}
					}
					return nil, nil
				},
			},
		},
		Edges: map[string]map[string]string{},
	}

	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{MaxActions: 3})
	outcome, err := exec.Execute(context.Background(), def, nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, "action_limit_exceeded", outcome.ErrorType)
	assert.Contains(t, outcome.Error, "action_limit_exceeded")
	// The fourth dispatch is blocked before reaching the tool.
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, outcome.Steps["hungry"].ActionsTaken)
	assert.Equal(t, StatusFailed, outcome.Steps["hungry"].Status)
}

func TestExecute_ActionCeilingResetsPerNode(t *testing.T) {
	calls := 0
	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{MaxActions: 1})

	// Five nodes each spend one action; no single node exceeds the ceiling.
	outcome, err := exec.Execute(context.Background(), chainDef(5), nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Empty(t, outcome.ErrorType)
	assert.Equal(t, 5, calls)
	assert.Equal(t, 5, outcome.ActionsTaken)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, outcome.Steps[fmt.Sprintf("step_%d", i)].ActionsTaken)
	}
}

func TestExecute_ErrorEdgeNavigates(t *testing.T) {
	recovered := false
	def := &Definition{
		Name:  "recovering",
		Start: "fragile",
		Nodes: map[string]Node{
			"fragile": &funcNode{
				name: "fragile",
				exec: func(ctx context.Context, run *Run, prep any) (any, error) {
					return nil, fmt.Errorf("boom")
				},
			},
			"fallback": &funcNode{
				name: "fallback",
				exec: func(ctx context.Context, run *Run, prep any) (any, error) {
					recovered = true
					return nil, nil
				},
				post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
					return ActionDone, nil
				},
			},
		},
		Edges: map[string]map[string]string{
			"fragile": {ActionError: "fallback"},
		},
	}

	exec := NewExecutor(tools.NewRegistry(), ExecutorConfig{})
	outcome, err := exec.Execute(context.Background(), def, nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, recovered)
}

func TestExecute_UnhandledErrorFailsRun(t *testing.T) {
	def := &Definition{
		Name:  "failing",
		Start: "only",
		Nodes: map[string]Node{
			"only": &funcNode{
				name: "only",
				exec: func(ctx context.Context, run *Run, prep any) (any, error) {
					return nil, fmt.Errorf("no handler for this")
				},
			},
		},
		Edges: map[string]map[string]string{},
	}

	exec := NewExecutor(tools.NewRegistry(), ExecutorConfig{})
	outcome, err := exec.Execute(context.Background(), def, nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "no handler for this")
}

func TestExecute_RetryLimit(t *testing.T) {
	attempts := 0
	def := &Definition{
		Name:  "retrying",
		Start: "flaky",
		Nodes: map[string]Node{
			"flaky": &funcNode{
				name: "flaky",
				exec: func(ctx context.Context, run *Run, prep any) (any, error) {
					attempts++
					return nil, nil
				},
				post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
					return ActionRetry, nil
				},
			},
		},
		Edges: map[string]map[string]string{},
	}

	exec := NewExecutor(tools.NewRegistry(), ExecutorConfig{MaxRetries: 2})
	outcome, err := exec.Execute(context.Background(), def, nil, &tools.Call{}, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "retry limit")
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestExecute_DeadlineCheckedBeforeExec(t *testing.T) {
	calls := 0
	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{})

	call := &tools.Call{Deadline: time.Now().Add(-time.Second)}
	outcome, err := exec.Execute(context.Background(), chainDef(2), nil, call, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "deadline")
	assert.Zero(t, calls)
}

func TestExecute_ProgressSnapshots(t *testing.T) {
	calls := 0
	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{})

	var snapshots []Snapshot
	outcome, err := exec.Execute(context.Background(), chainDef(2), nil, &tools.Call{}, func(s Snapshot) {
		snapshots = append(snapshots, s)
	})
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.NotEmpty(t, snapshots)

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, StatusCompleted, final.Steps["step_0"].Status)
	assert.Equal(t, StatusCompleted, final.Steps["step_1"].Status)
	assert.False(t, final.Steps["step_0"].Start.IsZero())
	assert.False(t, final.Steps["step_0"].End.Before(final.Steps["step_0"].Start))
}

func TestExecute_SkipsRemainingOnFailure(t *testing.T) {
	calls := 0
	exec := NewExecutor(countingRegistry(t, &calls), ExecutorConfig{})

	def := chainDef(4)
	def.Nodes["step_1"] = &funcNode{
		name: "step_1",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			return nil, fmt.Errorf("boom")
		},
	}

	var last Snapshot
	outcome, err := exec.Execute(context.Background(), def, nil, &tools.Call{}, func(s Snapshot) {
		last = s
	})
	require.NoError(t, err)
	require.False(t, outcome.Success)
	assert.Equal(t, StatusCompleted, last.Steps["step_0"].Status)
	assert.Equal(t, StatusFailed, last.Steps["step_1"].Status)
	assert.Equal(t, StatusSkipped, last.Steps["step_2"].Status)
	assert.Equal(t, StatusSkipped, last.Steps["step_3"].Status)
}

func TestProgress_MilestonesKeepMostRecentFive(t *testing.T) {
	p := NewProgress("w", []string{"n"}, nil)
	for i := 1; i <= 8; i++ {
		p.addMilestone(fmt.Sprintf("milestone %d", i))
	}
	got := p.Snapshot().Milestones
	require.Len(t, got, 5)
	assert.Equal(t, "milestone 4", got[0].Message)
	assert.Equal(t, "milestone 8", got[4].Message)
}

func TestDefinition_Validate(t *testing.T) {
	def := &Definition{Name: "bad", Start: "missing", Nodes: map[string]Node{}}
	assert.Error(t, def.Validate())

	def = chainDef(2)
	def.Edges["step_0"][ActionDefault] = "nope"
	assert.Error(t, def.Validate())
}

func TestBuiltin_RegistersShippedWorkflows(t *testing.T) {
	r := Builtin()
	for _, name := range []string{"build_simple_flow", "diagnose_flow"} {
		def, ok := r.Get(name)
		require.True(t, ok, name)
		assert.NoError(t, def.Validate())
	}
	assert.Len(t, r.List(), 2)
}
