package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nifiops/nifibridge/pkg/nifi/shape"
	"github.com/nifiops/nifibridge/pkg/tools"
)

// funcNode adapts plain functions to the Node interface. Nil stages are
// no-ops; a nil post routes on the exec result's "status" field when there
// is one, and follows the default edge otherwise.
type funcNode struct {
	name string
	prep func(ctx context.Context, run *Run) (any, error)
	exec func(ctx context.Context, run *Run, prep any) (any, error)
	post func(ctx context.Context, run *Run, prep, exec any) (string, error)
}

func (n *funcNode) Name() string { return n.name }

func (n *funcNode) Prep(ctx context.Context, run *Run) (any, error) {
	if n.prep == nil {
		return nil, nil
	}
	return n.prep(ctx, run)
}

func (n *funcNode) Exec(ctx context.Context, run *Run, prep any) (any, error) {
	if n.exec == nil {
		return nil, nil
	}
	return n.exec(ctx, run, prep)
}

func (n *funcNode) Post(ctx context.Context, run *Run, prep, exec any) (string, error) {
	if n.post == nil {
		return defaultAction(exec), nil
	}
	return n.post(ctx, run, prep, exec)
}

// defaultAction routes a raw exec result: a map carrying status "error" or
// "retry" takes the matching edge, everything else takes the default one.
func defaultAction(exec any) string {
	m, ok := exec.(map[string]any)
	if !ok {
		return ActionDefault
	}
	switch status, _ := m["status"].(string); status {
	case "error":
		return ActionError
	case "retry":
		return ActionRetry
	default:
		return ActionDefault
	}
}

// batchFailures counts the failed items of a batch tool result.
func batchFailures(result any) (failed int, messages []string) {
	items, ok := result.([]tools.ItemResult)
	if !ok {
		return 0, nil
	}
	for _, item := range items {
		if item.Status == tools.StatusError {
			failed++
			messages = append(messages, fmt.Sprintf("item %d: %s", item.RequestIndex, item.Message))
		}
	}
	return failed, messages
}

// createdIDs extracts the created entity ids of a successful batch result.
func createdIDs(result any) []string {
	items, ok := result.([]tools.ItemResult)
	if !ok {
		return nil
	}
	var ids []string
	for _, item := range items {
		if id, ok := idOf(item.Entity); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// idOf pulls the id off the shaped entities tool handlers return.
func idOf(entity any) (string, bool) {
	switch e := entity.(type) {
	case *shape.Processor:
		return e.ID, e.ID != ""
	case *shape.ProcessGroup:
		return e.ID, e.ID != ""
	case *shape.Port:
		return e.ID, e.ID != ""
	case *shape.Connection:
		return e.ID, e.ID != ""
	case *shape.ControllerService:
		return e.ID, e.ID != ""
	case map[string]any:
		id, ok := e["id"].(string)
		return id, ok && id != ""
	default:
		return "", false
	}
}

// BuildSimpleFlow is a guided workflow that creates a linear flow: a new
// process group, the requested processors inside it, and connections
// chaining them in order. Inputs: flow_name, processors (the same item
// shape create_nifi_processors takes), optional process_group_id for the
// parent and auto_start.
func BuildSimpleFlow() *Definition {
	plan := &funcNode{
		name: "plan",
		prep: func(ctx context.Context, run *Run) (any, error) {
			if run.String("flow_name") == "" {
				return nil, fmt.Errorf("missing required input \"flow_name\"")
			}
			procs, ok := run.State["processors"].([]any)
			if !ok || len(procs) == 0 {
				return nil, fmt.Errorf("missing required input \"processors\"")
			}
			if len(procs) < 2 {
				return nil, fmt.Errorf("a flow needs at least two processors to connect")
			}
			return procs, nil
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.Milestone(fmt.Sprintf("planned flow %q with %d processors",
				run.String("flow_name"), len(prep.([]any))))
			return ActionDefault, nil
		},
	}

	createGroup := &funcNode{
		name: "create_group",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			args := map[string]any{"name": run.String("flow_name")}
			if parent := run.String("process_group_id"); parent != "" {
				args["process_group_id"] = parent
			}
			return run.CallTool(ctx, "create_nifi_process_group", args)
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			id, ok := idOf(exec)
			if !ok {
				return "", fmt.Errorf("created group has no id")
			}
			run.State["group_id"] = id
			run.StoreResult("create_group", exec)
			run.Milestone(fmt.Sprintf("created process group %s", id))
			return ActionDefault, nil
		},
	}

	createProcessors := &funcNode{
		name: "create_processors",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			return run.CallTool(ctx, "create_nifi_processors", map[string]any{
				"process_group_id": run.String("group_id"),
				"processors":       run.State["processors"],
			})
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("create_processors", exec)
			if failed, msgs := batchFailures(exec); failed > 0 {
				run.State["failure"] = fmt.Sprintf("%d processors failed: %s", failed, strings.Join(msgs, "; "))
				return ActionError, nil
			}
			ids := createdIDs(exec)
			run.State["processor_ids"] = ids
			run.Milestone(fmt.Sprintf("created %d processors", len(ids)))
			return ActionDefault, nil
		},
	}

	connect := &funcNode{
		name: "connect",
		prep: func(ctx context.Context, run *Run) (any, error) {
			ids, ok := run.State["processor_ids"].([]string)
			if !ok || len(ids) < 2 {
				return nil, fmt.Errorf("not enough created processors to connect")
			}
			return ids, nil
		},
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			ids := prep.([]string)
			connections := make([]any, 0, len(ids)-1)
			for i := 0; i < len(ids)-1; i++ {
				connections = append(connections, map[string]any{
					"source":      ids[i],
					"destination": ids[i+1],
				})
			}
			return run.CallTool(ctx, "create_nifi_connections", map[string]any{
				"process_group_id": run.String("group_id"),
				"connections":      connections,
			})
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("connect", exec)
			if failed, msgs := batchFailures(exec); failed > 0 {
				run.State["failure"] = fmt.Sprintf("%d connections failed: %s", failed, strings.Join(msgs, "; "))
				return ActionError, nil
			}
			run.Milestone("connected processors in order")
			if autoStart, _ := run.State["auto_start"].(bool); autoStart {
				return "start", nil
			}
			return ActionDefault, nil
		},
	}

	start := &funcNode{
		name: "start",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			ids, _ := run.State["processor_ids"].([]string)
			operations := make([]any, 0, len(ids))
			for _, id := range ids {
				operations = append(operations, map[string]any{
					"object_type": "processor", "object_id": id, "operation": "start",
				})
			}
			return run.CallTool(ctx, "operate_nifi_objects", map[string]any{"operations": operations})
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("start", exec)
			if failed, msgs := batchFailures(exec); failed > 0 {
				run.State["failure"] = fmt.Sprintf("%d processors did not start: %s", failed, strings.Join(msgs, "; "))
				return ActionError, nil
			}
			run.Milestone("started all processors")
			return ActionDefault, nil
		},
	}

	verify := &funcNode{
		name: "verify",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			return run.CallTool(ctx, "get_process_group_status", map[string]any{
				"process_group_id": run.String("group_id"),
			})
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("verify", exec)
			run.Milestone("verified group status")
			return ActionDone, nil
		},
	}

	reportFailure := &funcNode{
		name: "report_failure",
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			return "", fmt.Errorf("%s", run.String("failure"))
		},
	}

	return &Definition{
		Name:        "build_simple_flow",
		Description: "Create a process group with a linear chain of processors and verify it.",
		Start:       "plan",
		Nodes: map[string]Node{
			"plan":              plan,
			"create_group":      createGroup,
			"create_processors": createProcessors,
			"connect":           connect,
			"start":             start,
			"verify":            verify,
			"report_failure":    reportFailure,
		},
		Edges: map[string]map[string]string{
			"plan":              {ActionDefault: "create_group"},
			"create_group":      {ActionDefault: "create_processors"},
			"create_processors": {ActionDefault: "connect", ActionError: "report_failure"},
			"connect":           {ActionDefault: "verify", "start": "start", ActionError: "report_failure"},
			"start":             {ActionDefault: "verify", ActionError: "report_failure"},
		},
	}
}

// DiagnoseFlow is a guided workflow that inspects a group and reports what
// is unhealthy: invalid components, stopped processors, error bulletins and
// queue buildup. Input: optional process_group_id.
func DiagnoseFlow() *Definition {
	collectStatus := &funcNode{
		name: "collect_status",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			args := map[string]any{}
			if id := run.String("process_group_id"); id != "" {
				args["process_group_id"] = id
			}
			return run.CallTool(ctx, "get_process_group_status", args)
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("collect_status", exec)
			run.Milestone("collected group status")
			return ActionDefault, nil
		},
	}

	collectBulletins := &funcNode{
		name: "collect_bulletins",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			return run.CallTool(ctx, "get_bulletin_board", map[string]any{"limit": float64(50)})
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("collect_bulletins", exec)
			return ActionDefault, nil
		},
	}

	inspect := &funcNode{
		name: "inspect_components",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			args := map[string]any{"object_type": "processor"}
			if id := run.String("process_group_id"); id != "" {
				args["process_group_id"] = id
			}
			return run.CallTool(ctx, "list_nifi_objects", args)
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.StoreResult("inspect_components", exec)
			return ActionDefault, nil
		},
	}

	report := &funcNode{
		name: "report",
		exec: func(ctx context.Context, run *Run, prep any) (any, error) {
			return buildDiagnosis(run), nil
		},
		post: func(ctx context.Context, run *Run, prep, exec any) (string, error) {
			run.State["diagnosis"] = exec
			run.Milestone("diagnosis assembled")
			return ActionDone, nil
		},
	}

	return &Definition{
		Name:        "diagnose_flow",
		Description: "Inspect a process group and report invalid components, error bulletins and queue buildup.",
		Start:       "collect_status",
		Nodes: map[string]Node{
			"collect_status":     collectStatus,
			"collect_bulletins":  collectBulletins,
			"inspect_components": inspect,
			"report":             report,
		},
		Edges: map[string]map[string]string{
			"collect_status": {ActionDefault: "collect_bulletins"},
			// Bulletins failing must not block the diagnosis.
			"collect_bulletins":  {ActionDefault: "inspect_components", ActionError: "inspect_components"},
			"inspect_components": {ActionDefault: "report"},
		},
	}
}

// buildDiagnosis assembles findings from the collected state.
func buildDiagnosis(run *Run) map[string]any {
	diagnosis := map[string]any{"findings": []any{}}
	var findings []any

	if procs, ok := run.State["inspect_components_result"]; ok {
		for _, p := range asProcessorList(procs) {
			if strings.EqualFold(p.ValidationStatus, "INVALID") {
				findings = append(findings, map[string]any{
					"kind": "invalid_processor", "id": p.ID, "name": p.Name,
					"errors": p.ValidationErrors,
				})
			} else if strings.EqualFold(p.State, "STOPPED") {
				findings = append(findings, map[string]any{
					"kind": "stopped_processor", "id": p.ID, "name": p.Name,
				})
			}
		}
	}

	if bulletins, ok := run.State["collect_bulletins_result"]; ok {
		for _, b := range asObjectList(bulletins) {
			level, _ := b["level"].(string)
			if strings.EqualFold(level, "ERROR") || strings.EqualFold(level, "WARNING") {
				findings = append(findings, map[string]any{
					"kind": "bulletin", "level": level,
					"source":  b["sourceName"],
					"message": b["message"],
				})
			}
		}
	}

	diagnosis["findings"] = findings
	diagnosis["healthy"] = len(findings) == 0
	if status, ok := run.Result("collect_status"); ok {
		diagnosis["status"] = status
	}
	return diagnosis
}

// asProcessorList coerces the shapes list_nifi_objects results arrive in:
// shaped structs when called in process, generic maps after a JSON hop.
func asProcessorList(v any) []*shape.Processor {
	switch list := v.(type) {
	case []*shape.Processor:
		return list
	case []any:
		out := make([]*shape.Processor, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			p := &shape.Processor{}
			p.ID, _ = m["id"].(string)
			p.Name, _ = m["name"].(string)
			p.State, _ = m["state"].(string)
			p.ValidationStatus, _ = m["validationStatus"].(string)
			out = append(out, p)
		}
		return out
	default:
		return nil
	}
}

// asObjectList coerces the two shapes tool results arrive in.
func asObjectList(v any) []map[string]any {
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
