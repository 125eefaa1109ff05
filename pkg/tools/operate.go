package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/nifi/shape"
)

// Operation is one run-state transition request.
type Operation string

const (
	OpStart   Operation = "start"
	OpStop    Operation = "stop"
	OpEnable  Operation = "enable"
	OpDisable Operation = "disable"
)

// ParseOperation matches an operation case-insensitively, accepting the
// NiFi state names as aliases.
func ParseOperation(s string) (Operation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "run", "running":
		return OpStart, true
	case "stop", "stopped":
		return OpStop, true
	case "enable", "enabled":
		return OpEnable, true
	case "disable", "disabled":
		return OpDisable, true
	default:
		return "", false
	}
}

// handleOperateObjects applies a batch of run-state transitions. Each item
// is pre-checked against the object's current state so NiFi's opaque 409s
// become actionable messages: an invalid processor is skipped with a warning
// carrying its validation errors, a disabled processor is refused a start,
// an invalid service is refused an enable.
func handleOperateObjects(ctx context.Context, call *Call) (any, error) {
	items := call.Items("operations")
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		typeStr, err := RequireString(item, "object_type")
		if err != nil {
			return nil, err
		}
		objType, ok := ParseObjectType(typeStr)
		if !ok {
			return nil, fmt.Errorf("unknown object_type %q", typeStr)
		}
		id, err := RequireString(item, "object_id")
		if err != nil {
			return nil, err
		}
		opStr := OptString(item, "operation")
		if opStr == "" {
			opStr = OptString(item, "operation_type")
		}
		if opStr == "" {
			return nil, fmt.Errorf("missing required field %q", "operation")
		}
		op, ok := ParseOperation(opStr)
		if !ok {
			return nil, fmt.Errorf("unknown operation %q; use start, stop, enable or disable", opStr)
		}
		return operateObject(ctx, call.NiFi, objType, id, op)
	}), nil
}

func operateObject(ctx context.Context, client *nifi.Client, objType ObjectType, id string, op Operation) (any, error) {
	switch objType {
	case TypeProcessor:
		return operateProcessor(ctx, client, id, op)
	case TypePort, TypeInputPort, TypeOutputPort:
		return operatePort(ctx, client, id, op)
	case TypeControllerService:
		return operateControllerService(ctx, client, id, op)
	case TypeProcessGroup:
		return nil, fmt.Errorf("process groups are operated through their member components")
	default:
		return nil, fmt.Errorf("object_type %q has no run state", objType)
	}
}

func operateProcessor(ctx context.Context, client *nifi.Client, id string, op Operation) (any, error) {
	current, err := client.GetProcessor(ctx, id)
	if err != nil {
		return nil, err
	}
	state := ""
	validation := ""
	if current.Component != nil {
		state = current.Component.State
		validation = current.Component.ValidationStatus
	}

	switch op {
	case OpStart:
		if strings.EqualFold(state, "DISABLED") {
			return nil, fmt.Errorf("processor %s is disabled; enable it before starting", id)
		}
		if strings.EqualFold(validation, "INVALID") {
			errs := ""
			if current.Component != nil && len(current.Component.ValidationErrors) > 0 {
				errs = ": " + strings.Join(current.Component.ValidationErrors, "; ")
			}
			// No transition is attempted; the caller gets the validation
			// errors instead of NiFi's opaque 409.
			return nil, Warnf("processor %s is invalid and was not started%s", id, errs)
		}
		return transitionProcessor(ctx, client, id, "RUNNING")
	case OpStop:
		return transitionProcessor(ctx, client, id, "STOPPED")
	case OpEnable:
		// Enabling a processor means making it runnable; NiFi models that
		// as the STOPPED run status.
		return transitionProcessor(ctx, client, id, "STOPPED")
	case OpDisable:
		if strings.EqualFold(state, "RUNNING") {
			return nil, fmt.Errorf("processor %s is running; stop it before disabling", id)
		}
		return transitionProcessor(ctx, client, id, "DISABLED")
	}
	return nil, fmt.Errorf("unsupported operation %q", op)
}

func transitionProcessor(ctx context.Context, client *nifi.Client, id, state string) (any, error) {
	updated, err := client.UpdateProcessorRunState(ctx, id, state)
	if err != nil {
		return nil, err
	}
	return shape.FromProcessor(updated), nil
}

func operatePort(ctx context.Context, client *nifi.Client, id string, op Operation) (any, error) {
	state := ""
	switch op {
	case OpStart:
		state = "RUNNING"
	case OpStop, OpEnable:
		state = "STOPPED"
	case OpDisable:
		state = "DISABLED"
	}
	updated, err := client.UpdatePortRunState(ctx, id, state)
	if err != nil {
		return nil, err
	}
	return shape.FromPort(updated), nil
}

func operateControllerService(ctx context.Context, client *nifi.Client, id string, op Operation) (any, error) {
	current, err := client.GetControllerService(ctx, id)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpEnable, OpStart:
		if current.Component != nil && strings.EqualFold(current.Component.ValidationStatus, "INVALID") {
			errs := ""
			if len(current.Component.ValidationErrors) > 0 {
				errs = ": " + strings.Join(current.Component.ValidationErrors, "; ")
			}
			return nil, fmt.Errorf("controller service %s is invalid and cannot be enabled%s", id, errs)
		}
		updated, err := client.UpdateControllerServiceRunState(ctx, id, "ENABLED")
		if err != nil {
			return nil, err
		}
		return shape.FromControllerService(updated), nil
	case OpDisable, OpStop:
		if current.Component != nil && len(current.Component.ReferencingComponents) > 0 {
			running := runningReferences(current.Component.ReferencingComponents)
			if len(running) > 0 {
				return nil, fmt.Errorf("controller service %s has running referencing components: %s; stop them first",
					id, strings.Join(running, ", "))
			}
		}
		updated, err := client.UpdateControllerServiceRunState(ctx, id, "DISABLED")
		if err != nil {
			return nil, err
		}
		return shape.FromControllerService(updated), nil
	}
	return nil, fmt.Errorf("unsupported operation %q", op)
}

// runningReferences names the referencing components still running.
func runningReferences(refs []nifi.ReferencingComponent) []string {
	var running []string
	for _, ref := range refs {
		if ref.Component == nil {
			continue
		}
		if strings.EqualFold(ref.Component.State, "RUNNING") {
			running = append(running, fmt.Sprintf("%s (%s)", ref.Component.Name, ref.Component.ID))
		}
	}
	return running
}

// handlePurgeFlowFiles drops the queues of a batch of connections. Items are
// connection ids, bare or wrapped in objects; one connection failing never
// aborts the rest, and the summary aggregates the dropped totals.
func handlePurgeFlowFiles(ctx context.Context, call *Call) (any, error) {
	raw, ok := call.Args["connections"].([]any)
	if !ok {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"connections\""}
	}
	timeout := call.TimeoutSeconds(30 * time.Second)

	results := make([]shape.ConnectionDropResult, 0, len(raw))
	for _, item := range raw {
		connectionID := ""
		switch v := item.(type) {
		case string:
			connectionID = v
		case map[string]any:
			connectionID = OptString(v, "connection_id")
			if connectionID == "" {
				connectionID = OptString(v, "id")
			}
		}
		if connectionID == "" {
			results = append(results, shape.ConnectionDropResult{
				Success: false,
				Message: "item must be a connection id or an object with a connection_id field",
			})
			continue
		}
		dr, err := call.NiFi.DropQueue(ctx, connectionID, timeout)
		results = append(results, shape.FromDropRequest(connectionID, dr, err))
	}
	return shape.Summarize(results), nil
}
