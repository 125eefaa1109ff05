package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/nifi/shape"
)

// handleUpdateProcessorProperties applies a batch of processor configuration
// changes. Each item targets one processor by id; only the given fields
// change, and the revision is re-fetched per item.
func handleUpdateProcessorProperties(ctx context.Context, call *Call) (any, error) {
	items := call.Items("updates")
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		id, err := RequireString(item, "processor_id")
		if err != nil {
			return nil, err
		}

		update := nifi.ProcessorConfigUpdate{
			Properties: OptStringMap(item, "properties"),
		}
		if name := OptString(item, "name"); name != "" {
			update.Name = &name
		}
		if period := OptString(item, "scheduling_period"); period != "" {
			update.SchedulingPeriod = &period
		}
		if strategy := OptString(item, "scheduling_strategy"); strategy != "" {
			update.SchedulingStrategy = &strategy
		}
		if comments, ok := item["comments"].(string); ok {
			update.Comments = &comments
		}

		updated, err := call.NiFi.UpdateProcessorConfig(ctx, id, update)
		if err != nil {
			return nil, err
		}
		return shape.FromProcessor(updated), nil
	}), nil
}

// handleUpdateProcessorRelationships sets the auto-terminated relationships
// of a batch of processors. The list given replaces the current one; an
// empty list clears all auto-terminations.
func handleUpdateProcessorRelationships(ctx context.Context, call *Call) (any, error) {
	items := call.Items("updates")
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		id, err := RequireString(item, "processor_id")
		if err != nil {
			return nil, err
		}
		if _, present := item["auto_terminated_relationships"]; !present {
			return nil, fmt.Errorf("missing required field \"auto_terminated_relationships\"")
		}
		rels := OptStringSlice(item, "auto_terminated_relationships")
		if rels == nil {
			rels = []string{}
		}

		updated, err := call.NiFi.UpdateProcessorConfig(ctx, id, nifi.ProcessorConfigUpdate{
			AutoTerminatedRelationships: rels,
		})
		if err != nil {
			return nil, err
		}
		return shape.FromProcessor(updated), nil
	}), nil
}

// handleUpdateConnection updates one connection's selected relationships,
// name or back-pressure settings.
func handleUpdateConnection(ctx context.Context, call *Call) (any, error) {
	id := call.String("connection_id")
	if id == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"connection_id\""}
	}

	update := nifi.ConnectionUpdate{}
	changed := false
	if name := call.String("name"); name != "" {
		update.Name = &name
		changed = true
	}
	if _, present := call.Args["relationships"]; present {
		rels := OptStringSlice(call.Args, "relationships")
		if len(rels) == 0 {
			// NiFi rejects a connection with no selected relationships;
			// removing the connection is the way to stop the flow.
			return nil, &ToolError{Code: ErrBadRequest,
				Message: "a connection must keep at least one selected relationship; use delete_nifi_objects to remove it instead"}
		}
		update.Relationships = rels
		changed = true
	}
	if n, ok := call.Args["back_pressure_object_threshold"].(float64); ok {
		v := int64(n)
		update.BackPressureObjectThreshold = &v
		changed = true
	}
	if s := call.String("back_pressure_data_size_threshold"); s != "" {
		update.BackPressureDataSizeThreshold = &s
		changed = true
	}
	if s := call.String("flowfile_expiration"); s != "" {
		update.FlowFileExpiration = &s
		changed = true
	}
	if !changed {
		return nil, &ToolError{Code: ErrBadRequest, Message: "no connection fields to update"}
	}

	updated, err := call.NiFi.UpdateConnection(ctx, id, update)
	if err != nil {
		return nil, err
	}
	return shape.FromConnection(updated), nil
}

// deleteTier orders deletions so dependents go before their dependencies:
// connections first, then processors, ports and services, then groups.
func deleteTier(t ObjectType) int {
	switch t {
	case TypeConnection:
		return 0
	case TypeProcessor, TypePort, TypeInputPort, TypeOutputPort, TypeControllerService:
		return 1
	case TypeProcessGroup:
		return 2
	default:
		return 1
	}
}

// deleteTarget is one parsed deletion item carrying its input position.
type deleteTarget struct {
	index   int
	objType ObjectType
	id      string
	item    map[string]any
	err     error
}

// handleDeleteObjects deletes a batch of objects in dependency order.
// Results are reported in input order regardless of execution order, and a
// malformed item never blocks the rest.
func handleDeleteObjects(ctx context.Context, call *Call) (any, error) {
	items := call.Items("objects")

	targets := make([]deleteTarget, len(items))
	for i, item := range items {
		targets[i] = deleteTarget{index: i, item: item}
		typeStr, err := RequireString(item, "object_type")
		if err != nil {
			targets[i].err = err
			continue
		}
		objType, ok := ParseObjectType(typeStr)
		if !ok {
			targets[i].err = fmt.Errorf("unknown object_type %q", typeStr)
			continue
		}
		id, err := RequireString(item, "object_id")
		if err != nil {
			targets[i].err = err
			continue
		}
		targets[i].objType = objType
		targets[i].id = id
	}

	// Stable sort by tier keeps input order within a tier.
	ordered := make([]*deleteTarget, len(targets))
	for i := range targets {
		ordered[i] = &targets[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return deleteTier(ordered[i].objType) < deleteTier(ordered[j].objType)
	})

	results := make([]ItemResult, len(targets))
	for _, t := range ordered {
		if t.err != nil {
			results[t.index] = ItemResult{
				Status:       StatusError,
				Message:      t.err.Error(),
				RequestIndex: t.index,
				Input:        t.item,
			}
			continue
		}
		if err := deleteObject(ctx, call.NiFi, t.objType, t.id); err != nil {
			results[t.index] = ItemResult{
				Status:       StatusError,
				Message:      itemErrorMessage(err),
				RequestIndex: t.index,
				Input:        t.item,
			}
			continue
		}
		results[t.index] = ItemResult{
			Status:       StatusSuccess,
			Message:      fmt.Sprintf("%s %s deleted", t.objType, t.id),
			RequestIndex: t.index,
		}
	}
	LogBatchSummary(ctx, results)
	return results, nil
}

// deleteObject dispatches one deletion by object type.
func deleteObject(ctx context.Context, client *nifi.Client, objType ObjectType, id string) error {
	switch objType {
	case TypeProcessor:
		return client.DeleteProcessor(ctx, id)
	case TypeConnection:
		return client.DeleteConnection(ctx, id)
	case TypePort, TypeInputPort, TypeOutputPort:
		return client.DeletePort(ctx, id)
	case TypeProcessGroup:
		return client.DeleteProcessGroup(ctx, id)
	case TypeControllerService:
		return client.DeleteControllerService(ctx, id)
	default:
		return fmt.Errorf("object_type %q cannot be deleted", objType)
	}
}
