package tools

import (
	"context"
	"fmt"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/nifi/shape"
)

// defaultPosition spaces components on the canvas when the caller gives no
// coordinates. Successive items within one batch are offset vertically so
// they do not stack.
const (
	defaultPosX    = 100.0
	defaultPosY    = 100.0
	positionStride = 180.0
)

// itemPosition reads the optional position of a batch item, defaulting to a
// staggered canvas slot by batch index.
func itemPosition(item map[string]any, index int) nifi.Position {
	pos := nifi.Position{
		X: defaultPosX,
		Y: defaultPosY + float64(index)*positionStride,
	}
	raw, ok := item["position"].(map[string]any)
	if !ok {
		return pos
	}
	pos.X = OptFloat(raw, "x", pos.X)
	pos.Y = OptFloat(raw, "y", pos.Y)
	return pos
}

// handleCreateProcessGroup creates one child process group.
func handleCreateProcessGroup(ctx context.Context, call *Call) (any, error) {
	name := call.String("name")
	if name == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"name\""}
	}
	parentID, err := effectiveParentID(ctx, call)
	if err != nil {
		return nil, err
	}

	pos := itemPosition(call.Args, 0)
	created, err := call.NiFi.CreateProcessGroup(ctx, parentID, name, pos)
	if err != nil {
		return nil, err
	}
	return shape.FromProcessGroup(created), nil
}

// handleCreateProcessors creates a batch of processors.
func handleCreateProcessors(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveParentID(ctx, call)
	if err != nil {
		return nil, err
	}
	items := call.Items("processors")
	index := 0
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		i := index
		index++

		procType, err := RequireString(item, "processor_type")
		if err != nil {
			if procType, err = RequireString(item, "type"); err != nil {
				return nil, fmt.Errorf("missing required field \"processor_type\"")
			}
		}
		name := OptString(item, "name")
		if name == "" {
			name = shortTypeName(procType)
		}

		created, err := call.NiFi.CreateProcessor(ctx, nifi.CreateProcessorRequest{
			GroupID:    OptStringDefault(item, "process_group_id", groupID),
			Type:       procType,
			Name:       name,
			Position:   itemPosition(item, i),
			Properties: OptStringMap(item, "properties"),
		})
		if err != nil {
			return nil, err
		}
		return shape.FromProcessor(created), nil
	}), nil
}

// handleCreatePorts creates a batch of input/output ports.
func handleCreatePorts(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveParentID(ctx, call)
	if err != nil {
		return nil, err
	}
	items := call.Items("ports")
	index := 0
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		i := index
		index++

		name, err := RequireString(item, "name")
		if err != nil {
			return nil, err
		}
		kindStr, err := RequireString(item, "port_type")
		if err != nil {
			return nil, err
		}
		objType, ok := ParseObjectType(kindStr)
		if !ok || (objType != TypeInputPort && objType != TypeOutputPort) {
			return nil, fmt.Errorf("port_type must be input_port or output_port, got %q", kindStr)
		}
		kind := nifi.PortInput
		if objType == TypeOutputPort {
			kind = nifi.PortOutput
		}

		created, err := call.NiFi.CreatePort(ctx, nifi.CreatePortRequest{
			GroupID:  OptStringDefault(item, "process_group_id", groupID),
			Kind:     kind,
			Name:     name,
			Position: itemPosition(item, i),
			Comments: OptString(item, "comments"),
		})
		if err != nil {
			return nil, err
		}
		return shape.FromPort(created), nil
	}), nil
}

// handleCreateControllerServices creates a batch of controller services.
func handleCreateControllerServices(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveParentID(ctx, call)
	if err != nil {
		return nil, err
	}
	items := call.Items("services")
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		svcType, err := RequireString(item, "service_type")
		if err != nil {
			if svcType, err = RequireString(item, "type"); err != nil {
				return nil, fmt.Errorf("missing required field \"service_type\"")
			}
		}
		name := OptString(item, "name")
		if name == "" {
			name = shortTypeName(svcType)
		}

		created, err := call.NiFi.CreateControllerService(ctx, nifi.CreateControllerServiceRequest{
			GroupID:    OptStringDefault(item, "process_group_id", groupID),
			Type:       svcType,
			Name:       name,
			Properties: OptStringMap(item, "properties"),
			Comments:   OptString(item, "comments"),
		})
		if err != nil {
			return nil, err
		}
		return shape.FromControllerService(created), nil
	}), nil
}

// handleCreateConnections creates a batch of connections. Source and
// destination accept either component ids or names scoped to the target
// group; ambiguous names fail the item with the candidate ids.
func handleCreateConnections(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveParentID(ctx, call)
	if err != nil {
		return nil, err
	}
	items := call.Items("connections")
	return RunBatch(ctx, items, func(ctx context.Context, item map[string]any) (any, error) {
		sourceRef := firstString(item, "source", "source_name", "source_id")
		if sourceRef == "" {
			return nil, fmt.Errorf("missing required field %q", "source")
		}
		destRef := firstString(item, "destination", "target_name", "target_id", "destination_name")
		if destRef == "" {
			return nil, fmt.Errorf("missing required field %q", "destination")
		}
		itemGroup := OptStringDefault(item, "process_group_id", groupID)

		source, err := resolveConnectable(ctx, call.NiFi, itemGroup, sourceRef)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		dest, err := resolveConnectable(ctx, call.NiFi, itemGroup, destRef)
		if err != nil {
			return nil, fmt.Errorf("destination: %w", err)
		}

		relationships := OptStringSlice(item, "relationships")
		if len(relationships) == 0 && source.Type == "PROCESSOR" {
			relationships = []string{"success"}
		}

		created, err := call.NiFi.CreateConnection(ctx, nifi.CreateConnectionRequest{
			GroupID:       itemGroup,
			Name:          OptString(item, "name"),
			Source:        nifi.ConnectableRef{ID: source.ID, GroupID: itemGroup, Type: source.Type},
			Destination:   nifi.ConnectableRef{ID: dest.ID, GroupID: itemGroup, Type: dest.Type},
			Relationships: relationships,
		})
		if err != nil {
			return nil, err
		}
		return shape.FromConnection(created), nil
	}), nil
}

// effectiveParentID resolves the group new components are created in,
// defaulting to the root group.
func effectiveParentID(ctx context.Context, call *Call) (string, error) {
	if id := call.String("process_group_id"); id != "" {
		return id, nil
	}
	if id := call.String("parent_group_id"); id != "" {
		return id, nil
	}
	return call.NiFi.GetRootGroupID(ctx)
}

// OptStringDefault reads an optional string field with a fallback.
func OptStringDefault(item map[string]any, key, def string) string {
	if s, ok := item[key].(string); ok && s != "" {
		return s
	}
	return def
}

// shortTypeName derives a display name from a fully qualified type.
func shortTypeName(fqtn string) string {
	for i := len(fqtn) - 1; i >= 0; i-- {
		if fqtn[i] == '.' {
			return fqtn[i+1:]
		}
	}
	return fqtn
}
