package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/nifi/shape"
)

// handleListObjects lists the objects of one type inside a process group.
// process_group_id defaults to the root group.
func handleListObjects(ctx context.Context, call *Call) (any, error) {
	objType, ok := ParseObjectType(call.StringDefault("object_type", "processor"))
	if !ok {
		return nil, &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("unknown object_type %q", call.String("object_type"))}
	}
	groupID, err := effectiveGroupID(ctx, call)
	if err != nil {
		return nil, err
	}

	switch objType {
	case TypeProcessor:
		entities, err := call.NiFi.ListProcessors(ctx, groupID)
		if err != nil {
			return nil, err
		}
		out := make([]*shape.Processor, 0, len(entities))
		for i := range entities {
			out = append(out, shape.FromProcessor(&entities[i]))
		}
		return out, nil
	case TypeConnection:
		entities, err := call.NiFi.ListConnections(ctx, groupID)
		if err != nil {
			return nil, err
		}
		out := make([]*shape.Connection, 0, len(entities))
		for i := range entities {
			out = append(out, shape.FromConnection(&entities[i]))
		}
		return out, nil
	case TypePort, TypeInputPort, TypeOutputPort:
		return listPorts(ctx, call.NiFi, groupID, objType)
	case TypeProcessGroup:
		entities, err := call.NiFi.ListProcessGroups(ctx, groupID)
		if err != nil {
			return nil, err
		}
		out := make([]*shape.ProcessGroup, 0, len(entities))
		for i := range entities {
			out = append(out, shape.FromProcessGroup(&entities[i]))
		}
		return out, nil
	case TypeControllerService:
		entities, err := call.NiFi.ListControllerServices(ctx, groupID)
		if err != nil {
			return nil, err
		}
		out := make([]*shape.ControllerService, 0, len(entities))
		for i := range entities {
			out = append(out, shape.FromControllerService(&entities[i]))
		}
		return out, nil
	default:
		return nil, &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("object_type %q cannot be listed", objType)}
	}
}

// listPorts lists one or both port variants of a group.
func listPorts(ctx context.Context, client *nifi.Client, groupID string, objType ObjectType) (any, error) {
	var entities []nifi.PortEntity
	if objType == TypePort || objType == TypeInputPort {
		inputs, err := client.ListInputPorts(ctx, groupID)
		if err != nil {
			return nil, err
		}
		entities = append(entities, inputs...)
	}
	if objType == TypePort || objType == TypeOutputPort {
		outputs, err := client.ListOutputPorts(ctx, groupID)
		if err != nil {
			return nil, err
		}
		entities = append(entities, outputs...)
	}
	out := make([]*shape.Port, 0, len(entities))
	for i := range entities {
		out = append(out, shape.FromPort(&entities[i]))
	}
	return out, nil
}

// handleGetObjectDetails fetches one object by id and shapes it.
func handleGetObjectDetails(ctx context.Context, call *Call) (any, error) {
	objType, ok := ParseObjectType(call.StringDefault("object_type", "processor"))
	if !ok {
		return nil, &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("unknown object_type %q", call.String("object_type"))}
	}
	id := call.String("object_id")
	if id == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"object_id\""}
	}

	switch objType {
	case TypeProcessor:
		e, err := call.NiFi.GetProcessor(ctx, id)
		if err != nil {
			return nil, err
		}
		return shape.FromProcessor(e), nil
	case TypeConnection:
		e, err := call.NiFi.GetConnection(ctx, id)
		if err != nil {
			return nil, err
		}
		return shape.FromConnection(e), nil
	case TypePort, TypeInputPort, TypeOutputPort:
		e, err := call.NiFi.GetPort(ctx, id)
		if err != nil {
			return nil, err
		}
		return shape.FromPort(e), nil
	case TypeProcessGroup:
		e, err := call.NiFi.GetProcessGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		return shape.FromProcessGroup(e), nil
	case TypeControllerService:
		e, err := call.NiFi.GetControllerService(ctx, id)
		if err != nil {
			return nil, err
		}
		return shape.FromControllerService(e), nil
	default:
		return nil, &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("object_type %q has no details view", objType)}
	}
}

// handleGroupStatus returns the status snapshot of a group, raw from NiFi.
func handleGroupStatus(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveGroupID(ctx, call)
	if err != nil {
		return nil, err
	}
	raw, err := call.NiFi.GetProcessGroupStatus(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var status map[string]any
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, &ToolError{Code: ErrInternal, Message: "status snapshot is not valid JSON"}
	}
	return status, nil
}

// handleSearchFlow runs a flow-wide search.
func handleSearchFlow(ctx context.Context, call *Call) (any, error) {
	query := call.String("query")
	if query == "" {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"query\""}
	}
	return call.NiFi.SearchFlow(ctx, query)
}

// handleBulletinBoard fetches recent bulletins, optionally for one source.
func handleBulletinBoard(ctx context.Context, call *Call) (any, error) {
	limit := 0
	if n, ok := call.Args["limit"].(float64); ok {
		limit = int(n)
	}
	bulletins, err := call.NiFi.GetBulletinBoard(ctx, call.String("source_id"), limit)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(bulletins))
	for _, b := range bulletins {
		if b.Bulletin == nil {
			continue
		}
		out = append(out, map[string]any{
			"id":         b.Bulletin.ID,
			"level":      b.Bulletin.Level,
			"sourceId":   b.Bulletin.SourceID,
			"sourceName": b.Bulletin.SourceName,
			"category":   b.Bulletin.Category,
			"message":    b.Bulletin.Message,
			"timestamp":  b.Bulletin.Timestamp,
		})
	}
	return out, nil
}

// handleLookupProcessorTypes looks up catalog entries for a batch of
// processor type queries. Each item is either a bare string or an object
// with a processor_type field; matching is a case-insensitive substring
// match against the fully qualified type name.
func handleLookupProcessorTypes(ctx context.Context, call *Call) (any, error) {
	raw, ok := call.Args["processors"].([]any)
	if !ok {
		return nil, &ToolError{Code: ErrBadRequest, Message: "missing required parameter \"processors\""}
	}

	catalog, err := call.NiFi.ListProcessorTypes(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(raw))
	for i, item := range raw {
		query := ""
		switch v := item.(type) {
		case string:
			query = v
		case map[string]any:
			query = OptString(v, "processor_type")
			if query == "" {
				query = OptString(v, "type")
			}
		}
		if query == "" {
			results = append(results, ItemResult{
				Status:       StatusError,
				Message:      "item must be a type name or an object with a processor_type field",
				RequestIndex: i,
			})
			continue
		}

		matches := matchProcessorTypes(catalog, query)
		if len(matches) == 0 {
			results = append(results, ItemResult{
				Status:       StatusError,
				Message:      fmt.Sprintf("no processor type matching %q", query),
				RequestIndex: i,
			})
			continue
		}
		results = append(results, ItemResult{
			Status:       StatusSuccess,
			Entity:       matches,
			RequestIndex: i,
		})
	}
	return results, nil
}

// matchProcessorTypes filters the catalog by case-insensitive substring.
func matchProcessorTypes(catalog []nifi.DocumentedType, query string) []nifi.DocumentedType {
	q := strings.ToLower(query)
	var matches []nifi.DocumentedType
	for _, t := range catalog {
		if strings.Contains(strings.ToLower(t.Type), q) {
			matches = append(matches, t)
		}
	}
	return matches
}

// effectiveGroupID resolves the optional process_group_id argument, falling
// back to the root group. "root" passes through untouched; NiFi accepts it
// as an alias everywhere.
func effectiveGroupID(ctx context.Context, call *Call) (string, error) {
	if id := call.String("process_group_id"); id != "" {
		return id, nil
	}
	return call.NiFi.GetRootGroupID(ctx)
}
