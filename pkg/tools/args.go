package tools

import (
	"context"
	"fmt"

	"github.com/nifiops/nifibridge/internal/logger"
)

// Argument auto-correction.
//
// LLM callers routinely emit near-miss argument shapes: a renamed batch key,
// the batch nested one level deep under the tool's own parameter name, or a
// lone object where a list is expected. The normalizer repairs those shapes
// before validation so handlers only ever see the canonical form. Every
// repair is logged at debug level; normalization is idempotent.

// collectionParams maps each tool to its batch parameter, when it has one.
var collectionParams = map[string]string{
	"create_nifi_processors":               "processors",
	"create_nifi_ports":                    "ports",
	"create_controller_services":           "services",
	"create_nifi_connections":              "connections",
	"update_nifi_processors_properties":    "updates",
	"update_nifi_processor_relationships":  "updates",
	"delete_nifi_objects":                  "objects",
	"operate_nifi_objects":                 "operations",
	"purge_flowfiles":                      "connections",
	"lookup_nifi_processor_types":          "processors",
}

// renameTables maps tool -> accepted alias -> canonical parameter name.
var renameTables = map[string]map[string]string{
	"delete_nifi_objects": {
		"deletion_requests": "objects",
		"delete_requests":   "objects",
		"items":             "objects",
		"targets":           "objects",
	},
	"operate_nifi_objects": {
		"objects":    "operations",
		"items":      "operations",
		"operation":  "operations",
		"actions":    "operations",
	},
	"update_nifi_processors_properties": {
		"processors": "updates",
		"items":      "updates",
	},
	"update_nifi_processor_relationships": {
		"processors": "updates",
		"items":      "updates",
	},
	"create_nifi_processors": {
		"items": "processors",
	},
	"create_nifi_ports": {
		"items": "ports",
	},
	"create_controller_services": {
		"items":               "services",
		"controller_services": "services",
	},
	"create_nifi_connections": {
		"items": "connections",
	},
	"purge_flowfiles": {
		"items":          "connections",
		"connection_ids": "connections",
	},
	"lookup_nifi_processor_types": {
		"items":           "processors",
		"processor_types": "processors",
	},
}

// NormalizeArgs repairs near-miss argument shapes for a tool. It returns the
// corrected map; the input map may be modified in place.
func NormalizeArgs(ctx context.Context, tool string, args map[string]any) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}

	// Nested-self flattening: {"<tool>": {...}} or {"<param>": {"<param>": [...]}}.
	args = flattenNestedSelf(ctx, tool, args)

	// Alias renames.
	if table, ok := renameTables[tool]; ok {
		canonical := collectionParams[tool]
		if _, present := args[canonical]; !present {
			for alias, target := range table {
				if v, ok := args[alias]; ok {
					logger.DebugCtx(ctx, "renamed tool argument",
						logger.KeyTool, tool, "from", alias, "to", target)
					args[target] = v
					delete(args, alias)
					break
				}
			}
		}
	}

	// Single-item coercion: a lone object for a batch parameter becomes a
	// one-item list.
	if param, ok := collectionParams[tool]; ok {
		if v, present := args[param]; present {
			if m, isMap := v.(map[string]any); isMap {
				logger.DebugCtx(ctx, "coerced lone object into single-item list",
					logger.KeyTool, tool, "param", param)
				args[param] = []any{m}
			}
		}
	}

	if err := checkStructure(tool, args); err != nil {
		return nil, err
	}
	return args, nil
}

// flattenNestedSelf unwraps one level of self-nesting: the whole argument
// object wrapped under the tool name, or a batch parameter wrapped under its
// own name.
func flattenNestedSelf(ctx context.Context, tool string, args map[string]any) map[string]any {
	if len(args) == 1 {
		if inner, ok := args[tool].(map[string]any); ok {
			logger.DebugCtx(ctx, "flattened arguments nested under tool name", logger.KeyTool, tool)
			args = inner
		}
	}
	param, ok := collectionParams[tool]
	if !ok {
		return args
	}
	if wrapper, isMap := args[param].(map[string]any); isMap && len(wrapper) == 1 {
		if inner, ok := wrapper[param]; ok {
			logger.DebugCtx(ctx, "flattened batch parameter nested under itself",
				logger.KeyTool, tool, "param", param)
			args[param] = inner
		}
	}
	return args
}

// scalarBatchTools accept plain strings as batch items in addition to
// objects (connection ids, processor type names).
var scalarBatchTools = map[string]bool{
	"purge_flowfiles":             true,
	"lookup_nifi_processor_types": true,
}

// checkStructure validates the canonical argument shape. Messages carry the
// offending index so batch callers can point at the broken item.
func checkStructure(tool string, args map[string]any) error {
	param, ok := collectionParams[tool]
	if !ok {
		return nil
	}
	v, present := args[param]
	if !present {
		return &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("missing required parameter %q", param)}
	}
	list, ok := v.([]any)
	if !ok {
		if s, isStr := v.(string); isStr && scalarBatchTools[tool] {
			args[param] = []any{s}
			return nil
		}
		return &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("parameter %q must be a list of objects", param)}
	}
	if len(list) == 0 {
		return &ToolError{Code: ErrBadRequest, Message: fmt.Sprintf("parameter %q must not be empty", param)}
	}
	for i, item := range list {
		switch item.(type) {
		case map[string]any:
		case string:
			if !scalarBatchTools[tool] {
				return &ToolError{
					Code:    ErrBadRequest,
					Message: fmt.Sprintf("parameter %q item %d must be an object, got string", param, i),
				}
			}
		default:
			return &ToolError{
				Code:    ErrBadRequest,
				Message: fmt.Sprintf("parameter %q item %d must be an object, got %T", param, i, item),
			}
		}
	}
	return nil
}
