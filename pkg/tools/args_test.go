package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeArgs_RenamesAliases(t *testing.T) {
	args, err := NormalizeArgs(context.Background(), "delete_nifi_objects", map[string]any{
		"deletion_requests": []any{map[string]any{"object_type": "processor", "object_id": "p1"}},
	})
	require.NoError(t, err)
	assert.Contains(t, args, "objects")
	assert.NotContains(t, args, "deletion_requests")
}

func TestNormalizeArgs_CanonicalNameWinsOverAlias(t *testing.T) {
	canonical := []any{map[string]any{"object_id": "keep"}}
	args, err := NormalizeArgs(context.Background(), "delete_nifi_objects", map[string]any{
		"objects": canonical,
		"items":   []any{map[string]any{"object_id": "drop"}},
	})
	require.NoError(t, err)
	assert.Equal(t, canonical, args["objects"])
}

func TestNormalizeArgs_FlattensNestedSelf(t *testing.T) {
	args, err := NormalizeArgs(context.Background(), "operate_nifi_objects", map[string]any{
		"operate_nifi_objects": map[string]any{
			"operations": []any{map[string]any{"object_type": "processor", "object_id": "p1", "operation": "start"}},
		},
	})
	require.NoError(t, err)
	list, ok := args["operations"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestNormalizeArgs_FlattensParamNestedUnderItself(t *testing.T) {
	args, err := NormalizeArgs(context.Background(), "create_nifi_processors", map[string]any{
		"processors": map[string]any{
			"processors": []any{map[string]any{"processor_type": "t"}},
		},
	})
	require.NoError(t, err)
	list, ok := args["processors"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestNormalizeArgs_CoercesLoneObjectToList(t *testing.T) {
	args, err := NormalizeArgs(context.Background(), "create_nifi_processors", map[string]any{
		"processors": map[string]any{"processor_type": "org.example.Gen"},
	})
	require.NoError(t, err)
	list, ok := args["processors"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "org.example.Gen", list[0].(map[string]any)["processor_type"])
}

func TestNormalizeArgs_Idempotent(t *testing.T) {
	in := map[string]any{
		"delete_requests": map[string]any{"object_type": "processor", "object_id": "p1"},
	}
	once, err := NormalizeArgs(context.Background(), "delete_nifi_objects", in)
	require.NoError(t, err)
	twice, err := NormalizeArgs(context.Background(), "delete_nifi_objects", once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeArgs_IndexedStructuralError(t *testing.T) {
	_, err := NormalizeArgs(context.Background(), "delete_nifi_objects", map[string]any{
		"objects": []any{
			map[string]any{"object_type": "processor", "object_id": "p1"},
			"not an object",
		},
	})
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrBadRequest, te.Code)
	assert.Contains(t, te.Message, "item 1")
}

func TestNormalizeArgs_MissingBatchParam(t *testing.T) {
	_, err := NormalizeArgs(context.Background(), "delete_nifi_objects", map[string]any{})
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Message, "objects")
}

func TestNormalizeArgs_EmptyBatchRejected(t *testing.T) {
	_, err := NormalizeArgs(context.Background(), "operate_nifi_objects", map[string]any{
		"operations": []any{},
	})
	assert.Error(t, err)
}

func TestNormalizeArgs_ScalarItemsForScalarTools(t *testing.T) {
	args, err := NormalizeArgs(context.Background(), "purge_flowfiles", map[string]any{
		"connections": []any{"c1", "c2"},
	})
	require.NoError(t, err)
	assert.Len(t, args["connections"].([]any), 2)

	_, err = NormalizeArgs(context.Background(), "delete_nifi_objects", map[string]any{
		"objects": []any{"c1"},
	})
	assert.Error(t, err, "scalar items only allowed for id-list tools")
}

func TestNormalizeArgs_NonBatchToolPassesThrough(t *testing.T) {
	in := map[string]any{"query": "Gen"}
	out, err := NormalizeArgs(context.Background(), "search_nifi_flow", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
