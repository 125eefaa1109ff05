package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(ctx context.Context, call *Call) (any, error) { return nil, nil }

func TestRegister_RejectsInvalidNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"", "Bad", "has-dash", "9leading", "has space"} {
		err := r.Register(&Descriptor{Name: name, Handler: noopHandler})
		assert.Error(t, err, name)
	}
	assert.NoError(t, r.Register(&Descriptor{Name: "good_name_2", Handler: noopHandler}))
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "dup", Handler: noopHandler}))
	assert.Error(t, r.Register(&Descriptor{Name: "dup", Handler: noopHandler}))
}

func TestList_FiltersByPhase(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "a", Phases: []Phase{PhaseBuild}, Handler: noopHandler}))
	require.NoError(t, r.Register(&Descriptor{Name: "b", Phases: []Phase{PhaseDebug}, Handler: noopHandler}))
	require.NoError(t, r.Register(&Descriptor{Name: "c", Phases: []Phase{PhaseBuild, PhaseDebug}, Handler: noopHandler}))

	all := r.List("")
	assert.Len(t, all, 3)

	build := r.List(PhaseBuild)
	require.Len(t, build, 2)
	assert.Equal(t, "a", build[0].Name)
	assert.Equal(t, "c", build[1].Name)
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "nope", &Call{})
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrUnknownTool, te.Code)
}

func TestCatalog_RegistersEveryTool(t *testing.T) {
	r := Catalog(Deps{})
	expected := []string{
		"list_nifi_objects", "get_nifi_object_details", "get_process_group_status",
		"search_nifi_flow", "get_bulletin_board", "document_nifi_flow",
		"lookup_nifi_processor_types", "list_flowfiles", "get_provenance_events",
		"get_flowfile_event_details", "create_nifi_process_group",
		"create_nifi_processors", "create_nifi_ports", "create_controller_services",
		"create_nifi_connections", "update_nifi_processors_properties",
		"update_nifi_processor_relationships", "update_nifi_connection",
		"delete_nifi_objects", "operate_nifi_objects", "purge_flowfiles",
		"get_expert_help",
	}
	for _, name := range expected {
		d, ok := r.Get(name)
		require.True(t, ok, name)
		assert.NotNil(t, d.Schema, name)
		assert.NotEmpty(t, d.Phases, name)
		assert.NotEmpty(t, ParseDescription(d.Description).Short, name)
	}
	assert.Len(t, r.Names(), len(expected))
}

func TestNormalizeResult(t *testing.T) {
	t.Run("structured result key wins", func(t *testing.T) {
		got, err := NormalizeResult(&Result{Structured: map[string]any{"result": []any{"a"}}})
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, got)
	})

	t.Run("single text content parses as JSON", func(t *testing.T) {
		got, err := NormalizeResult([]TextContent{{Type: "text", Text: `{"x":1}`}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"x": float64(1)}, got)
	})

	t.Run("non-JSON text passes through", func(t *testing.T) {
		got, err := NormalizeResult([]TextContent{{Type: "text", Text: "plain words"}})
		require.NoError(t, err)
		assert.Equal(t, "plain words", got)
	})

	t.Run("multiple items keep list shape", func(t *testing.T) {
		got, err := NormalizeResult([]TextContent{{Text: `1`}, {Text: "two"}})
		require.NoError(t, err)
		assert.Equal(t, []any{float64(1), "two"}, got)
	})

	t.Run("unserializable value errors", func(t *testing.T) {
		_, err := NormalizeResult(map[string]any{"fn": func() {}})
		assert.Error(t, err)
	})
}

func TestParseDescription(t *testing.T) {
	s := ParseDescription(`Do the thing.
More detail here.
Returns: a thing.
Example: {"a": 1}`)
	assert.Equal(t, "Do the thing.", s.Short)
	assert.Equal(t, "More detail here.", s.Long)
	assert.Equal(t, "a thing.", s.Returns)
	assert.Equal(t, `{"a": 1}`, s.Example)
}
