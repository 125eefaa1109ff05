package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

func flowFixture() *nifi.ProcessGroupFlow {
	flow := &nifi.ProcessGroupFlow{ID: "g1"}
	flow.Flow.Processors = []nifi.ProcessorEntity{
		{ID: "gen", Component: &nifi.ProcessorComponent{Name: "Gen", Type: "t.Gen", State: "RUNNING"}},
		{ID: "route", Component: &nifi.ProcessorComponent{Name: "Route", Type: "t.Route", State: "RUNNING"}},
		{ID: "log", Component: &nifi.ProcessorComponent{Name: "Log", Type: "t.Log", State: "RUNNING"}},
		{ID: "err", Component: &nifi.ProcessorComponent{Name: "Err", Type: "t.Err", State: "STOPPED"}},
	}
	conn := func(id, src, dst string, rels ...string) nifi.ConnectionEntity {
		return nifi.ConnectionEntity{
			ID: id,
			Component: &nifi.ConnectionComponent{
				Source:                &nifi.ConnectableRef{ID: src},
				Destination:           &nifi.ConnectableRef{ID: dst},
				SelectedRelationships: rels,
			},
		}
	}
	flow.Flow.Connections = []nifi.ConnectionEntity{
		conn("c1", "gen", "route", "success"),
		conn("c2", "route", "log", "matched"),
		conn("c3", "route", "err", "unmatched"),
	}
	return flow
}

func TestBuildFlowDocument_DecisionPoints(t *testing.T) {
	doc := buildFlowDocument(flowFixture(), false)

	require.Len(t, doc.DecisionPoints, 1)
	dp := doc.DecisionPoints[0]
	assert.Equal(t, "route", dp.ComponentID)
	assert.Equal(t, "Route", dp.ComponentName)
	assert.Equal(t, []string{"matched", "unmatched"}, dp.Relationships)
	assert.Equal(t, 2, dp.Branches)
}

func TestBuildFlowDocument_PathsPerBranch(t *testing.T) {
	doc := buildFlowDocument(flowFixture(), false)

	require.Len(t, doc.Paths, 2)
	assert.Equal(t, []string{"gen", "route", "log"}, doc.Paths[0].ComponentIDs)
	assert.Equal(t, []string{"gen", "route", "err"}, doc.Paths[1].ComponentIDs)
	assert.Equal(t, []string{"Gen", "Route", "Log"}, doc.Paths[0].ComponentNames)
}

func TestBuildFlowDocument_CyclesTerminate(t *testing.T) {
	flow := flowFixture()
	// err retries back into route.
	flow.Flow.Connections = append(flow.Flow.Connections, nifi.ConnectionEntity{
		ID: "c4",
		Component: &nifi.ConnectionComponent{
			Source:                &nifi.ConnectableRef{ID: "err"},
			Destination:           &nifi.ConnectableRef{ID: "route"},
			SelectedRelationships: []string{"retry"},
		},
	})

	doc := buildFlowDocument(flow, false)
	require.NotEmpty(t, doc.Paths)
	for _, p := range doc.Paths {
		seen := map[string]int{}
		for _, id := range p.ComponentIDs {
			seen[id]++
			assert.LessOrEqual(t, seen[id], 1, "path revisits %s", id)
		}
	}
}

func TestBuildFlowDocument_InputPortStartsPathEvenWithLoopBack(t *testing.T) {
	flow := &nifi.ProcessGroupFlow{ID: "g"}
	flow.Flow.InputPorts = []nifi.PortEntity{
		{ID: "in", Component: &nifi.PortComponent{Name: "In", State: "RUNNING"}},
	}
	flow.Flow.Processors = []nifi.ProcessorEntity{
		{ID: "work", Component: &nifi.ProcessorComponent{Name: "Work", State: "RUNNING"}},
	}
	conn := func(id, src, dst, rel string) nifi.ConnectionEntity {
		return nifi.ConnectionEntity{
			ID: id,
			Component: &nifi.ConnectionComponent{
				Source:                &nifi.ConnectableRef{ID: src},
				Destination:           &nifi.ConnectableRef{ID: dst},
				SelectedRelationships: []string{rel},
			},
		}
	}
	// work retries back into the port, so the port is not incoming-free.
	flow.Flow.Connections = []nifi.ConnectionEntity{
		conn("c1", "in", "work", ""),
		conn("c2", "work", "in", "retry"),
	}

	doc := buildFlowDocument(flow, false)
	require.NotEmpty(t, doc.Paths)
	assert.Equal(t, []string{"in", "work"}, doc.Paths[0].ComponentIDs[:2])
}

func TestBuildFlowDocument_SingleRelationshipFanOutIsNotDecision(t *testing.T) {
	flow := &nifi.ProcessGroupFlow{ID: "g"}
	flow.Flow.Processors = []nifi.ProcessorEntity{
		{ID: "a", Component: &nifi.ProcessorComponent{Name: "A"}},
		{ID: "b", Component: &nifi.ProcessorComponent{Name: "B"}},
		{ID: "c", Component: &nifi.ProcessorComponent{Name: "C"}},
	}
	flow.Flow.Connections = []nifi.ConnectionEntity{
		{ID: "c1", Component: &nifi.ConnectionComponent{
			Source: &nifi.ConnectableRef{ID: "a"}, Destination: &nifi.ConnectableRef{ID: "b"},
			SelectedRelationships: []string{"success"},
		}},
		{ID: "c2", Component: &nifi.ConnectionComponent{
			Source: &nifi.ConnectableRef{ID: "a"}, Destination: &nifi.ConnectableRef{ID: "c"},
			SelectedRelationships: []string{"success"},
		}},
	}

	doc := buildFlowDocument(flow, false)
	assert.Empty(t, doc.DecisionPoints, "fan-out on one relationship is load distribution, not routing")
	assert.Len(t, doc.Paths, 2)
}

func TestBuildFlowDocument_PropertiesGated(t *testing.T) {
	size := "1KB"
	flow := &nifi.ProcessGroupFlow{ID: "g"}
	flow.Flow.Processors = []nifi.ProcessorEntity{
		{ID: "p", Component: &nifi.ProcessorComponent{
			Name:   "P",
			Config: &nifi.ProcessorConfig{Properties: map[string]*string{"File Size": &size}},
		}},
	}

	without := buildFlowDocument(flow, false)
	require.Len(t, without.Components, 1)
	assert.Nil(t, without.Components[0].Properties)

	with := buildFlowDocument(flow, true)
	assert.Equal(t, "1KB", *with.Components[0].Properties["File Size"])
}
