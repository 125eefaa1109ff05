package tools

import (
	"context"
	"sort"

	"github.com/nifiops/nifibridge/pkg/nifi"
	"github.com/nifiops/nifibridge/pkg/nifi/shape"
)

// Flow documentation.
//
// document_nifi_flow walks one group's flow graph and produces a structured
// description: the components, the connection adjacency, the decision points
// and the linear paths from each source component. The walk is bounded by
// the group; child groups appear as opaque nodes.

// FlowComponent is one node of the documented graph.
type FlowComponent struct {
	ID         string             `json:"id"`
	Name       string             `json:"name,omitempty"`
	Type       string             `json:"type,omitempty"`
	Kind       string             `json:"kind"` // processor, input_port, output_port, process_group
	State      string             `json:"state,omitempty"`
	Properties map[string]*string `json:"properties,omitempty"`
}

// FlowEdge is one connection of the documented graph.
type FlowEdge struct {
	ConnectionID  string   `json:"connection_id"`
	SourceID      string   `json:"source_id"`
	DestinationID string   `json:"destination_id"`
	Relationships []string `json:"relationships,omitempty"`
}

// DecisionPoint is a component routing FlowFiles down two or more distinct
// relationship sets.
type DecisionPoint struct {
	ComponentID   string   `json:"component_id"`
	ComponentName string   `json:"component_name,omitempty"`
	Relationships []string `json:"relationships"`
	Branches      int      `json:"branches"`
}

// FlowPath is one linear walk from a source component.
type FlowPath struct {
	ComponentIDs   []string `json:"component_ids"`
	ComponentNames []string `json:"component_names"`
}

// FlowDocument is the full documentation payload.
type FlowDocument struct {
	GroupID        string          `json:"group_id"`
	Components     []FlowComponent `json:"components"`
	Edges          []FlowEdge      `json:"edges"`
	DecisionPoints []DecisionPoint `json:"decision_points,omitempty"`
	Paths          []FlowPath      `json:"paths,omitempty"`
}

// handleDocumentFlow documents the flow of one group.
func handleDocumentFlow(ctx context.Context, call *Call) (any, error) {
	groupID, err := effectiveGroupID(ctx, call)
	if err != nil {
		return nil, err
	}
	flow, err := call.NiFi.GetProcessGroupFlow(ctx, groupID)
	if err != nil {
		return nil, err
	}
	includeProperties := false
	if v, ok := call.Args["include_properties"].(bool); ok {
		includeProperties = v
	}
	return buildFlowDocument(flow, includeProperties), nil
}

// buildFlowDocument assembles the document from one flow tree. Pure so the
// graph logic is testable without a NiFi double.
func buildFlowDocument(flow *nifi.ProcessGroupFlow, includeProperties bool) *FlowDocument {
	doc := &FlowDocument{GroupID: flow.ID}
	names := map[string]string{}

	for i := range flow.Flow.Processors {
		p := shape.FromProcessor(&flow.Flow.Processors[i])
		comp := FlowComponent{ID: p.ID, Name: p.Name, Type: p.Type, Kind: "processor", State: p.State}
		if includeProperties {
			comp.Properties = p.Properties
		}
		doc.Components = append(doc.Components, comp)
		names[p.ID] = p.Name
	}
	for i := range flow.Flow.InputPorts {
		p := shape.FromPort(&flow.Flow.InputPorts[i])
		doc.Components = append(doc.Components, FlowComponent{ID: p.ID, Name: p.Name, Kind: "input_port", State: p.State})
		names[p.ID] = p.Name
	}
	for i := range flow.Flow.OutputPorts {
		p := shape.FromPort(&flow.Flow.OutputPorts[i])
		doc.Components = append(doc.Components, FlowComponent{ID: p.ID, Name: p.Name, Kind: "output_port", State: p.State})
		names[p.ID] = p.Name
	}
	for i := range flow.Flow.ProcessGroups {
		g := shape.FromProcessGroup(&flow.Flow.ProcessGroups[i])
		doc.Components = append(doc.Components, FlowComponent{ID: g.ID, Name: g.Name, Kind: "process_group"})
		names[g.ID] = g.Name
	}

	adjacency := map[string][]FlowEdge{}
	incoming := map[string]int{}
	for i := range flow.Flow.Connections {
		c := shape.FromConnection(&flow.Flow.Connections[i])
		if c.Source == nil || c.Destination == nil {
			continue
		}
		edge := FlowEdge{
			ConnectionID:  c.ID,
			SourceID:      c.Source.ID,
			DestinationID: c.Destination.ID,
			Relationships: c.SelectedRelationships,
		}
		doc.Edges = append(doc.Edges, edge)
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], edge)
		incoming[edge.DestinationID]++
	}

	doc.DecisionPoints = findDecisionPoints(adjacency, names)
	doc.Paths = tracePaths(doc.Components, adjacency, incoming, names)
	return doc
}

// findDecisionPoints reports components with at least two outgoing
// connections spanning at least two distinct relationships.
func findDecisionPoints(adjacency map[string][]FlowEdge, names map[string]string) []DecisionPoint {
	var points []DecisionPoint
	for sourceID, edges := range adjacency {
		if len(edges) < 2 {
			continue
		}
		rels := map[string]bool{}
		for _, e := range edges {
			for _, r := range e.Relationships {
				rels[r] = true
			}
		}
		if len(rels) < 2 {
			continue
		}
		sorted := make([]string, 0, len(rels))
		for r := range rels {
			sorted = append(sorted, r)
		}
		sort.Strings(sorted)
		points = append(points, DecisionPoint{
			ComponentID:   sourceID,
			ComponentName: names[sourceID],
			Relationships: sorted,
			Branches:      len(edges),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].ComponentID < points[j].ComponentID })
	return points
}

// tracePaths walks the graph depth-first from every source component, one
// path per branch. The visited set is per branch so diamond shapes produce
// separate full paths while cycles terminate. Input ports are always
// sources: they carry flow in from the parent group, so they start a path
// even when something inside the group loops back into them.
func tracePaths(components []FlowComponent, adjacency map[string][]FlowEdge, incoming map[string]int, names map[string]string) []FlowPath {
	var sources []string
	for _, c := range components {
		if len(adjacency[c.ID]) == 0 {
			continue
		}
		if incoming[c.ID] == 0 || c.Kind == "input_port" {
			sources = append(sources, c.ID)
		}
	}
	sort.Strings(sources)

	var paths []FlowPath
	for _, src := range sources {
		walk(src, adjacency, names, []string{}, map[string]bool{}, &paths)
	}
	return paths
}

func walk(node string, adjacency map[string][]FlowEdge, names map[string]string, trail []string, visited map[string]bool, paths *[]FlowPath) {
	if visited[node] {
		emit(trail, names, paths)
		return
	}
	visited[node] = true
	trail = append(trail, node)

	edges := adjacency[node]
	if len(edges) == 0 {
		emit(trail, names, paths)
		delete(visited, node)
		return
	}
	for _, e := range edges {
		walk(e.DestinationID, adjacency, names, trail, visited, paths)
	}
	delete(visited, node)
}

func emit(trail []string, names map[string]string, paths *[]FlowPath) {
	if len(trail) == 0 {
		return
	}
	path := FlowPath{
		ComponentIDs:   append([]string(nil), trail...),
		ComponentNames: make([]string, 0, len(trail)),
	}
	for _, id := range trail {
		path.ComponentNames = append(path.ComponentNames, names[id])
	}
	*paths = append(*paths, path)
}
