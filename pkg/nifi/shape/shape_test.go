package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

func TestFromProcessor(t *testing.T) {
	size := "1KB"
	e := &nifi.ProcessorEntity{
		ID:       "p1",
		Position: &nifi.Position{X: 100, Y: 100},
		Status:   &nifi.ComponentStatus{RunStatus: "Stopped"},
		Component: &nifi.ProcessorComponent{
			Name:             "Gen",
			Type:             "org.apache.nifi.processors.standard.GenerateFlowFile",
			State:            "STOPPED",
			ValidationStatus: "VALID",
			Relationships:    []nifi.Relationship{{Name: "success"}, {Name: "failure"}},
			Config:           &nifi.ProcessorConfig{Properties: map[string]*string{"File Size": &size}},
		},
	}

	p := FromProcessor(e)
	require.NotNil(t, p)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Gen", p.Name)
	assert.Equal(t, "Stopped", p.RunStatus)
	assert.Equal(t, []string{"success", "failure"}, p.Relationships)
	assert.Equal(t, "1KB", *p.Properties["File Size"])
}

func TestFromProcessor_NilSafe(t *testing.T) {
	assert.Nil(t, FromProcessor(nil))
	p := FromProcessor(&nifi.ProcessorEntity{ID: "bare"})
	require.NotNil(t, p)
	assert.Equal(t, "bare", p.ID)
}

func TestFromConnection(t *testing.T) {
	e := &nifi.ConnectionEntity{
		ID:  "c1",
		URI: "http://nifi/nifi-api/connections/c1",
		Component: &nifi.ConnectionComponent{
			Name: "to-log",
			Source: &nifi.ConnectableRef{
				ID: "p1", GroupID: "g1", Type: "PROCESSOR", Name: "Gen",
			},
			Destination: &nifi.ConnectableRef{
				ID: "p2", GroupID: "g1", Type: "PROCESSOR", Name: "Log",
			},
			SelectedRelationships:  []string{"success"},
			AvailableRelationships: []string{"success", "failure"},
		},
	}

	c := FromConnection(e)
	require.NotNil(t, c)
	assert.Equal(t, "p1", c.Source.ID)
	assert.Equal(t, "Log", c.Destination.Name)
	assert.Equal(t, []string{"success"}, c.SelectedRelationships)
}

func TestFromProcessGroup_ParameterContextIDOnly(t *testing.T) {
	e := &nifi.ProcessGroupEntity{
		ID:           "g1",
		RunningCount: 3,
		Revision:     &nifi.Revision{Version: 4},
		Component: &nifi.ProcessGroupComponent{
			Name:             "demo",
			ParameterContext: &nifi.ParameterContextRef{ID: "ctx-9"},
		},
	}

	g := FromProcessGroup(e)
	require.NotNil(t, g)
	assert.Equal(t, "ctx-9", g.ParameterContextID)
	assert.Equal(t, 3, g.RunningCount)
	assert.EqualValues(t, 4, g.Version)
}

func TestFromControllerService(t *testing.T) {
	e := &nifi.ControllerServiceEntity{
		ID:       "cs1",
		Revision: &nifi.Revision{Version: 2},
		Component: &nifi.ControllerServiceComponent{
			Name:  "DBCP",
			Type:  "org.apache.nifi.dbcp.DBCPConnectionPool",
			State: "DISABLED",
			ReferencingComponents: []nifi.ReferencingComponent{
				{Component: &nifi.ReferencingComponentDetail{ID: "p1", Name: "PutSQL", State: "STOPPED"}},
				{Component: nil},
			},
			ControllerServiceApis: []nifi.ControllerServiceAPI{{Type: "org.apache.nifi.dbcp.DBCPService"}},
		},
	}

	s := FromControllerService(e)
	require.NotNil(t, s)
	require.Len(t, s.ReferencingComponents, 1)
	assert.Equal(t, "PutSQL", s.ReferencingComponents[0].Name)
	assert.Equal(t, []string{"org.apache.nifi.dbcp.DBCPService"}, s.ServiceAPIs)
}

func TestParseQueueCount(t *testing.T) {
	tests := []struct {
		in    string
		count int64
		bytes int64
		ok    bool
	}{
		{"5 / 1,024 bytes", 5, 1024, true},
		{"1,200 / 2,048,000 bytes", 1200, 2048000, true},
		{"0 / 0 bytes", 0, 0, true},
		{"garbage", 0, 0, false},
		{"x / y bytes", 0, 0, false},
	}
	for _, tt := range tests {
		count, bytes, ok := ParseQueueCount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.count, count, tt.in)
			assert.Equal(t, tt.bytes, bytes, tt.in)
		}
	}
}

func TestSummarize(t *testing.T) {
	results := []ConnectionDropResult{
		{ConnectionID: "c1", Success: true, DroppedCount: 5, DroppedBytes: 1024},
		{ConnectionID: "c2", Success: false, Message: "timeout"},
	}
	summary := Summarize(results)
	assert.False(t, summary.Success)
	assert.EqualValues(t, 5, summary.TotalCount)
	assert.Contains(t, summary.Message, "1 of 2")
}

// Shaping is idempotent on the shaped subset: reshaping an entity built from
// a shaped processor yields the same summary.
func TestShape_Idempotent(t *testing.T) {
	e := &nifi.ProcessorEntity{
		ID: "p1",
		Component: &nifi.ProcessorComponent{
			Name:          "Gen",
			Type:          "t",
			State:         "STOPPED",
			Relationships: []nifi.Relationship{{Name: "success"}},
		},
	}
	first := FromProcessor(e)

	rebuilt := &nifi.ProcessorEntity{
		ID: first.ID,
		Component: &nifi.ProcessorComponent{
			Name:  first.Name,
			Type:  first.Type,
			State: first.State,
		},
	}
	for _, rel := range first.Relationships {
		rebuilt.Component.Relationships = append(rebuilt.Component.Relationships, nifi.Relationship{Name: rel})
	}
	second := FromProcessor(rebuilt)
	assert.Equal(t, first, second)
}
