// Package shape filters raw NiFi entities into the compact summaries
// returned by tools.
//
// NiFi GET responses are large and noisy; each summary carries only the
// fields callers act on. Shaping is pure: it depends only on its input and
// never calls NiFi.
package shape

import (
	"strconv"
	"strings"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

// Processor is the compact form of a processor entity.
type Processor struct {
	ID               string             `json:"id"`
	Name             string             `json:"name,omitempty"`
	Type             string             `json:"type,omitempty"`
	State            string             `json:"state,omitempty"`
	Position         *nifi.Position     `json:"position,omitempty"`
	RunStatus        string             `json:"runStatus,omitempty"`
	ValidationStatus string             `json:"validationStatus,omitempty"`
	ValidationErrors []string           `json:"validationErrors,omitempty"`
	Relationships    []string           `json:"relationships,omitempty"`
	Properties       map[string]*string `json:"properties,omitempty"`
}

// FromProcessor shapes a processor entity.
func FromProcessor(e *nifi.ProcessorEntity) *Processor {
	if e == nil {
		return nil
	}
	p := &Processor{ID: e.ID, Position: e.Position}
	if e.Status != nil {
		p.RunStatus = e.Status.RunStatus
	}
	c := e.Component
	if c == nil {
		return p
	}
	p.Name = c.Name
	p.Type = c.Type
	p.State = c.State
	p.ValidationStatus = c.ValidationStatus
	p.ValidationErrors = c.ValidationErrors
	if c.Position != nil {
		p.Position = c.Position
	}
	for _, rel := range c.Relationships {
		p.Relationships = append(p.Relationships, rel.Name)
	}
	if c.Config != nil {
		p.Properties = c.Config.Properties
	}
	return p
}

// Connectable is the compact form of one connection endpoint.
type Connectable struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId,omitempty"`
	Type    string `json:"type,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Connection is the compact form of a connection entity.
type Connection struct {
	ID                     string       `json:"id"`
	URI                    string       `json:"uri,omitempty"`
	Name                   string       `json:"name,omitempty"`
	Source                 *Connectable `json:"source,omitempty"`
	Destination            *Connectable `json:"destination,omitempty"`
	SelectedRelationships  []string     `json:"selectedRelationships,omitempty"`
	AvailableRelationships []string     `json:"availableRelationships,omitempty"`
}

// FromConnection shapes a connection entity.
func FromConnection(e *nifi.ConnectionEntity) *Connection {
	if e == nil {
		return nil
	}
	conn := &Connection{ID: e.ID, URI: e.URI}
	c := e.Component
	if c == nil {
		return conn
	}
	conn.Name = c.Name
	conn.SelectedRelationships = c.SelectedRelationships
	conn.AvailableRelationships = c.AvailableRelationships
	if c.Source != nil {
		conn.Source = &Connectable{ID: c.Source.ID, GroupID: c.Source.GroupID, Type: c.Source.Type, Name: c.Source.Name}
	}
	if c.Destination != nil {
		conn.Destination = &Connectable{ID: c.Destination.ID, GroupID: c.Destination.GroupID, Type: c.Destination.Type, Name: c.Destination.Name}
	}
	return conn
}

// Port is the compact form of a port entity.
type Port struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	Type             string         `json:"type,omitempty"` // INPUT_PORT or OUTPUT_PORT
	State            string         `json:"state,omitempty"`
	Position         *nifi.Position `json:"position,omitempty"`
	Comments         string         `json:"comments,omitempty"`
	ConcurrentlySchedulableTaskCount int `json:"concurrentlySchedulableTaskCount,omitempty"`
	ValidationStatus string         `json:"validationStatus,omitempty"`
	ValidationErrors []string       `json:"validationErrors,omitempty"`
	Version          int64          `json:"version,omitempty"`
}

// FromPort shapes a port entity.
func FromPort(e *nifi.PortEntity) *Port {
	if e == nil {
		return nil
	}
	p := &Port{ID: e.ID, Position: e.Position, Type: string(e.Kind)}
	if e.Revision != nil {
		p.Version = e.Revision.Version
	}
	c := e.Component
	if c == nil {
		return p
	}
	p.Name = c.Name
	if c.Type != "" {
		p.Type = c.Type
	}
	p.State = c.State
	p.Comments = c.Comments
	p.ConcurrentlySchedulableTaskCount = c.ConcurrentlySchedulableTaskCount
	p.ValidationStatus = c.ValidationStatus
	p.ValidationErrors = c.ValidationErrors
	if c.Position != nil {
		p.Position = c.Position
	}
	return p
}

// ProcessGroup is the compact form of a process group entity.
type ProcessGroup struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name,omitempty"`
	Position               *nifi.Position `json:"position,omitempty"`
	Comments               string         `json:"comments,omitempty"`
	ParameterContextID     string         `json:"parameterContextId,omitempty"`
	FlowFileConcurrency    string         `json:"flowfileConcurrency,omitempty"`
	FlowFileOutboundPolicy string         `json:"flowfileOutboundPolicy,omitempty"`
	RunningCount           int            `json:"runningCount"`
	StoppedCount           int            `json:"stoppedCount"`
	InvalidCount           int            `json:"invalidCount"`
	DisabledCount          int            `json:"disabledCount"`
	Version                int64          `json:"version,omitempty"`
}

// FromProcessGroup shapes a process group entity. Only the parameter context
// id survives shaping; the full context is never forwarded.
func FromProcessGroup(e *nifi.ProcessGroupEntity) *ProcessGroup {
	if e == nil {
		return nil
	}
	g := &ProcessGroup{
		ID:            e.ID,
		Position:      e.Position,
		RunningCount:  e.RunningCount,
		StoppedCount:  e.StoppedCount,
		InvalidCount:  e.InvalidCount,
		DisabledCount: e.DisabledCount,
	}
	if e.Revision != nil {
		g.Version = e.Revision.Version
	}
	c := e.Component
	if c == nil {
		return g
	}
	g.Name = c.Name
	g.Comments = c.Comments
	g.FlowFileConcurrency = c.FlowFileConcurrency
	g.FlowFileOutboundPolicy = c.FlowFileOutboundPolicy
	if c.ParameterContext != nil {
		g.ParameterContextID = c.ParameterContext.ID
	}
	if c.Position != nil {
		g.Position = c.Position
	}
	return g
}

// ReferencingComponent is the compact form of a service reference.
type ReferencingComponent struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	State string `json:"state,omitempty"`
}

// ControllerService is the compact form of a controller service entity.
type ControllerService struct {
	ID                    string                 `json:"id"`
	Name                  string                 `json:"name,omitempty"`
	Type                  string                 `json:"type,omitempty"`
	State                 string                 `json:"state,omitempty"`
	Comments              string                 `json:"comments,omitempty"`
	ValidationStatus      string                 `json:"validationStatus,omitempty"`
	ValidationErrors      []string               `json:"validationErrors,omitempty"`
	Properties            map[string]*string     `json:"properties,omitempty"`
	ReferencingComponents []ReferencingComponent `json:"referencingComponents,omitempty"`
	Version               int64                  `json:"version,omitempty"`
	Bundle                *nifi.Bundle           `json:"bundle,omitempty"`
	ServiceAPIs           []string               `json:"serviceApis,omitempty"`
}

// FromControllerService shapes a controller service entity.
func FromControllerService(e *nifi.ControllerServiceEntity) *ControllerService {
	if e == nil {
		return nil
	}
	s := &ControllerService{ID: e.ID}
	if e.Revision != nil {
		s.Version = e.Revision.Version
	}
	c := e.Component
	if c == nil {
		return s
	}
	s.Name = c.Name
	s.Type = c.Type
	s.State = c.State
	s.Comments = c.Comments
	s.ValidationStatus = c.ValidationStatus
	s.ValidationErrors = c.ValidationErrors
	s.Properties = c.Properties
	s.Bundle = c.Bundle
	for _, ref := range c.ReferencingComponents {
		if ref.Component == nil {
			continue
		}
		s.ReferencingComponents = append(s.ReferencingComponents, ReferencingComponent{
			ID:    ref.Component.ID,
			Name:  ref.Component.Name,
			Type:  ref.Component.Type,
			State: ref.Component.State,
		})
	}
	for _, api := range c.ControllerServiceApis {
		s.ServiceAPIs = append(s.ServiceAPIs, api.Type)
	}
	return s
}

// ConnectionDropResult is the per-connection outcome of a purge.
type ConnectionDropResult struct {
	ConnectionID string `json:"connection_id"`
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	DroppedCount int64  `json:"dropped_count"`
	DroppedBytes int64  `json:"dropped_bytes"`
}

// DropSummary is the aggregate outcome of a purge across connections.
type DropSummary struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	Results     []ConnectionDropResult `json:"results,omitempty"`
	TotalCount  int64                  `json:"total_dropped_count"`
	TotalBytes  int64                  `json:"total_dropped_bytes"`
}

// FromDropRequest shapes one drop request status into a per-connection
// result, parsing NiFi's "N / M bytes" string form.
func FromDropRequest(connectionID string, dr *nifi.DropRequest, err error) ConnectionDropResult {
	res := ConnectionDropResult{ConnectionID: connectionID, Success: err == nil}
	if err != nil {
		res.Message = err.Error()
	}
	if dr == nil {
		return res
	}
	count, bytes, ok := ParseQueueCount(dr.Dropped)
	if ok {
		res.DroppedCount = count
		res.DroppedBytes = bytes
	} else {
		res.DroppedCount = dr.DroppedCount
	}
	if dr.FailureReason != "" {
		res.Success = false
		res.Message = dr.FailureReason
	}
	return res
}

// Summarize aggregates per-connection drop results.
func Summarize(results []ConnectionDropResult) DropSummary {
	summary := DropSummary{Success: true, Results: results}
	failed := 0
	for _, r := range results {
		summary.TotalCount += r.DroppedCount
		summary.TotalBytes += r.DroppedBytes
		if !r.Success {
			failed++
			summary.Success = false
		}
	}
	switch {
	case len(results) == 0:
		summary.Message = "no connections purged"
	case failed == 0:
		summary.Message = "all queues purged"
	default:
		summary.Message = strconv.Itoa(failed) + " of " + strconv.Itoa(len(results)) + " connections failed"
	}
	return summary
}

// ParseQueueCount parses NiFi's "N / M bytes" queued string into its count
// and byte components. NiFi formats the count with thousands separators.
func ParseQueueCount(s string) (count, bytes int64, ok bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	countStr := strings.ReplaceAll(strings.TrimSpace(parts[0]), ",", "")
	byteStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), "bytes"))
	byteStr = strings.ReplaceAll(byteStr, ",", "")

	count, err := strconv.ParseInt(countStr, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	bytes, err = strconv.ParseInt(byteStr, 10, 64)
	if err != nil {
		return count, 0, false
	}
	return count, bytes, true
}
