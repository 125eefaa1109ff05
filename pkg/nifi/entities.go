package nifi

import "encoding/json"

// Revision is NiFi's optimistic-concurrency envelope. Every mutable entity
// carries one, and the version must be echoed on the next mutation.
type Revision struct {
	ClientID string `json:"clientId,omitempty"`
	Version  int64  `json:"version"`
}

// Position is a component's canvas position.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bundle identifies the NAR a component type comes from.
type Bundle struct {
	Group    string `json:"group,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Version  string `json:"version,omitempty"`
}

// ProcessorEntity is a processor as returned by /processors/{id}.
type ProcessorEntity struct {
	ID        string              `json:"id"`
	URI       string              `json:"uri,omitempty"`
	Revision  *Revision           `json:"revision,omitempty"`
	Position  *Position           `json:"position,omitempty"`
	Component *ProcessorComponent `json:"component,omitempty"`
	Status    *ComponentStatus    `json:"status,omitempty"`
}

// ProcessorComponent is the type-specific block of a processor entity.
type ProcessorComponent struct {
	ID               string           `json:"id,omitempty"`
	ParentGroupID    string           `json:"parentGroupId,omitempty"`
	Name             string           `json:"name,omitempty"`
	Type             string           `json:"type,omitempty"`
	Bundle           *Bundle          `json:"bundle,omitempty"`
	State            string           `json:"state,omitempty"`
	Position         *Position        `json:"position,omitempty"`
	Relationships    []Relationship   `json:"relationships,omitempty"`
	ValidationStatus string           `json:"validationStatus,omitempty"`
	ValidationErrors []string         `json:"validationErrors,omitempty"`
	Config           *ProcessorConfig `json:"config,omitempty"`
}

// ProcessorConfig holds the mutable configuration of a processor.
type ProcessorConfig struct {
	Properties                  map[string]*string `json:"properties,omitempty"`
	AutoTerminatedRelationships []string           `json:"autoTerminatedRelationships,omitempty"`
	SchedulingPeriod            string             `json:"schedulingPeriod,omitempty"`
	SchedulingStrategy          string             `json:"schedulingStrategy,omitempty"`
	ConcurrentlySchedulableTaskCount int           `json:"concurrentlySchedulableTaskCount,omitempty"`
	PenaltyDuration             string             `json:"penaltyDuration,omitempty"`
	YieldDuration               string             `json:"yieldDuration,omitempty"`
	Comments                    string             `json:"comments,omitempty"`
}

// Relationship is one named processor relationship.
type Relationship struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	AutoTerminate bool   `json:"autoTerminate,omitempty"`
}

// ComponentStatus is the shared status block NiFi attaches to entities.
type ComponentStatus struct {
	RunStatus         string          `json:"runStatus,omitempty"`
	AggregateSnapshot json.RawMessage `json:"aggregateSnapshot,omitempty"`
}

// ConnectionEntity is a connection as returned by /connections/{id}.
type ConnectionEntity struct {
	ID        string               `json:"id"`
	URI       string               `json:"uri,omitempty"`
	Revision  *Revision            `json:"revision,omitempty"`
	Component *ConnectionComponent `json:"component,omitempty"`
	Status    *ConnectionStatus    `json:"status,omitempty"`
}

// ConnectionComponent is the type-specific block of a connection entity.
type ConnectionComponent struct {
	ID                     string              `json:"id,omitempty"`
	ParentGroupID          string              `json:"parentGroupId,omitempty"`
	Name                   string              `json:"name,omitempty"`
	Source                 *ConnectableRef     `json:"source,omitempty"`
	Destination            *ConnectableRef     `json:"destination,omitempty"`
	SelectedRelationships  []string            `json:"selectedRelationships,omitempty"`
	AvailableRelationships []string            `json:"availableRelationships,omitempty"`
	BackPressureObjectThreshold   int64        `json:"backPressureObjectThreshold,omitempty"`
	BackPressureDataSizeThreshold string       `json:"backPressureDataSizeThreshold,omitempty"`
	FlowFileExpiration     string              `json:"flowFileExpiration,omitempty"`
}

// ConnectableRef identifies one endpoint of a connection.
type ConnectableRef struct {
	ID      string `json:"id"`
	GroupID string `json:"groupId,omitempty"`
	Type    string `json:"type,omitempty"` // PROCESSOR, INPUT_PORT, OUTPUT_PORT, FUNNEL, ...
	Name    string `json:"name,omitempty"`
}

// ConnectionStatus is the status block of a connection entity.
type ConnectionStatus struct {
	AggregateSnapshot *ConnectionStatusSnapshot `json:"aggregateSnapshot,omitempty"`
}

// ConnectionStatusSnapshot carries queue counters in NiFi's string forms.
type ConnectionStatusSnapshot struct {
	FlowFilesQueued int64  `json:"flowFilesQueued,omitempty"`
	BytesQueued     int64  `json:"bytesQueued,omitempty"`
	Queued          string `json:"queued,omitempty"` // "N / M bytes"
}

// PortKind distinguishes the two port variants NiFi exposes as separate
// REST resources. "port" is not a NiFi type at the REST level.
type PortKind string

const (
	PortInput  PortKind = "INPUT_PORT"
	PortOutput PortKind = "OUTPUT_PORT"
)

// PortEntity is an input or output port. Kind records which endpoint family
// served the entity, and therefore which one mutations must target.
type PortEntity struct {
	ID        string         `json:"id"`
	URI       string         `json:"uri,omitempty"`
	Revision  *Revision      `json:"revision,omitempty"`
	Position  *Position      `json:"position,omitempty"`
	Component *PortComponent `json:"component,omitempty"`
	Status    *ComponentStatus `json:"status,omitempty"`

	Kind PortKind `json:"-"`
}

// PortComponent is the type-specific block of a port entity.
type PortComponent struct {
	ID               string    `json:"id,omitempty"`
	ParentGroupID    string    `json:"parentGroupId,omitempty"`
	Name             string    `json:"name,omitempty"`
	Type             string    `json:"type,omitempty"` // INPUT_PORT or OUTPUT_PORT
	State            string    `json:"state,omitempty"`
	Position         *Position `json:"position,omitempty"`
	Comments         string    `json:"comments,omitempty"`
	ConcurrentlySchedulableTaskCount int `json:"concurrentlySchedulableTaskCount,omitempty"`
	ValidationStatus string    `json:"validationStatus,omitempty"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

// ProcessGroupEntity is a process group as returned by /process-groups/{id}.
type ProcessGroupEntity struct {
	ID        string                 `json:"id"`
	URI       string                 `json:"uri,omitempty"`
	Revision  *Revision              `json:"revision,omitempty"`
	Position  *Position              `json:"position,omitempty"`
	Component *ProcessGroupComponent `json:"component,omitempty"`
	Status    *ProcessGroupStatus    `json:"status,omitempty"`

	RunningCount  int `json:"runningCount,omitempty"`
	StoppedCount  int `json:"stoppedCount,omitempty"`
	InvalidCount  int `json:"invalidCount,omitempty"`
	DisabledCount int `json:"disabledCount,omitempty"`
}

// ProcessGroupComponent is the type-specific block of a process group entity.
type ProcessGroupComponent struct {
	ID                 string    `json:"id,omitempty"`
	ParentGroupID      string    `json:"parentGroupId,omitempty"`
	Name               string    `json:"name,omitempty"`
	Position           *Position `json:"position,omitempty"`
	Comments           string    `json:"comments,omitempty"`
	ParameterContext   *ParameterContextRef `json:"parameterContext,omitempty"`
	FlowFileConcurrency      string `json:"flowfileConcurrency,omitempty"`
	FlowFileOutboundPolicy   string `json:"flowfileOutboundPolicy,omitempty"`
}

// ParameterContextRef references a parameter context by id.
type ParameterContextRef struct {
	ID string `json:"id,omitempty"`
}

// ProcessGroupStatus is the status block of a process group entity.
type ProcessGroupStatus struct {
	ID                string          `json:"id,omitempty"`
	Name              string          `json:"name,omitempty"`
	AggregateSnapshot json.RawMessage `json:"aggregateSnapshot,omitempty"`
}

// ControllerServiceEntity is a controller service.
type ControllerServiceEntity struct {
	ID        string                      `json:"id"`
	URI       string                      `json:"uri,omitempty"`
	Revision  *Revision                   `json:"revision,omitempty"`
	Component *ControllerServiceComponent `json:"component,omitempty"`
}

// ControllerServiceComponent is the type-specific block of a controller
// service entity.
type ControllerServiceComponent struct {
	ID                    string               `json:"id,omitempty"`
	ParentGroupID         string               `json:"parentGroupId,omitempty"`
	Name                  string               `json:"name,omitempty"`
	Type                  string               `json:"type,omitempty"`
	Bundle                *Bundle              `json:"bundle,omitempty"`
	State                 string               `json:"state,omitempty"` // ENABLED, DISABLED, ENABLING, DISABLING
	Comments              string               `json:"comments,omitempty"`
	Properties            map[string]*string   `json:"properties,omitempty"`
	ValidationStatus      string               `json:"validationStatus,omitempty"`
	ValidationErrors      []string             `json:"validationErrors,omitempty"`
	ReferencingComponents []ReferencingComponent `json:"referencingComponents,omitempty"`
	ControllerServiceApis []ControllerServiceAPI `json:"controllerServiceApis,omitempty"`
}

// ReferencingComponent is a component referencing a controller service.
type ReferencingComponent struct {
	Component *ReferencingComponentDetail `json:"component,omitempty"`
}

// ReferencingComponentDetail carries the fields callers act on.
type ReferencingComponentDetail struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	State string `json:"state,omitempty"`
}

// ControllerServiceAPI is one service API implemented by a controller service.
type ControllerServiceAPI struct {
	Type   string  `json:"type,omitempty"`
	Bundle *Bundle `json:"bundle,omitempty"`
}

// DocumentedType is one entry of the processor-type or controller-service-type
// catalogs under /flow.
type DocumentedType struct {
	Type        string   `json:"type"`
	Bundle      *Bundle  `json:"bundle,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Restricted  bool     `json:"restricted,omitempty"`
}

// Bulletin is one bulletin board entry after newline sanitizing.
type Bulletin struct {
	ID        int64  `json:"id"`
	NodeAddress string `json:"nodeAddress,omitempty"`
	Category  string `json:"category,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	SourceID  string `json:"sourceId,omitempty"`
	SourceName string `json:"sourceName,omitempty"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// BulletinEntity wraps a bulletin with its permissions envelope.
type BulletinEntity struct {
	ID       int64     `json:"id"`
	GroupID  string    `json:"groupId,omitempty"`
	SourceID string    `json:"sourceId,omitempty"`
	Bulletin *Bulletin `json:"bulletin,omitempty"`
}

// SearchResults is the payload of /flow/search-results.
type SearchResults struct {
	ProcessorResults   []SearchResult `json:"processorResults,omitempty"`
	ConnectionResults  []SearchResult `json:"connectionResults,omitempty"`
	ProcessGroupResults []SearchResult `json:"processGroupResults,omitempty"`
	InputPortResults   []SearchResult `json:"inputPortResults,omitempty"`
	OutputPortResults  []SearchResult `json:"outputPortResults,omitempty"`
	ControllerServiceNodeResults []SearchResult `json:"controllerServiceNodeResults,omitempty"`
}

// SearchResult is one match of a flow search.
type SearchResult struct {
	ID        string   `json:"id"`
	GroupID   string   `json:"groupId,omitempty"`
	Name      string   `json:"name,omitempty"`
	Matches   []string `json:"matches,omitempty"`
}

// ProcessGroupFlow is the flow tree of one group from /flow/process-groups/{id}.
type ProcessGroupFlow struct {
	ID   string `json:"id"`
	Flow struct {
		Processors        []ProcessorEntity         `json:"processors,omitempty"`
		Connections       []ConnectionEntity        `json:"connections,omitempty"`
		InputPorts        []PortEntity              `json:"inputPorts,omitempty"`
		OutputPorts       []PortEntity              `json:"outputPorts,omitempty"`
		ProcessGroups     []ProcessGroupEntity      `json:"processGroups,omitempty"`
	} `json:"flow"`
}
