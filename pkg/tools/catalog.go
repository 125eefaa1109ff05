package tools

import (
	"github.com/nifiops/nifibridge/pkg/llm"
)

// Deps are the shared collaborators tool handlers need beyond the
// per-request Call.
type Deps struct {
	// Advisor answers expert-help questions; nil disables the tool's
	// backend while keeping it listed.
	Advisor llm.Advisor

	// ExpertLimit overrides the default expert-help rate limiter, mainly
	// for tests.
	ExpertLimit *RateLimiter

	// OnExpertDenied is invoked once per rate-limited expert-help call.
	OnExpertDenied func()
}

// Catalog builds the full tool registry.
func Catalog(deps Deps) *Registry {
	r := NewRegistry()

	limiter := deps.ExpertLimit
	if limiter == nil {
		limiter = NewRateLimiter(expertHelpLimit, expertHelpWindow)
	}

	// Review and query tools.

	r.MustRegister(&Descriptor{
		Name: "list_nifi_objects",
		Description: `List the objects of one type inside a process group.
object_type is one of processor, connection, port, input_port, output_port, process_group, controller_service.
process_group_id defaults to the root group.
Returns: a list of compact object summaries.
Example: {"object_type": "processor", "process_group_id": "root"}`,
		Schema:  ReflectSchema(&listObjectsArgs{}),
		Phases:  []Phase{PhaseReview, PhaseQuery, PhaseVerify},
		Handler: handleListObjects,
	})

	r.MustRegister(&Descriptor{
		Name: "get_nifi_object_details",
		Description: `Fetch one object by id, including validation status and properties.
Returns: a compact object summary.
Example: {"object_type": "processor", "object_id": "a1b2c3d4-..."}`,
		Schema:  ReflectSchema(&objectDetailsArgs{}),
		Phases:  []Phase{PhaseReview, PhaseQuery, PhaseDebug, PhaseVerify},
		Handler: handleGetObjectDetails,
	})

	r.MustRegister(&Descriptor{
		Name: "get_process_group_status",
		Description: `Fetch the status snapshot of a process group: run counts, queue depths and throughput counters.
Returns: NiFi's status snapshot object.`,
		Schema:  ReflectSchema(&groupScopedArgs{}),
		Phases:  []Phase{PhaseReview, PhaseOperate, PhaseDebug, PhaseVerify},
		Handler: handleGroupStatus,
	})

	r.MustRegister(&Descriptor{
		Name: "search_nifi_flow",
		Description: `Search the whole flow by name, id, property value or comment.
Returns: matches grouped by object type.
Example: {"query": "GenerateFlowFile"}`,
		Schema:  ReflectSchema(&searchArgs{}),
		Phases:  []Phase{PhaseReview, PhaseQuery},
		Handler: handleSearchFlow,
	})

	r.MustRegister(&Descriptor{
		Name: "get_bulletin_board",
		Description: `Fetch recent bulletins: warnings and errors components have emitted.
source_id restricts to one component; limit caps the count.
Returns: a list of bulletins with level, source and message.`,
		Schema:  ReflectSchema(&bulletinArgs{}),
		Phases:  []Phase{PhaseDebug, PhaseOperate, PhaseVerify},
		Handler: handleBulletinBoard,
	})

	r.MustRegister(&Descriptor{
		Name: "document_nifi_flow",
		Description: `Document the flow of a process group: components, connections, decision points and linear paths from each source.
include_properties adds processor properties to the component list.
Returns: a structured flow document.`,
		Schema:  ReflectSchema(&documentFlowArgs{}),
		Phases:  []Phase{PhaseReview, PhaseQuery},
		Handler: handleDocumentFlow,
	})

	r.MustRegister(&Descriptor{
		Name: "lookup_nifi_processor_types",
		Description: `Look up processor types in the server's catalog by substring match.
Each item is a type name fragment or an object with a processor_type field.
Returns: per-item matches with bundle and description.
Example: {"processors": ["GenerateFlowFile", {"processor_type": "PutFile"}]}`,
		Schema:  ReflectSchema(&lookupTypesArgs{}),
		Phases:  []Phase{PhaseBuild, PhaseQuery},
		Handler: handleLookupProcessorTypes,
	})

	// Debug tools.

	r.MustRegister(&Descriptor{
		Name: "list_flowfiles",
		Description: `List the FlowFiles queued in one connection.
timeout_seconds bounds the asynchronous listing; 0 takes a single snapshot.
Returns: FlowFile summaries and the queue size.`,
		Schema:  ReflectSchema(&listFlowFilesArgs{}),
		Phases:  []Phase{PhaseDebug, PhaseOperate},
		Handler: handleListFlowFiles,
	})

	r.MustRegister(&Descriptor{
		Name: "get_provenance_events",
		Description: `Query provenance events for a component or a FlowFile.
Provide component_id or flowfile_uuid; max_results caps the result count.
Returns: event summaries ordered newest first.`,
		Schema:  ReflectSchema(&provenanceArgs{}),
		Phases:  []Phase{PhaseDebug},
		Handler: handleProvenanceEvents,
	})

	r.MustRegister(&Descriptor{
		Name: "get_flowfile_event_details",
		Description: `Fetch one provenance event with its FlowFile attributes.
include_content adds the input/output content when it is textual and small.
Returns: the event, attributes and optional content.`,
		Schema:  ReflectSchema(&eventDetailsArgs{}),
		Phases:  []Phase{PhaseDebug},
		Handler: handleEventDetails,
	})

	// Build tools.

	r.MustRegister(&Descriptor{
		Name: "create_nifi_process_group",
		Description: `Create one process group under a parent group.
Returns: the created group summary.
Example: {"name": "ingest", "process_group_id": "root"}`,
		Schema:  ReflectSchema(&createGroupArgs{}),
		Phases:  []Phase{PhaseBuild},
		Handler: handleCreateProcessGroup,
	})

	r.MustRegister(&Descriptor{
		Name: "create_nifi_processors",
		Description: `Create a batch of processors.
Each item needs processor_type (fully qualified) and may set name, properties, position and process_group_id.
Returns: per-item results in input order, each echoing request_index.`,
		Schema:  ReflectSchema(&createProcessorsArgs{}),
		Phases:  []Phase{PhaseBuild},
		Handler: handleCreateProcessors,
	})

	r.MustRegister(&Descriptor{
		Name: "create_nifi_ports",
		Description: `Create a batch of input/output ports.
Each item needs name and port_type (input_port or output_port).
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&createPortsArgs{}),
		Phases:  []Phase{PhaseBuild},
		Handler: handleCreatePorts,
	})

	r.MustRegister(&Descriptor{
		Name: "create_controller_services",
		Description: `Create a batch of controller services.
Each item needs service_type (fully qualified) and may set name and properties.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&createServicesArgs{}),
		Phases:  []Phase{PhaseBuild},
		Handler: handleCreateControllerServices,
	})

	r.MustRegister(&Descriptor{
		Name: "create_nifi_connections",
		Description: `Create a batch of connections.
source and destination accept component ids or names within the group; ambiguous names fail the item with the candidate ids.
relationships defaults to ["success"] for processor sources.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&createConnectionsArgs{}),
		Phases:  []Phase{PhaseBuild},
		Handler: handleCreateConnections,
	})

	// Modify tools.

	r.MustRegister(&Descriptor{
		Name: "update_nifi_processors_properties",
		Description: `Update configuration of a batch of processors: properties, name, scheduling and comments.
A property mapped to null is removed. The current revision is re-fetched per item.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&updateProcessorsArgs{}),
		Phases:  []Phase{PhaseModify},
		Handler: handleUpdateProcessorProperties,
	})

	r.MustRegister(&Descriptor{
		Name: "update_nifi_processor_relationships",
		Description: `Replace the auto-terminated relationships of a batch of processors.
An empty list clears all auto-terminations.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&updateRelationshipsArgs{}),
		Phases:  []Phase{PhaseModify},
		Handler: handleUpdateProcessorRelationships,
	})

	r.MustRegister(&Descriptor{
		Name: "update_nifi_connection",
		Description: `Update one connection: selected relationships, name, back-pressure thresholds or FlowFile expiration.
Returns: the updated connection summary.`,
		Schema:  ReflectSchema(&updateConnectionArgs{}),
		Phases:  []Phase{PhaseModify},
		Handler: handleUpdateConnection,
	})

	r.MustRegister(&Descriptor{
		Name: "delete_nifi_objects",
		Description: `Delete a batch of objects, ordered so connections go before components and components before groups.
Deleting an already-absent object succeeds.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&deleteObjectsArgs{}),
		Phases:  []Phase{PhaseModify},
		Handler: handleDeleteObjects,
	})

	// Operate tools.

	r.MustRegister(&Descriptor{
		Name: "operate_nifi_objects",
		Description: `Start, stop, enable or disable a batch of processors, ports and controller services.
Transitions are pre-checked: an invalid or disabled processor is refused a start with the validation errors.
Returns: per-item results in input order.`,
		Schema:  ReflectSchema(&operateArgs{}),
		Phases:  []Phase{PhaseOperate},
		Handler: handleOperateObjects,
	})

	r.MustRegister(&Descriptor{
		Name: "purge_flowfiles",
		Description: `Drop the queued FlowFiles of a batch of connections.
Items are connection ids. One failing connection never aborts the rest.
Returns: per-connection results and aggregate dropped totals.`,
		Schema:  ReflectSchema(&purgeArgs{}),
		Phases:  []Phase{PhaseOperate, PhaseModify},
		Handler: handlePurgeFlowFiles,
	})

	// Escalation.

	r.MustRegister(&Descriptor{
		Name: "get_expert_help",
		Description: `Ask a NiFi expert a free-form question, optionally with the documented flow of a group as context.
Rate limited to 2 calls per user request per 24 hours.
Returns: the expert's answer and the remaining call budget.`,
		Schema:  ReflectSchema(&expertHelpArgs{}),
		Phases:  []Phase{PhaseDebug, PhaseQuery},
		Handler: newExpertHelpHandler(deps.Advisor, limiter, deps.OnExpertDenied),
	})

	return r
}

// Argument structs back the reflected parameter schemas. Handlers read the
// raw argument map; these exist for the public listing only.

type listObjectsArgs struct {
	ObjectType     string `json:"object_type" jsonschema:"description=processor connection port input_port output_port process_group or controller_service"`
	ProcessGroupID string `json:"process_group_id,omitempty" jsonschema:"description=defaults to the root group"`
}

type objectDetailsArgs struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
}

type groupScopedArgs struct {
	ProcessGroupID string `json:"process_group_id,omitempty"`
}

type searchArgs struct {
	Query string `json:"query"`
}

type bulletinArgs struct {
	SourceID string `json:"source_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type documentFlowArgs struct {
	ProcessGroupID    string `json:"process_group_id,omitempty"`
	IncludeProperties bool   `json:"include_properties,omitempty"`
}

type lookupTypeItem struct {
	ProcessorType string `json:"processor_type"`
}

type lookupTypesArgs struct {
	Processors []lookupTypeItem `json:"processors"`
}

type listFlowFilesArgs struct {
	ConnectionID   string `json:"connection_id"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type provenanceArgs struct {
	ComponentID    string `json:"component_id,omitempty"`
	FlowFileUUID   string `json:"flowfile_uuid,omitempty"`
	MaxResults     int    `json:"max_results,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type eventDetailsArgs struct {
	EventID        int64 `json:"event_id"`
	IncludeContent bool  `json:"include_content,omitempty"`
}

type positionArg struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type createGroupArgs struct {
	Name           string       `json:"name"`
	ProcessGroupID string       `json:"process_group_id,omitempty" jsonschema:"description=parent group; defaults to root"`
	Position       *positionArg `json:"position,omitempty"`
}

type createProcessorItem struct {
	ProcessorType  string            `json:"processor_type"`
	Name           string            `json:"name,omitempty"`
	Properties     map[string]string `json:"properties,omitempty"`
	Position       *positionArg      `json:"position,omitempty"`
	ProcessGroupID string            `json:"process_group_id,omitempty"`
}

type createProcessorsArgs struct {
	Processors     []createProcessorItem `json:"processors"`
	ProcessGroupID string                `json:"process_group_id,omitempty"`
}

type createPortItem struct {
	Name           string       `json:"name"`
	PortType       string       `json:"port_type" jsonschema:"description=input_port or output_port"`
	Position       *positionArg `json:"position,omitempty"`
	Comments       string       `json:"comments,omitempty"`
	ProcessGroupID string       `json:"process_group_id,omitempty"`
}

type createPortsArgs struct {
	Ports          []createPortItem `json:"ports"`
	ProcessGroupID string           `json:"process_group_id,omitempty"`
}

type createServiceItem struct {
	ServiceType    string            `json:"service_type"`
	Name           string            `json:"name,omitempty"`
	Properties     map[string]string `json:"properties,omitempty"`
	Comments       string            `json:"comments,omitempty"`
	ProcessGroupID string            `json:"process_group_id,omitempty"`
}

type createServicesArgs struct {
	Services       []createServiceItem `json:"services"`
	ProcessGroupID string              `json:"process_group_id,omitempty"`
}

type createConnectionItem struct {
	Source         string   `json:"source" jsonschema:"description=component id or name"`
	Destination    string   `json:"destination" jsonschema:"description=component id or name"`
	Relationships  []string `json:"relationships,omitempty"`
	Name           string   `json:"name,omitempty"`
	ProcessGroupID string   `json:"process_group_id,omitempty"`
}

type createConnectionsArgs struct {
	Connections    []createConnectionItem `json:"connections"`
	ProcessGroupID string                 `json:"process_group_id,omitempty"`
}

type updateProcessorItem struct {
	ProcessorID        string            `json:"processor_id"`
	Properties         map[string]string `json:"properties,omitempty" jsonschema:"description=null values remove the property"`
	Name               string            `json:"name,omitempty"`
	SchedulingPeriod   string            `json:"scheduling_period,omitempty"`
	SchedulingStrategy string            `json:"scheduling_strategy,omitempty"`
	Comments           string            `json:"comments,omitempty"`
}

type updateProcessorsArgs struct {
	Updates []updateProcessorItem `json:"updates"`
}

type updateRelationshipItem struct {
	ProcessorID                 string   `json:"processor_id"`
	AutoTerminatedRelationships []string `json:"auto_terminated_relationships"`
}

type updateRelationshipsArgs struct {
	Updates []updateRelationshipItem `json:"updates"`
}

type updateConnectionArgs struct {
	ConnectionID                  string   `json:"connection_id"`
	Relationships                 []string `json:"relationships,omitempty"`
	Name                          string   `json:"name,omitempty"`
	BackPressureObjectThreshold   int64    `json:"back_pressure_object_threshold,omitempty"`
	BackPressureDataSizeThreshold string   `json:"back_pressure_data_size_threshold,omitempty"`
	FlowFileExpiration            string   `json:"flowfile_expiration,omitempty"`
}

type deleteObjectItem struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
}

type deleteObjectsArgs struct {
	Objects []deleteObjectItem `json:"objects"`
}

type operateItem struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
	Operation  string `json:"operation" jsonschema:"description=start stop enable or disable"`
}

type operateArgs struct {
	Operations []operateItem `json:"operations"`
}

type purgeArgs struct {
	Connections    []string `json:"connections" jsonschema:"description=connection ids"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
}

type expertHelpArgs struct {
	Question       string `json:"question"`
	Context        string `json:"context,omitempty"`
	ProcessGroupID string `json:"process_group_id,omitempty" jsonschema:"description=attach this group's documented flow as context"`
}
