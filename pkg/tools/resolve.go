package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nifiops/nifibridge/pkg/nifi"
)

// ObjectType is the caller-facing classification of a NiFi object. "port"
// collapses NiFi's two port variants; the client resolves the real variant.
type ObjectType string

const (
	TypeProcessor         ObjectType = "processor"
	TypeConnection        ObjectType = "connection"
	TypePort              ObjectType = "port"
	TypeInputPort         ObjectType = "input_port"
	TypeOutputPort        ObjectType = "output_port"
	TypeProcessGroup      ObjectType = "process_group"
	TypeControllerService ObjectType = "controller_service"
)

// ParseObjectType matches an object type case-insensitively, accepting both
// snake and camel variants callers emit.
func ParseObjectType(s string) (ObjectType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "processor", "processors":
		return TypeProcessor, true
	case "connection", "connections":
		return TypeConnection, true
	case "port", "ports":
		return TypePort, true
	case "input_port", "inputport", "input-port":
		return TypeInputPort, true
	case "output_port", "outputport", "output-port":
		return TypeOutputPort, true
	case "process_group", "processgroup", "process-group", "group":
		return TypeProcessGroup, true
	case "controller_service", "controllerservice", "controller-service", "service":
		return TypeControllerService, true
	default:
		return "", false
	}
}

// uuidRe matches the canonical UUID form NiFi uses for component ids.
var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// LooksLikeID reports whether s has the shape of a NiFi component id.
func LooksLikeID(s string) bool {
	return uuidRe.MatchString(s)
}

// connectable is a resolved connection endpoint candidate.
type connectable struct {
	ID   string
	Name string
	Type string // PROCESSOR, INPUT_PORT, OUTPUT_PORT
}

// resolveConnectable resolves a connection endpoint given as an id or a name
// within a group. Name resolution scans the group's processors and ports;
// an ambiguous name is an error listing every candidate id so the caller can
// retry with an exact one.
func resolveConnectable(ctx context.Context, client *nifi.Client, groupID, ref string) (*connectable, error) {
	if ref == "" {
		return nil, fmt.Errorf("connection endpoint must not be empty")
	}
	if LooksLikeID(ref) {
		return resolveConnectableByID(ctx, client, ref)
	}

	var matches []connectable

	processors, err := client.ListProcessors(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, p := range processors {
		if p.Component != nil && strings.EqualFold(p.Component.Name, ref) {
			matches = append(matches, connectable{ID: p.ID, Name: p.Component.Name, Type: "PROCESSOR"})
		}
	}

	inputs, err := client.ListInputPorts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, p := range inputs {
		if p.Component != nil && strings.EqualFold(p.Component.Name, ref) {
			matches = append(matches, connectable{ID: p.ID, Name: p.Component.Name, Type: string(nifi.PortInput)})
		}
	}

	outputs, err := client.ListOutputPorts(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, p := range outputs {
		if p.Component != nil && strings.EqualFold(p.Component.Name, ref) {
			matches = append(matches, connectable{ID: p.ID, Name: p.Component.Name, Type: string(nifi.PortOutput)})
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no processor or port named %q in group %s", ref, groupID)
	case 1:
		m := matches[0]
		return &m, nil
	default:
		ids := make([]string, 0, len(matches))
		for _, m := range matches {
			ids = append(ids, fmt.Sprintf("%s (%s)", m.ID, m.Type))
		}
		return nil, fmt.Errorf("name %q is ambiguous in group %s; matching ids: %s. Use an id instead",
			ref, groupID, strings.Join(ids, ", "))
	}
}

// resolveConnectableByID identifies what kind of component an id refers to,
// trying processors first and falling back to ports.
func resolveConnectableByID(ctx context.Context, client *nifi.Client, id string) (*connectable, error) {
	p, err := client.GetProcessor(ctx, id)
	if err == nil {
		name := ""
		if p.Component != nil {
			name = p.Component.Name
		}
		return &connectable{ID: p.ID, Name: name, Type: "PROCESSOR"}, nil
	}
	if !nifi.IsNotFound(err) {
		return nil, err
	}

	port, err := client.GetPort(ctx, id)
	if err != nil {
		if nifi.IsNotFound(err) {
			return nil, fmt.Errorf("no processor or port with id %s", id)
		}
		return nil, err
	}
	name := ""
	if port.Component != nil {
		name = port.Component.Name
	}
	return &connectable{ID: port.ID, Name: name, Type: string(port.Kind)}, nil
}
