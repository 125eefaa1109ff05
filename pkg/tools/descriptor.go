package tools

import (
	"context"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
)

// Phase tags a tool with the operational phases it belongs to. The listing
// endpoint filters by phase so callers can advertise a narrower tool set.
type Phase string

const (
	PhaseReview  Phase = "Review"
	PhaseBuild   Phase = "Build"
	PhaseModify  Phase = "Modify"
	PhaseOperate Phase = "Operate"
	PhaseDebug   Phase = "Debug"
	PhaseQuery   Phase = "Query"
	PhaseVerify  Phase = "Verify"
)

// Phases is the closed set of valid phase tags.
var Phases = []Phase{PhaseReview, PhaseBuild, PhaseModify, PhaseOperate, PhaseDebug, PhaseQuery, PhaseVerify}

// ParsePhase matches a phase tag case-insensitively.
func ParsePhase(s string) (Phase, bool) {
	for _, p := range Phases {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// Handler is a tool implementation. The context carries the LogContext; the
// Call carries the NiFi client and the normalized arguments.
type Handler func(ctx context.Context, call *Call) (any, error)

// nameRe constrains tool names to lower-snake identifiers.
var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Descriptor describes one registered tool. Descriptors are immutable after
// registration.
type Descriptor struct {
	// Name is the unique lower-snake tool name.
	Name string `json:"name"`

	// Description is the raw multi-section description. Section markers
	// ("Returns:", "Example:") split it for the public listing.
	Description string `json:"-"`

	// Schema describes the tool's parameter object.
	Schema *jsonschema.Schema `json:"parameters,omitempty"`

	// Phases tags the tool for phase-filtered listings.
	Phases []Phase `json:"phases"`

	// Handler is invoked by the dispatcher.
	Handler Handler `json:"-"`
}

// HasPhase reports whether the descriptor carries the given phase tag.
func (d *Descriptor) HasPhase(p Phase) bool {
	for _, have := range d.Phases {
		if have == p {
			return true
		}
	}
	return false
}

// Sections is the parsed form of a tool description for the public listing.
type Sections struct {
	Short   string `json:"short"`
	Long    string `json:"long,omitempty"`
	Returns string `json:"returns,omitempty"`
	Example string `json:"example,omitempty"`
}

// ParseDescription splits a description into short/long/returns/example.
// The first line is the short form; "Returns:" and "Example:" markers open
// the remaining sections.
func ParseDescription(desc string) Sections {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return Sections{}
	}

	var s Sections
	lines := strings.Split(desc, "\n")
	s.Short = strings.TrimSpace(lines[0])

	section := "long"
	var long, returns, example []string
	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Returns:"):
			section = "returns"
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "Returns:"))
			if rest != "" {
				returns = append(returns, rest)
			}
		case strings.HasPrefix(trimmed, "Example:"):
			section = "example"
			rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "Example:"))
			if rest != "" {
				example = append(example, rest)
			}
		default:
			switch section {
			case "returns":
				returns = append(returns, line)
			case "example":
				example = append(example, line)
			default:
				long = append(long, line)
			}
		}
	}
	s.Long = strings.TrimSpace(strings.Join(long, "\n"))
	s.Returns = strings.TrimSpace(strings.Join(returns, "\n"))
	s.Example = strings.TrimSpace(strings.Join(example, "\n"))
	return s
}

// schemaReflector generates parameter schemas from typed argument structs.
// DoNotReference inlines definitions so callers get one self-contained
// schema per tool.
var schemaReflector = jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: true,
}

// ReflectSchema builds the parameter schema for a typed argument struct.
func ReflectSchema(v any) *jsonschema.Schema {
	s := schemaReflector.Reflect(v)
	s.Version = ""
	return s
}
