package workflow

import (
	"fmt"
	"sort"
)

// Registry holds named workflow definitions. Like the tool registry it is
// populated at startup and read-only afterwards.
type Registry struct {
	byName map[string]*Definition
}

// NewRegistry creates an empty workflow registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Definition)}
}

// Register adds a definition after validating it.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("duplicate workflow name %q", def.Name)
	}
	r.byName[def.Name] = def
	return nil
}

// MustRegister registers and panics on error.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get returns one definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []*Definition {
	out := make([]*Definition, 0, len(r.byName))
	for _, def := range r.byName {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Builtin returns the registry of shipped workflows.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(BuildSimpleFlow())
	r.MustRegister(DiagnoseFlow())
	return r
}
