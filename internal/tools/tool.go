package tools

import (
	"context"
	"fmt"
	"sort"
)

// Tool defines the uniform contract for all pipeline capabilities.
// Requires names the context fields an invocation consumes, Provides
// the fields a successful invocation writes back. Exactly one of the
// returned outputs and error is populated.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Requires() []Field
	Provides() []Field
	Call(ctx context.Context, in Inputs) (Outputs, error)
}

// Schema is one entry of the catalogue handed to the planner.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Registry manages the set of available tools. It is built once at
// startup by explicit Register calls and is read-only afterwards, so
// lookups are safe for concurrent use without locking.
type Registry struct {
	Tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

// Register adds a tool. Registering the same name twice is a
// configuration error and must abort startup.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.Tools[t.Name()]; exists {
		return fmt.Errorf("tool %q is already registered", t.Name())
	}
	r.Tools[t.Name()] = t
	return nil
}

// Get returns the tool registered under name, or nil. A missing tool
// is never fatal at call time; the pipeline skips such steps.
func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Tools))
	for name := range r.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the tool catalogue in registration-independent
// (sorted) order, ready to inject into the planner prompt.
func (r *Registry) Schemas() []Schema {
	schemas := make([]Schema, 0, len(r.Tools))
	for _, name := range r.Names() {
		t := r.Tools[name]
		schemas = append(schemas, Schema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
