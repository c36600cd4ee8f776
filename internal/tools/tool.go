package tools

import (
	"context"
	"sort"
)

// Tool defines the interface for all pipeline capabilities.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema for the tool's inputs
	Execute(ctx context.Context, input string) (string, error)
}

// DiagnosticSink receives non-fatal content diagnostics from tools, such as
// a web clean that was skipped or discarded.
type DiagnosticSink interface {
	LogDiagnostic(source, detail string)
}

// Registry manages the set of available tools as an open, name-keyed
// capability set. Register everything at startup; reads are safe for
// concurrent runners.
type Registry struct {
	Tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	r.Tools[t.Name()] = t
}

// Resolve looks a tool up by name.
func (r *Registry) Resolve(name string) (Tool, bool) {
	t, ok := r.Tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Tools))
	for name := range r.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
