package capability

import (
	"context"
	"sort"
)

// Executor runs a validated capability invocation.
type Executor func(ctx context.Context, params map[string]interface{}) (map[string]interface{}, *InvokeError)

// Capability is one named, schema-validated operation.
type Capability struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Version      string `json:"version"`
	InputSchema  Schema `json:"input_schema"`
	OutputSchema Schema `json:"output_schema"`

	execute Executor
}

// Registry holds the capability set exposed on the invocation surface.
type Registry struct {
	byID map[string]*Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Capability)}
}

// Register adds a capability with its executor.
func (r *Registry) Register(cap Capability, exec Executor) {
	cap.execute = exec
	if cap.Version == "" {
		cap.Version = "1.0.0"
	}
	r.byID[cap.ID] = &cap
}

// Get returns the capability with the given id.
func (r *Registry) Get(id string) (*Capability, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// List returns all capabilities sorted by id.
func (r *Registry) List() []*Capability {
	out := make([]*Capability, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
