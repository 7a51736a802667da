// Package transformer defines the transformer contract and a
// name-keyed registry (spec.md §3, §9).
package transformer

import (
	"context"
	"sync"

	"github.com/adobe/asset-compute-pipeline/internal/manifest"
)

// Context is the per-step context handed to a transformer's Compute
// method. It is the engine-facing face of the execution-time
// TransformerContext (see internal/engine); transformers see only what
// they need to read/write files and access request-scoped auth.
type Context interface {
	context.Context

	// Directory is the working directory ("in/" and "out/" live under it).
	Directory() string

	// Auth returns the request-scoped auth bundle, if any was supplied.
	Auth() map[string]string

	// UserData returns the caller-supplied, allow-listed user data bag.
	UserData() map[string]any
}

// Transformer is a registered content-conversion unit. Instances are
// immutable once registered: name, manifest, and compute behavior do
// not change after Register.
type Transformer interface {
	Name() string
	Manifest() manifest.Manifest
	Compute(ctx Context, input, output map[string]any) error
}

// Registry maps transformer name to transformer. Registration of a
// name already present replaces the prior entry (last-writer-wins);
// insertion order carries no semantics.
type Registry struct {
	mu           sync.RWMutex
	transformers map[string]Transformer
	// order records each name's first-registration position (a
	// replacement keeps the original slot); Names and All list in it.
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{transformers: make(map[string]Transformer)}
}

// Register adds or replaces t under t.Name().
func (r *Registry) Register(t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.transformers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.transformers[name] = t
}

// Get looks up a transformer by name.
func (r *Registry) Get(name string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transformers[name]
	return t, ok
}

// Names returns registered transformer names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every registered transformer in registration order.
func (r *Registry) All() []Transformer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Transformer, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.transformers[name])
	}
	return out
}

// Len reports the number of registered transformers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transformers)
}
