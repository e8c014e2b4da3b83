// Package source implements the per-site search adapters and the ordered
// registry the harvester iterates.
package source

import (
	"context"
	"fmt"

	"github.com/srikandi-id/harvester/internal/types"
)

// Adapter fetches one search-results page for a keyword and turns it into
// candidate records. Fetch never fails past its boundary: network, status,
// and markup faults are logged and yield an empty slice.
type Adapter interface {
	Name() types.SourceName
	Fetch(ctx context.Context, keyword string, limit int) []types.CandidateRecord
}

// Registry keeps adapters in registration order, which is query order.
type Registry struct {
	adapters []Adapter
	index    map[types.SourceName]int
}

// NewRegistry builds a registry holding adapters in the given order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{index: map[types.SourceName]int{}}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register appends an adapter, or replaces one with the same name in place.
func (r *Registry) Register(a Adapter) {
	if r.index == nil {
		r.index = map[types.SourceName]int{}
	}
	if i, ok := r.index[a.Name()]; ok {
		r.adapters[i] = a
		return
	}
	r.index[a.Name()] = len(r.adapters)
	r.adapters = append(r.adapters, a)
}

// Resolve returns the adapter registered under name.
func (r *Registry) Resolve(name types.SourceName) (Adapter, error) {
	if i, ok := r.index[name]; ok {
		return r.adapters[i], nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrUnknownSource, name)
}

// Adapters returns the registered adapters in query order.
func (r *Registry) Adapters() []Adapter {
	return append([]Adapter(nil), r.adapters...)
}

// Names returns the registered source names in query order.
func (r *Registry) Names() []types.SourceName {
	names := make([]types.SourceName, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}
