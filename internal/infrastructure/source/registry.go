package source

import (
	"fmt"

	"github.com/nori266/hn-filtered/internal/ports"
)

// Registry keeps a mapping from source kinds to their implementations.
type Registry struct {
	sources map[string]ports.ItemSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.ItemSource{}}
}

// Register adds or replaces a source implementation under the given kind.
func (r *Registry) Register(kind string, src ports.ItemSource) {
	if r.sources == nil {
		r.sources = map[string]ports.ItemSource{}
	}
	r.sources[kind] = src
}

// Resolve returns a source by kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (ports.ItemSource, error) {
	if src, ok := r.sources[kind]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", kind)
}
