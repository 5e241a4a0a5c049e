// Package registry caches one live adapter per entity name. The cache is
// an explicit object owned by the caller, not module-level state, so tests
// can construct independent registries.
package registry

import (
	"fmt"
	"sync"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Factory produces an adapter for an entity name.
type Factory func(entity string) (types.Adapter, error)

// Registry hands out singleton adapters per entity name for its lifetime.
type Registry struct {
	mu       sync.Mutex
	factory  Factory
	adapters map[string]types.Adapter
}

// New creates a registry over factory.
func New(factory Factory) *Registry {
	return &Registry{
		factory:  factory,
		adapters: make(map[string]types.Adapter),
	}
}

// ForEngine creates a registry whose factory is an engine's Adapter method.
func ForEngine(engine types.Engine) *Registry {
	return New(func(entity string) (types.Adapter, error) {
		return engine.Adapter(entity), nil
	})
}

// Adapter returns the adapter for entity, invoking the factory on first
// use and reusing the instance afterwards.
func (r *Registry) Adapter(entity string) (types.Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.adapters[entity]; ok {
		return a, nil
	}
	a, err := r.factory(entity)
	if err != nil {
		return nil, fmt.Errorf("creating adapter for %q: %w", entity, err)
	}
	r.adapters[entity] = a
	return a, nil
}
