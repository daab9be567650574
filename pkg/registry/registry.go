// Package registry maps component names to render steps, so trees compiled
// from declarative packs can reference components defined in Go code.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Registry manages the available named components.
type Registry struct {
	mu         sync.RWMutex
	components map[string]domain.RenderFunc
	permissive bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]domain.RenderFunc),
	}
}

// NewPermissive creates a registry that resolves every name, substituting a
// render step that emits nothing for names nobody registered. Validation
// tooling uses it so packs referencing caller-registered components still
// check structurally.
func NewPermissive() *Registry {
	r := New()
	r.permissive = true
	return r
}

// Register adds a component under a name. An existing component with the
// same name is overwritten.
func (r *Registry) Register(name string, fn domain.RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = fn
}

// Resolve looks up a component by name.
func (r *Registry) Resolve(name string) (domain.RenderFunc, error) {
	r.mu.RLock()
	fn, ok := r.components[name]
	r.mu.RUnlock()

	if !ok {
		if r.permissive {
			return emptyFragment, nil
		}
		return nil, fmt.Errorf("component not found: %s", name)
	}
	return fn, nil
}

func emptyFragment(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
	return &domain.Element{Kind: domain.KindFragment}, nil
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
