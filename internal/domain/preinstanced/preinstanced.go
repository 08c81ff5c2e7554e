// Package preinstanced implements Discord's extensible enumerations.
//
// A Registry holds the predefined instances of one enum. Looking up a value
// that Discord added after this library was written creates a new instance
// named NameDefault and registers it, so unknown values survive a parse and
// put round-trip instead of being dropped.
package preinstanced

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// NameDefault is the name of instances created for unknown values.
const NameDefault = "UNDEFINED"

// Instance is one member of an enumeration. Instances are compared by identity.
type Instance[V cmp.Ordered] struct {
	kind  string
	name  string
	value V
}

// Name returns the instance name.
func (i *Instance[V]) Name() string {
	return i.name
}

// Value returns the wire value.
func (i *Instance[V]) Value() V {
	return i.value
}

// Kind returns the name of the enumeration the instance belongs to.
func (i *Instance[V]) Kind() string {
	return i.kind
}

// String implements fmt.Stringer.
func (i *Instance[V]) String() string {
	if i == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(name=%q, value=%v)", i.kind, i.name, i.value)
}

// Registry is the global instance table of one enumeration.
type Registry[V cmp.Ordered] struct {
	kind string

	mu        sync.RWMutex
	instances map[V]*Instance[V]
}

// NewRegistry creates an empty registry for the named enumeration.
func NewRegistry[V cmp.Ordered](kind string) *Registry[V] {
	return &Registry[V]{
		kind:      kind,
		instances: make(map[V]*Instance[V]),
	}
}

// Kind returns the enumeration name.
func (r *Registry[V]) Kind() string {
	return r.kind
}

// Register defines a predefined instance. Registering a value twice returns
// the first instance.
func (r *Registry[V]) Register(value V, name string) *Instance[V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.instances[value]; ok {
		return existing
	}
	instance := &Instance[V]{kind: r.kind, name: name, value: value}
	r.instances[value] = instance
	return instance
}

// Get returns the instance for value, creating an undefined one if needed.
func (r *Registry[V]) Get(value V) *Instance[V] {
	r.mu.RLock()
	instance, ok := r.instances[value]
	r.mu.RUnlock()
	if ok {
		return instance
	}
	return r.Register(value, NameDefault)
}

// Lookup returns the instance for value without creating one.
func (r *Registry[V]) Lookup(value V) (*Instance[V], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instance, ok := r.instances[value]
	return instance, ok
}

// All returns every registered instance ordered by value.
func (r *Registry[V]) All() []*Instance[V] {
	r.mu.RLock()
	out := make([]*Instance[V], 0, len(r.instances))
	for _, instance := range r.instances {
		out = append(out, instance)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Instance[V]) int {
		return cmp.Compare(a.value, b.value)
	})
	return out
}

// Len returns the number of registered instances.
func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
