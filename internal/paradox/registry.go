package paradox

import "fmt"

// Definition binds a message kind name to a constructor returning the kind
// with its default field values.
type Definition struct {
	Name string
	New  func() Message
}

// Registry resolves message kind names. A registry may shadow a fallback
// registry: lookups consult the registry's own definitions first.
type Registry struct {
	defs     map[string]Definition
	fallback *Registry
}

// NewRegistry builds an immutable registry from defs.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
	}
	return r
}

// WithFallback returns a registry holding r's definitions over base.
func (r *Registry) WithFallback(base *Registry) *Registry {
	return &Registry{defs: r.defs, fallback: base}
}

// Lookup consults this registry and then its fallback chain.
func (r *Registry) Lookup(name string) (Definition, bool) {
	for reg := r; reg != nil; reg = reg.fallback {
		if d, ok := reg.defs[name]; ok {
			return d, true
		}
	}
	return Definition{}, false
}

// Resolve is Lookup with ErrRegistryMiss on failure.
func (r *Registry) Resolve(name string) (Definition, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrRegistryMiss, name)
	}
	return d, nil
}

// New instantiates the named message kind with defaults applied.
func (r *Registry) New(name string) (Message, error) {
	d, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return d.New(), nil
}
