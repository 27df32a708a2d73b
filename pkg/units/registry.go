package units

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownUnit is returned by Open for a name nobody registered.
var ErrUnknownUnit = errors.New("units: unknown unit")

var errDuplicateUnit = errors.New("units: duplicate unit name")

// Factory builds a component with the given options.
type Factory func(opts ...Option) *Component

// Registry maps unit names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding every built-in unit.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("passthrough", Passthrough)
	r.MustRegister("gain", Gain)
	r.MustRegister("lowpass", Lowpass)
	r.MustRegister("delay", Delay)
	r.MustRegister("gate", SpectralGate)
	return r
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("units: empty unit name")
	}
	if factory == nil {
		return errors.New("units: nil factory")
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateUnit, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for name, or nil.
func (r *Registry) Lookup(name string) Factory {
	return r.factories[name]
}

// Open builds the named component.
func (r *Registry) Open(name string, opts ...Option) (*Component, error) {
	f := r.Lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return f(opts...), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
