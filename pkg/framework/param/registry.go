package param

import (
	"fmt"
	"sync"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Registry holds the parameters of one unit handle in declaration order.
type Registry struct {
	params map[unit.ParameterID]*Parameter
	order  []unit.ParameterID
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[unit.ParameterID]*Parameter),
	}
}

// Add registers parameters. A duplicate ID is an error and nothing after it is added.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("param: duplicate parameter id %d (%s)", p.ID, p.Name)
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return nil
}

// Get retrieves a parameter by ID, or nil.
func (r *Registry) Get(id unit.ParameterID) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[id]
}

// Count returns the number of parameters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns all parameters in declaration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// Infos returns the schema in declaration order.
func (r *Registry) Infos() []unit.ParameterInfo {
	all := r.All()
	infos := make([]unit.ParameterInfo, len(all))
	for i, p := range all {
		infos[i] = p.Info()
	}
	return infos
}

// ResetAll restores every parameter to its default.
func (r *Registry) ResetAll() {
	for _, p := range r.All() {
		p.Reset()
	}
}
