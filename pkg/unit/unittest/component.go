package unittest

import (
	"sync"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Component creates Units and remembers them in creation order.
type Component struct {
	Desc unit.Description
	// Configure runs on every new Unit before it is returned.
	Configure func(index int, u *Unit)
	// NewErr, when set, makes New fail.
	NewErr error

	mu    sync.Mutex
	units []*Unit
}

// NewComponent returns a component producing default stereo units.
func NewComponent(configure func(index int, u *Unit)) *Component {
	return &Component{
		Desc: unit.Description{
			Type:         unit.TypeEffect,
			Subtype:      unit.MustFourCC("stub"),
			Manufacturer: unit.MustFourCC("Test"),
			Name:         "Stub",
		},
		Configure: configure,
	}
}

func (c *Component) Description() unit.Description {
	return c.Desc
}

func (c *Component) New() (unit.Unit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.NewErr != nil {
		return nil, c.NewErr
	}
	u := NewUnit()
	if c.Configure != nil {
		c.Configure(len(c.units), u)
	}
	c.units = append(c.units, u)
	return u, nil
}

// Units returns every unit created so far.
func (c *Component) Units() []*Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Unit(nil), c.units...)
}

// Unit returns the i-th created unit, or nil.
func (c *Component) Unit(i int) *Unit {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.units) {
		return nil
	}
	return c.units[i]
}
