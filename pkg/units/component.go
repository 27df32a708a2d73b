package units

import (
	"fmt"

	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Manufacturer code of the built-in units.
var Manufacturer = unit.MustFourCC("Uhst")

// Definition describes how to build one kind of unit.
type Definition struct {
	Description unit.Description
	// Params returns fresh parameters; each handle owns its own values.
	Params func() []*param.Parameter
	// Kernel builds the DSP for one handle.
	Kernel func(params *param.Registry) Kernel
}

type config struct {
	maxFrames uint32
	channels  uint32
}

// Option configures a Component.
type Option func(*config)

// WithMaxFrames sets the initial MaximumFramesPerSlice of new handles.
func WithMaxFrames(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.maxFrames = n
		}
	}
}

// WithChannels sets the initial input and output channel count of new handles.
func WithChannels(n uint32) Option {
	return func(c *config) {
		if n > 0 && n <= MaxChannels {
			c.channels = n
		}
	}
}

// Component creates independent handles of one Definition.
type Component struct {
	def Definition
	cfg config
}

// NewComponent returns a component for def.
func NewComponent(def Definition, opts ...Option) *Component {
	cfg := config{maxFrames: 1024, channels: 2}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Component{def: def, cfg: cfg}
}

func (c *Component) Description() unit.Description {
	return c.def.Description
}

func (c *Component) New() (unit.Unit, error) {
	reg := param.NewRegistry()
	if c.def.Params != nil {
		if err := reg.Add(c.def.Params()...); err != nil {
			return nil, fmt.Errorf("units: %s: %w", c.def.Description.Name, err)
		}
	}
	return newBase(c.def.Description, reg, c.def.Kernel(reg), c.cfg), nil
}

func effect(subtype, name string) unit.Description {
	return unit.Description{
		Type:         unit.TypeEffect,
		Subtype:      unit.MustFourCC(subtype),
		Manufacturer: Manufacturer,
		Name:         name,
	}
}
