package param

import "github.com/justyntemme/unithost/pkg/unit"

// Builder provides a fluent API for declaring parameters
type Builder struct {
	param *Parameter
}

// New starts a readable, writable parameter with range 0-1.
func New(id unit.ParameterID, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:    id,
			Name:  name,
			Min:   0,
			Max:   1,
			Flags: unit.ParamReadable | unit.ParamWritable,
		},
	}
}

// Range sets the min and max values
func (b *Builder) Range(min, max float32) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default plain value
func (b *Builder) Default(value float32) *Builder {
	b.param.DefaultValue = value
	return b
}

// Unit sets the unit label
func (b *Builder) Unit(label string) *Builder {
	b.param.Unit = label
	return b
}

// ReadOnly marks the parameter as a meter the host cannot set.
func (b *Builder) ReadOnly() *Builder {
	b.param.Flags &^= unit.ParamWritable
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.param.Flags |= unit.ParamHidden
	return b
}

// Build returns the parameter holding its (clamped) default value.
func (b *Builder) Build() *Parameter {
	b.param.DefaultValue = b.param.Clamp(b.param.DefaultValue)
	b.param.Reset()
	return b.param
}
