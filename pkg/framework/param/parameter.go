// Package param provides the parameter schema and lock-free parameter storage used by units.
package param

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Parameter is one unit parameter holding a plain (unnormalized) value.
// The value is stored atomically so the control thread can write while the
// render thread reads.
type Parameter struct {
	ID           unit.ParameterID
	Name         string
	Unit         string
	Min          float32
	Max          float32
	DefaultValue float32
	Flags        uint32

	value atomic.Uint32
}

// Value returns the current plain value.
func (p *Parameter) Value() float32 {
	return math.Float32frombits(p.value.Load())
}

// SetValue stores v clamped into [Min, Max].
func (p *Parameter) SetValue(v float32) {
	p.value.Store(math.Float32bits(p.Clamp(v)))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// Clamp limits v to the parameter range. NaN maps to the default.
func (p *Parameter) Clamp(v float32) float32 {
	if v != v {
		return p.DefaultValue
	}
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// Normalized maps the current value into 0-1.
func (p *Parameter) Normalized() float64 {
	if p.Max <= p.Min {
		return 0
	}
	return float64(p.Value()-p.Min) / float64(p.Max-p.Min)
}

// Info returns the schema entry for this parameter.
func (p *Parameter) Info() unit.ParameterInfo {
	return unit.ParameterInfo{
		ID:      p.ID,
		Name:    p.Name,
		Unit:    p.Unit,
		Min:     p.Min,
		Max:     p.Max,
		Default: p.DefaultValue,
		Flags:   p.Flags,
	}
}
