// Package unit defines the contract between the host and a native audio-processing unit.
//
// A Unit is an opaque, independently stateful processing handle. A Component is the
// template (class identity plus parameter schema) that produces Units. The host talks to
// a Unit only through fixed-size typed properties, parameters, lifecycle calls and a
// pull-model render callback, the same shape vendor unit APIs expose.
package unit

import "fmt"

// PropertyID identifies a fixed-size unit property.
type PropertyID uint32

// Unit properties understood by the host.
const (
	// PropMaximumFramesPerSlice is the largest frame count one Render call accepts (uint32).
	PropMaximumFramesPerSlice PropertyID = 14
	// PropLatency is the processing latency in seconds (float64).
	PropLatency PropertyID = 12
	// PropTailTime is the decay tail in seconds (float64).
	PropTailTime PropertyID = 20
	// PropBypassEffect is 1 while the unit passes input through untouched (uint32).
	PropBypassEffect PropertyID = 21
	// PropSampleRate is the stream sample rate of a scope (float64).
	PropSampleRate PropertyID = 2
	// PropChannelCount is the number of channels of the input or output stream (uint32).
	PropChannelCount PropertyID = 8
)

// String returns a readable property name.
func (p PropertyID) String() string {
	switch p {
	case PropMaximumFramesPerSlice:
		return "MaximumFramesPerSlice"
	case PropLatency:
		return "Latency"
	case PropTailTime:
		return "TailTime"
	case PropBypassEffect:
		return "BypassEffect"
	case PropSampleRate:
		return "SampleRate"
	case PropChannelCount:
		return "ChannelCount"
	default:
		return fmt.Sprintf("Property(%d)", uint32(p))
	}
}

// Scope selects which side of the unit a property or parameter addresses.
type Scope uint32

const (
	// ScopeGlobal addresses the unit as a whole.
	ScopeGlobal Scope = 0
	// ScopeInput addresses an input element.
	ScopeInput Scope = 1
	// ScopeOutput addresses an output element.
	ScopeOutput Scope = 2
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	default:
		return fmt.Sprintf("scope(%d)", uint32(s))
	}
}

// ParameterID identifies a unit parameter.
type ParameterID uint32

// Parameter flags
const (
	ParamReadable uint32 = 1 << 0
	ParamWritable uint32 = 1 << 1
	ParamHidden   uint32 = 1 << 2
)

// ParameterInfo describes one parameter of a unit's schema.
type ParameterInfo struct {
	ID      ParameterID
	Name    string
	Unit    string
	Min     float32
	Max     float32
	Default float32
	Flags   uint32
}

// Writable reports whether the host may set the parameter.
func (p ParameterInfo) Writable() bool {
	return p.Flags&ParamWritable != 0
}

// RenderFlags are passed through Render and the input callback.
type RenderFlags uint32

const (
	// RenderPreRender marks the notification before a render.
	RenderPreRender RenderFlags = 1 << 2
	// RenderPostRender marks the notification after a render.
	RenderPostRender RenderFlags = 1 << 3
	// RenderOutputIsSilence may be set by a unit whose output is all zero.
	RenderOutputIsSilence RenderFlags = 1 << 4
)

// TimeStampFlags says which TimeStamp fields are valid.
type TimeStampFlags uint32

// TimeStampSampleTimeValid marks SampleTime as valid.
const TimeStampSampleTimeValid TimeStampFlags = 1 << 0

// TimeStamp carries the running sample position of a render call.
// SampleTime is a float64 so it can accumulate frames for a whole session.
type TimeStamp struct {
	SampleTime float64
	Flags      TimeStampFlags
}

// Description identifies a component.
type Description struct {
	Type         FourCC
	Subtype      FourCC
	Manufacturer FourCC
	Name         string
}

func (d Description) String() string {
	return fmt.Sprintf("%s:%s:%s (%s)", d.Type, d.Subtype, d.Manufacturer, d.Name)
}

// Common component types
var (
	TypeEffect      = MustFourCC("aufx")
	TypeMusicEffect = MustFourCC("aumf")
)
