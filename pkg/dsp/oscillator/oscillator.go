// Package oscillator generates test waveforms.
package oscillator

import "math"

// Shape selects a waveform.
type Shape int

const (
	Sine Shape = iota
	Saw
	Square
)

// ParseShape maps a name to a Shape.
func ParseShape(name string) (Shape, bool) {
	switch name {
	case "sine":
		return Sine, true
	case "saw":
		return Saw, true
	case "square":
		return Square, true
	}
	return Sine, false
}

// Oscillator is a phase accumulator producing one waveform.
type Oscillator struct {
	shape    Shape
	phase    float64
	phaseInc float64
	gain     float32
}

// New creates an oscillator at frequency Hz.
func New(shape Shape, sampleRate, frequency float64) *Oscillator {
	return &Oscillator{
		shape:    shape,
		phaseInc: frequency / sampleRate,
		gain:     1,
	}
}

// SetGain sets the output amplitude.
func (o *Oscillator) SetGain(gain float32) {
	o.gain = gain
}

// Reset sets the phase back to 0.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Next returns one sample.
func (o *Oscillator) Next() float32 {
	var s float64
	switch o.shape {
	case Saw:
		s = 2*o.phase - 1
	case Square:
		s = 1
		if o.phase >= 0.5 {
			s = -1
		}
	default:
		s = math.Sin(2 * math.Pi * o.phase)
	}
	o.phase += o.phaseInc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return float32(s) * o.gain
}

// Fill writes consecutive samples into buf.
func (o *Oscillator) Fill(buf []float32) {
	for i := range buf {
		buf[i] = o.Next()
	}
}
