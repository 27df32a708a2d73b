// Package filter provides second-order IIR filters.
package filter

import "math"

// Biquad is a Direct Form I second-order filter with per-channel state.
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32

	x1, x2 []float32
	y1, y2 []float32
}

// NewBiquad creates a pass-through biquad for the given number of channels.
func NewBiquad(channels int) *Biquad {
	return &Biquad{
		b0: 1,
		x1: make([]float32, channels),
		x2: make([]float32, channels),
		y1: make([]float32, channels),
		y2: make([]float32, channels),
	}
}

// Channels returns the number of channels with state.
func (b *Biquad) Channels() int {
	return len(b.x1)
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	for i := range b.x1 {
		b.x1[i], b.x2[i] = 0, 0
		b.y1[i], b.y2[i] = 0, 0
	}
}

// SetCoefficients sets raw coefficients, normalized by a0.
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float64) {
	inv := 1 / a0
	b.b0 = float32(b0 * inv)
	b.b1 = float32(b1 * inv)
	b.b2 = float32(b2 * inv)
	b.a1 = float32(a1 * inv)
	b.a2 = float32(a2 * inv)
}

// Process filters one channel in place.
func (b *Biquad) Process(buffer []float32, channel int) {
	x1, x2 := b.x1[channel], b.x2[channel]
	y1, y2 := b.y1[channel], b.y2[channel]

	for i, x0 := range buffer {
		y0 := b.b0*x0 + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		buffer[i] = y0
	}

	b.x1[channel], b.x2[channel] = x1, x2
	b.y1[channel], b.y2[channel] = y1, y2
}

// SetLowpass configures a lowpass response.
func (b *Biquad) SetLowpass(sampleRate, frequency, q float64) {
	cos, alpha := prewarp(sampleRate, frequency, q)
	b.SetCoefficients((1-cos)/2, 1-cos, (1-cos)/2, 1+alpha, -2*cos, 1-alpha)
}

// SetHighpass configures a highpass response.
func (b *Biquad) SetHighpass(sampleRate, frequency, q float64) {
	cos, alpha := prewarp(sampleRate, frequency, q)
	b.SetCoefficients((1+cos)/2, -(1 + cos), (1+cos)/2, 1+alpha, -2*cos, 1-alpha)
}

func prewarp(sampleRate, frequency, q float64) (cos, alpha float64) {
	frequency = math.Min(frequency, sampleRate*0.49)
	omega := 2 * math.Pi * frequency / sampleRate
	return math.Cos(omega), math.Sin(omega) / (2 * q)
}
