// Package meter provides level meters fed from the audio thread and read
// from anywhere.
package meter

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/dsp"
)

// Defaults for a new Peak meter.
const (
	DefaultHoldSeconds = 3.0
	DefaultDecayDB     = 20.0
)

// Peak follows the absolute peak of a signal. The level falls at a fixed rate
// in dB per second; the hold value stays at the loudest peak for the hold time.
//
// Process and Update run on one goroutine. Level, Hold and their dB forms may
// be called concurrently with them.
type Peak struct {
	sampleRate  float64
	holdSamples int
	decay       float64 // natural log units per sample

	peak     float64
	hold     float64
	holdLeft int

	level atomic.Uint32
	held  atomic.Uint32
}

// NewPeak returns a meter for a signal at sampleRate.
func NewPeak(sampleRate float64) *Peak {
	p := &Peak{sampleRate: sampleRate}
	p.SetHoldTime(DefaultHoldSeconds)
	p.SetDecayRate(DefaultDecayDB)
	return p
}

// SetHoldTime sets how long the hold value lasts, in seconds.
func (p *Peak) SetHoldTime(seconds float64) {
	p.holdSamples = int(seconds * p.sampleRate)
}

// SetDecayRate sets how fast the level falls, in dB per second.
func (p *Peak) SetDecayRate(dbPerSecond float64) {
	p.decay = dbPerSecond / p.sampleRate / 20 * math.Ln10
}

// Process measures one block of samples.
func (p *Peak) Process(samples []float32) {
	p.Update(dsp.Peak(samples), len(samples))
}

// Update feeds the peak of a block of frames measured elsewhere.
func (p *Peak) Update(blockPeak float32, frames int) {
	bp := float64(blockPeak)
	p.peak *= math.Exp(-p.decay * float64(frames))
	if bp > p.peak {
		p.peak = bp
	}

	if bp > p.hold {
		p.hold = bp
		p.holdLeft = p.holdSamples
	} else {
		p.holdLeft -= frames
		if p.holdLeft <= 0 {
			p.hold = p.peak
			p.holdLeft = 0
		}
	}

	p.level.Store(math.Float32bits(float32(p.peak)))
	p.held.Store(math.Float32bits(float32(p.hold)))
}

// Level returns the decaying peak, linear.
func (p *Peak) Level() float32 { return math.Float32frombits(p.level.Load()) }

// Hold returns the held peak, linear.
func (p *Peak) Hold() float32 { return math.Float32frombits(p.held.Load()) }

// LevelDB returns Level in dBFS, floored at dsp.MinDB.
func (p *Peak) LevelDB() float64 { return dsp.GainToDB(float64(p.Level())) }

// HoldDB returns Hold in dBFS, floored at dsp.MinDB.
func (p *Peak) HoldDB() float64 { return dsp.GainToDB(float64(p.Hold())) }

// Reset clears the level and hold.
func (p *Peak) Reset() {
	p.peak, p.hold, p.holdLeft = 0, 0, 0
	p.level.Store(0)
	p.held.Store(0)
}
