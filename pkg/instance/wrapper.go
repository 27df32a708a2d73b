package instance

import (
	"fmt"

	"github.com/justyntemme/unithost/pkg/unit"
)

// defaultBlockSize is used when a unit does not report MaximumFramesPerSlice.
const defaultBlockSize = 512

// wrapper owns one native handle and the typed property calls made on it.
type wrapper struct {
	unit unit.Unit
	desc unit.Description
}

func newWrapper(c unit.Component) (*wrapper, error) {
	u, err := c.New()
	if err != nil {
		return nil, fmt.Errorf("instance: create %s: %w", c.Description(), err)
	}
	return &wrapper{unit: u, desc: c.Description()}, nil
}

// maxFramesPerSlice queries the unit's block size, falling back to the default.
func (w *wrapper) maxFramesPerSlice() int {
	n, err := unit.GetFixed[uint32](w.unit, unit.PropMaximumFramesPerSlice, unit.ScopeGlobal, 0)
	if err != nil || n == 0 {
		return defaultBlockSize
	}
	return int(n)
}

// channelCount reads the channel count of scope.
func (w *wrapper) channelCount(scope unit.Scope) (uint32, error) {
	return unit.GetFixed[uint32](w.unit, unit.PropChannelCount, scope, 0)
}

// setRateAndChannels applies the sample rate, then the channel counts. The
// counts the unit reports after the rate change are returned; when they differ
// from ins and outs nothing more is set.
func (w *wrapper) setRateAndChannels(sampleRate float64, ins, outs uint32) (uint32, uint32, error) {
	if err := unit.SetFixed(w.unit, unit.PropSampleRate, unit.ScopeGlobal, 0, sampleRate); err != nil {
		return ins, outs, fmt.Errorf("set sample rate %g: %w", sampleRate, err)
	}

	gotIns, gotOuts := ins, outs
	if n, err := w.channelCount(unit.ScopeInput); err == nil {
		gotIns = n
	}
	if n, err := w.channelCount(unit.ScopeOutput); err == nil {
		gotOuts = n
	}
	if gotIns != ins || gotOuts != outs {
		return gotIns, gotOuts, nil
	}

	if err := unit.SetFixed(w.unit, unit.PropChannelCount, unit.ScopeInput, 0, ins); err != nil {
		return ins, outs, fmt.Errorf("set input channels %d: %w", ins, err)
	}
	if err := unit.SetFixed(w.unit, unit.PropChannelCount, unit.ScopeOutput, 0, outs); err != nil {
		return ins, outs, fmt.Errorf("set output channels %d: %w", outs, err)
	}
	return ins, outs, nil
}

// bypassEffect sets the BypassEffect property. Bypassing resets the unit first.
func (w *wrapper) bypassEffect(bypass bool) error {
	var v uint32
	if bypass {
		v = 1
		if err := w.unit.Reset(unit.ScopeGlobal, 0); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return unit.SetFixed(w.unit, unit.PropBypassEffect, unit.ScopeGlobal, 0, v)
}

func (w *wrapper) latencySeconds() (float64, error) {
	return unit.GetFixed[float64](w.unit, unit.PropLatency, unit.ScopeGlobal, 0)
}
