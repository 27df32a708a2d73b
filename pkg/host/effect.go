// Package host drives a unit group over a multichannel track the way a
// realtime effect host does: one processor per channel group, settings pushed
// at the start of every cycle, silence for groups that fail to render.
package host

import (
	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/settings"
)

// Effect is the realtime surface of one logical effect. *instance.Group
// implements it.
type Effect interface {
	Initialize(snap *settings.Snapshot, sampleRate float64, chanMap bus.ChannelMap) error
	AddProcessor(snap *settings.Snapshot, sampleRate float64) error
	Dispatch(index int, snap *settings.Snapshot, in, out [][]float32, frames int) int
	ProcessStart(snap *settings.Snapshot) error
	ProcessEnd() error
	Suspend() error
	Resume() error
	Finalize() error

	AudioInCount() uint32
	AudioOutCount() uint32
	BlockSize() int
	Latency(sampleRate float64) int64
}
