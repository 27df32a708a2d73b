// Package instance hosts native units for real-time rendering: one Instance per
// native handle, and a Group fanning one logical effect out over the channel
// groups of a track.
package instance

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/framework/debug"
	"github.com/justyntemme/unithost/pkg/settings"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Codes recorded for render failures without a native status.
const (
	statusNotInitialized int32 = 0
	statusInvalidBlock   int32 = 1
	statusUnknown        int32 = -1
)

// Instance renders one native unit handle with fixed channel counts.
//
// Control methods (Initialize, Finalize, SetBypass, Close) must not run while
// RenderBlock runs on the same instance.
type Instance struct {
	id        uuid.UUID
	w         *wrapper
	cfg       config
	log       *debug.Logger
	ins, outs uint32
	blockSize int
	bypassed  bool
	chanMap   bus.ChannelMap

	// unitInitialized is true while the native unit holds an initialization.
	unitInitialized bool

	inputs   *unit.BufferList
	outputs  *unit.BufferList
	ts       unit.TimeStamp
	provider *inputProvider

	failures   atomic.Uint64
	lastStatus atomic.Int32
}

// NewInstance creates a native handle from component. The block size is read
// from the unit once and never changes.
func NewInstance(component unit.Component, ins, outs uint32, opts ...Option) (*Instance, error) {
	w, err := newWrapper(component)
	if err != nil {
		return nil, err
	}
	cfg := buildConfig(opts)
	inst := &Instance{
		id:   uuid.New(),
		w:    w,
		cfg:  cfg,
		ins:  ins,
		outs: outs,
	}
	inst.log = cfg.logger.With(inst.name())
	inst.provider = &inputProvider{inst: inst}
	inst.blockSize = w.maxFramesPerSlice()
	return inst, nil
}

func (i *Instance) name() string {
	if i.cfg.identifier != "" {
		return i.cfg.identifier
	}
	return i.w.desc.Name
}

// ID identifies the instance as a settings source.
func (i *Instance) ID() uuid.UUID { return i.id }

// Unit returns the native handle.
func (i *Instance) Unit() unit.Unit { return i.w.unit }

// AudioInCount returns the number of input channels.
func (i *Instance) AudioInCount() uint32 { return i.ins }

// AudioOutCount returns the number of output channels.
func (i *Instance) AudioOutCount() uint32 { return i.outs }

// BlockSize returns the fixed block size.
func (i *Instance) BlockSize() int { return i.blockSize }

// SetBlockSize ignores n; larger blocks than the unit reported do not work.
// It returns the fixed block size.
func (i *Instance) SetBlockSize(n int) int { return i.blockSize }

// Bypassed reports the last bypass state set successfully.
func (i *Instance) Bypassed() bool { return i.bypassed }

// ChannelMap returns the channel map passed to the last Initialize.
func (i *Instance) ChannelMap() bus.ChannelMap { return i.chanMap }

// SampleTime returns the number of frames rendered since Initialize.
func (i *Instance) SampleTime() float64 { return i.ts.SampleTime }

// Initialize prepares the unit to render at sampleRate. Settings are stored
// before the format is touched since some units refuse parameter changes once
// their topology is fixed. Finalize is safe after a failed Initialize.
func (i *Instance) Initialize(snap *settings.Snapshot, sampleRate float64, chanMap bus.ChannelMap) error {
	if err := settings.Store(i.w.unit, snap); err != nil {
		i.log.Error("storing settings failed: %v", err)
		return err
	}

	i.inputs = unit.NewBufferList(int(i.ins))
	i.outputs = unit.NewBufferList(int(i.outs))
	i.ts = unit.TimeStamp{Flags: unit.TimeStampSampleTimeValid}
	i.chanMap = chanMap

	if i.unitInitialized {
		if err := i.w.unit.Uninitialize(); err != nil {
			i.log.Warn("uninitialize failed: %v", err)
		}
		i.unitInitialized = false
	}

	ins, outs, err := i.w.setRateAndChannels(sampleRate, i.ins, i.outs)
	if err != nil {
		i.log.Error("%v", err)
		return fmt.Errorf("instance: %w", err)
	}
	if err := i.w.unit.Initialize(); err != nil {
		i.log.Error("couldn't initialize unit: %v", err)
		return fmt.Errorf("instance: initialize: %w", err)
	}
	if ins != i.ins || outs != i.outs {
		i.log.Error("unit changed channels from %d/%d to %d/%d when setting rate", i.ins, i.outs, ins, outs)
		if err := i.w.unit.Uninitialize(); err != nil {
			i.log.Warn("uninitialize failed: %v", err)
		}
		return ErrTopologyChanged
	}
	i.unitInitialized = true

	if err := i.w.unit.SetInputProvider(unit.ScopeInput, 0, i.provider); err != nil {
		i.log.Error("setting input render callback failed: %v", err)
		return fmt.Errorf("instance: set input provider: %w", err)
	}
	if err := i.w.unit.Reset(unit.ScopeGlobal, 0); err != nil {
		return fmt.Errorf("instance: reset: %w", err)
	}
	if err := i.SetBypass(false); err != nil {
		return err
	}

	i.log.Debug("initialized at %g Hz, %d in, %d out, block %d", sampleRate, i.ins, i.outs, i.blockSize)
	return nil
}

// Finalize releases the buffer lists. It always succeeds.
func (i *Instance) Finalize() error {
	i.inputs = nil
	i.outputs = nil
	return nil
}

// RenderBlock renders frames from in to out and returns the frames produced.
// The slices are borrowed for the call only. On failure it returns 0, leaves the
// sample time alone and records the failure for RenderFailures.
func (i *Instance) RenderBlock(snap *settings.Snapshot, in, out [][]float32, frames int) int {
	if i.inputs == nil || i.outputs == nil {
		i.lastStatus.Store(statusNotInitialized)
		i.failures.Add(1)
		return 0
	}
	if frames > i.blockSize {
		i.recordFailure(unit.ErrTooManyFramesToProcess)
		return 0
	}
	if frames < 0 || !fits(in, len(i.inputs.Buffers), frames) || !fits(out, len(i.outputs.Buffers), frames) {
		i.lastStatus.Store(statusInvalidBlock)
		i.failures.Add(1)
		return 0
	}

	for ch := range i.inputs.Buffers {
		var data []float32
		if ch < len(in) {
			data = in[ch][:frames]
		}
		i.inputs.Point(ch, data)
	}
	for ch := range i.outputs.Buffers {
		var data []float32
		if ch < len(out) {
			data = out[ch][:frames]
		}
		i.outputs.Point(ch, data)
	}

	var flags unit.RenderFlags
	err := i.w.unit.Render(&flags, &i.ts, 0, uint32(frames), i.outputs)
	i.inputs.Detach()
	i.outputs.Detach()
	if err != nil {
		i.recordFailure(err)
		return 0
	}

	i.ts.SampleTime += float64(frames)
	return frames
}

// fits reports whether every slot the unit reads holds at least frames samples.
// Missing slots are rendered as silence.
func fits(bufs [][]float32, slots, frames int) bool {
	for ch := 0; ch < slots && ch < len(bufs); ch++ {
		if len(bufs[ch]) < frames {
			return false
		}
	}
	return true
}

func (i *Instance) recordFailure(err error) {
	code := statusUnknown
	if st, ok := err.(unit.Status); ok {
		code = int32(st)
	}
	i.lastStatus.Store(code)
	i.failures.Add(1)
}

// RenderFailures returns the number of failed blocks and the cause of the last
// one: ErrNotInitialized, ErrInvalidBlock, the unit's Status, or Status(-1) for
// other errors.
func (i *Instance) RenderFailures() (uint64, error) {
	n := i.failures.Load()
	if n == 0 {
		return 0, nil
	}
	code := i.lastStatus.Load()
	switch code {
	case statusNotInitialized:
		return n, ErrNotInitialized
	case statusInvalidBlock:
		return n, ErrInvalidBlock
	}
	return n, unit.Status(code)
}

// SetBypass bypasses or resumes the unit. Bypassing resets the unit's state;
// resuming does not.
func (i *Instance) SetBypass(bypass bool) error {
	if err := i.w.bypassEffect(bypass); err != nil {
		i.log.Warn("bypass %t failed: %v", bypass, err)
		return fmt.Errorf("instance: bypass %t: %w", bypass, err)
	}
	i.bypassed = bypass
	return nil
}

// LatencyFrames converts the unit's latency to frames at sampleRate. It is 0
// unless latency reporting is enabled.
func (i *Instance) LatencyFrames(sampleRate float64) int64 {
	if !i.cfg.useLatency {
		return 0
	}
	s, err := i.w.latencySeconds()
	if err != nil {
		return 0
	}
	return int64(s * sampleRate)
}

// StoreSettings pushes snap into the unit.
func (i *Instance) StoreSettings(snap *settings.Snapshot) error {
	return settings.Store(i.w.unit, snap)
}

// FetchSettings reads the unit's state into snap and marks this instance as its source.
func (i *Instance) FetchSettings(snap *settings.Snapshot) error {
	return settings.Fetch(i.w.unit, snap, i.id)
}

// Close releases the buffer lists and disposes the native handle.
func (i *Instance) Close() error {
	_ = i.Finalize()
	if i.unitInitialized {
		if err := i.w.unit.Uninitialize(); err != nil {
			i.log.Warn("uninitialize failed: %v", err)
		}
		i.unitInitialized = false
	}
	if err := i.w.unit.Dispose(); err != nil {
		return fmt.Errorf("instance: dispose: %w", err)
	}
	return nil
}
