// Package units provides pure-Go units implementing the native unit contract,
// used to host and test groups without a vendor SDK.
package units

import (
	"sync"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
	"github.com/justyntemme/unithost/pkg/unit"
)

// MaxChannels is the widest channel count a unit accepts.
const MaxChannels = 8

// Kernel is the DSP of one unit handle. Prepare runs during Initialize; Process
// and Reset run on the render thread and must not allocate.
type Kernel interface {
	Prepare(sampleRate float64, channels, maxFrames int) error
	Process(ctx *process.Context)
	Reset()
}

// LatencyReporter is implemented by kernels that delay their output.
type LatencyReporter interface {
	LatencySeconds(sampleRate float64) float64
}

// TailReporter is implemented by kernels that ring after input stops.
type TailReporter interface {
	TailSeconds() float64
}

// Editor is implemented by every unit handle of this package. Edit changes a
// parameter from the unit's side, as its own interface would, and reports the
// change to the registered unit.ParameterListener.
type Editor interface {
	Edit(id unit.ParameterID, value float32) error
}

var (
	_ unit.ParameterNotifier = (*base)(nil)
	_ Editor                 = (*base)(nil)
)

// base implements unit.Unit around a Kernel. Control methods are serialized by
// mu; Render takes no lock and reads only state fixed while initialized.
type base struct {
	desc   unit.Description
	params *param.Registry
	infos  []unit.ParameterInfo
	kernel Kernel

	mu         sync.Mutex
	ins, outs  uint32
	maxFrames  uint32
	sampleRate float64
	disposed   bool

	initialized atomic.Bool
	bypass      atomic.Bool

	provider unit.InputProvider
	listener atomic.Pointer[unit.ParameterListener]
	input    *unit.BufferList
	inViews  [][]float32
	outViews [][]float32
	silence  []float32
	outBufs  [][]float32
	ctx      *process.Context
}

func newBase(desc unit.Description, params *param.Registry, kernel Kernel, cfg config) *base {
	return &base{
		desc:       desc,
		params:     params,
		infos:      params.Infos(),
		kernel:     kernel,
		ins:        cfg.channels,
		outs:       cfg.channels,
		maxFrames:  cfg.maxFrames,
		sampleRate: dsp.DefaultSampleRate,
	}
}

func (b *base) GetProperty(id unit.PropertyID, scope unit.Scope, element uint32, dst any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}

	switch id {
	case unit.PropMaximumFramesPerSlice:
		return store(dst, b.maxFrames)
	case unit.PropLatency:
		var s float64
		if r, ok := b.kernel.(LatencyReporter); ok {
			s = r.LatencySeconds(b.sampleRate)
		}
		return store(dst, s)
	case unit.PropTailTime:
		var s float64
		if r, ok := b.kernel.(TailReporter); ok {
			s = r.TailSeconds()
		}
		return store(dst, s)
	case unit.PropBypassEffect:
		var v uint32
		if b.bypass.Load() {
			v = 1
		}
		return store(dst, v)
	case unit.PropSampleRate:
		return store(dst, b.sampleRate)
	case unit.PropChannelCount:
		switch scope {
		case unit.ScopeInput:
			return store(dst, b.ins)
		case unit.ScopeOutput:
			return store(dst, b.outs)
		}
		return unit.ErrInvalidScope
	}
	return unit.ErrInvalidProperty
}

func (b *base) SetProperty(id unit.PropertyID, scope unit.Scope, element uint32, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}

	switch id {
	case unit.PropBypassEffect:
		v, err := load[uint32](value)
		if err != nil {
			return err
		}
		b.bypass.Store(v != 0)
		return nil
	case unit.PropLatency, unit.PropTailTime:
		return unit.ErrPropertyNotWritable
	case unit.PropMaximumFramesPerSlice, unit.PropSampleRate, unit.PropChannelCount:
	default:
		return unit.ErrInvalidProperty
	}

	// Format properties only change while uninitialized.
	if b.initialized.Load() {
		return unit.ErrInitialized
	}
	switch id {
	case unit.PropMaximumFramesPerSlice:
		v, err := load[uint32](value)
		if err != nil {
			return err
		}
		if v == 0 {
			return unit.ErrInvalidPropertyValue
		}
		b.maxFrames = v
	case unit.PropSampleRate:
		v, err := load[float64](value)
		if err != nil {
			return err
		}
		if v <= 0 {
			return unit.ErrInvalidPropertyValue
		}
		b.sampleRate = v
	case unit.PropChannelCount:
		v, err := load[uint32](value)
		if err != nil {
			return err
		}
		if v == 0 || v > MaxChannels {
			return unit.ErrFormatNotSupported
		}
		switch scope {
		case unit.ScopeInput:
			b.ins = v
		case unit.ScopeOutput:
			b.outs = v
		default:
			return unit.ErrInvalidScope
		}
	}
	return nil
}

func (b *base) SetInputProvider(scope unit.Scope, element uint32, p unit.InputProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}
	if scope != unit.ScopeInput {
		return unit.ErrInvalidScope
	}
	if element != 0 {
		return unit.ErrInvalidElement
	}
	b.provider = p
	return nil
}

func (b *base) Parameters() []unit.ParameterInfo {
	return b.infos
}

func (b *base) GetParameter(id unit.ParameterID, scope unit.Scope, element uint32) (float32, error) {
	if scope != unit.ScopeGlobal {
		return 0, unit.ErrInvalidScope
	}
	p := b.params.Get(id)
	if p == nil {
		return 0, unit.ErrInvalidParameter
	}
	return p.Value(), nil
}

func (b *base) SetParameter(id unit.ParameterID, scope unit.Scope, element uint32, value float32) error {
	if scope != unit.ScopeGlobal {
		return unit.ErrInvalidScope
	}
	p := b.params.Get(id)
	if p == nil {
		return unit.ErrInvalidParameter
	}
	p.SetValue(value)
	return nil
}

func (b *base) SetParameterListener(l unit.ParameterListener) {
	if l == nil {
		b.listener.Store(nil)
		return
	}
	b.listener.Store(&l)
}

// Edit sets a parameter from the unit's side and reports it to the listener.
func (b *base) Edit(id unit.ParameterID, value float32) error {
	p := b.params.Get(id)
	if p == nil {
		return unit.ErrInvalidParameter
	}
	p.SetValue(value)
	if l := b.listener.Load(); l != nil {
		(*l)(id, p.Value())
	}
	return nil
}

func (b *base) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}
	if b.initialized.Load() {
		return unit.ErrInitialized
	}
	if b.ins != b.outs {
		return unit.ErrFormatNotSupported
	}

	frames := int(b.maxFrames)
	if err := b.kernel.Prepare(b.sampleRate, int(b.outs), frames); err != nil {
		return unit.ErrFailedInitialization
	}
	b.input = unit.NewBufferList(int(b.ins))
	b.inViews = make([][]float32, b.ins)
	b.outViews = make([][]float32, b.outs)
	b.outBufs = make([][]float32, b.outs)
	for i := range b.outBufs {
		b.outBufs[i] = make([]float32, frames)
	}
	b.silence = make([]float32, frames)
	b.ctx = process.NewContext(frames, b.sampleRate)
	b.kernel.Reset()
	b.initialized.Store(true)
	return nil
}

func (b *base) Uninitialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}
	b.initialized.Store(false)
	return nil
}

func (b *base) Reset(scope unit.Scope, element uint32) error {
	if scope != unit.ScopeGlobal {
		return unit.ErrInvalidScope
	}
	if b.initialized.Load() {
		b.kernel.Reset()
	}
	return nil
}

// Render pulls input through the provider and runs the kernel, or copies input
// to output when bypassed. An output slot with nil Data is pointed at an
// internal buffer.
func (b *base) Render(flags *unit.RenderFlags, ts *unit.TimeStamp, bus uint32, frames uint32, out *unit.BufferList) error {
	if !b.initialized.Load() {
		return unit.ErrUninitialized
	}
	if bus != 0 {
		return unit.ErrInvalidElement
	}
	if frames > b.maxFrames {
		return unit.ErrTooManyFramesToProcess
	}
	if b.provider == nil {
		return unit.ErrNoConnection
	}
	if out.Len() < len(b.outViews) {
		return unit.ErrFormatNotSupported
	}

	n := int(frames)
	b.input.Detach()
	if err := b.provider.ProvideInput(flags, ts, 0, frames, b.input); err != nil {
		return err
	}
	for i := range b.inViews {
		if d := b.input.Buffers[i].Data; len(d) >= n {
			b.inViews[i] = d[:n]
		} else {
			b.inViews[i] = b.silence[:n]
		}
	}
	for i := range b.outViews {
		d := out.Buffers[i].Data
		if d == nil {
			d = b.outBufs[i]
			out.Buffers[i].Data = d[:n]
		}
		if len(d) < n {
			return unit.ErrInvalidPropertyValue
		}
		b.outViews[i] = d[:n]
	}
	b.input.Detach()

	b.ctx.Bind(b.inViews, b.outViews, n)
	if b.bypass.Load() {
		b.ctx.PassThrough()
	} else {
		b.kernel.Process(b.ctx)
	}
	return nil
}

func (b *base) Dispose() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return unit.ErrDisposed
	}
	b.disposed = true
	b.initialized.Store(false)
	b.provider = nil
	return nil
}

func store[T unit.Fixed](dst any, v T) error {
	p, ok := dst.(*T)
	if !ok {
		return unit.ErrInvalidPropertyValue
	}
	*p = v
	return nil
}

func load[T unit.Fixed](value any) (T, error) {
	p, ok := value.(*T)
	if !ok {
		var zero T
		return zero, unit.ErrInvalidPropertyValue
	}
	return *p, nil
}
