// Package unittest provides an instrumented in-memory unit for testing hosts.
//
// A Unit counts every call, can be told to fail any operation, and renders by
// passing its input through (or through a custom Process function).
package unittest

import (
	"sync"

	"github.com/justyntemme/unithost/pkg/unit"
)

// Parameter ids of the default schema.
const (
	ParamGain  unit.ParameterID = 1
	ParamMix   unit.ParameterID = 2
	ParamMeter unit.ParameterID = 3
)

// DefaultSchema is the schema a new Unit starts with.
func DefaultSchema() []unit.ParameterInfo {
	rw := unit.ParamReadable | unit.ParamWritable
	return []unit.ParameterInfo{
		{ID: ParamGain, Name: "Gain", Min: 0, Max: 2, Default: 1, Flags: rw},
		{ID: ParamMix, Name: "Mix", Min: 0, Max: 1, Default: 1, Flags: rw},
		{ID: ParamMeter, Name: "Meter", Min: 0, Max: 1, Flags: unit.ParamReadable},
	}
}

// Unit is a fake unit. Exported fields may be changed before the host uses it.
type Unit struct {
	Ins, Outs uint32
	// MaxFrames is reported as MaximumFramesPerSlice; zero makes the query fail.
	MaxFrames uint32
	// LatencySeconds is reported as Latency.
	LatencySeconds float64
	// InsAfterRate and OutsAfterRate, when non-zero, replace the channel counts
	// as a side effect of setting the sample rate.
	InsAfterRate, OutsAfterRate uint32
	Schema                      []unit.ParameterInfo
	// Process renders one block; nil passes input through.
	Process func(in, out [][]float32)

	mu          sync.Mutex
	values      map[unit.ParameterID]float32
	failures    map[string]error
	calls       map[string]int
	sampleRate  float64
	bypass      uint32
	initialized bool
	disposed    bool
	provider    unit.InputProvider
	listener    unit.ParameterListener
	inputs      *unit.BufferList
	inViews     [][]float32
	outViews    [][]float32
	lastTime    unit.TimeStamp
	lastFrames  uint32
}

// NewUnit returns a stereo unit with the default schema at default values.
func NewUnit() *Unit {
	u := &Unit{
		Ins:       2,
		Outs:      2,
		MaxFrames: 1024,
		Schema:    DefaultSchema(),
		values:    make(map[unit.ParameterID]float32),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
	for _, p := range u.Schema {
		u.values[p.ID] = p.Default
	}
	return u
}

// Fail makes op return err until cleared with a nil err. op is a method name
// ("Render", "Reset", ...) or a method and property ("SetProperty:BypassEffect").
func (u *Unit) Fail(op string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err == nil {
		delete(u.failures, op)
		return
	}
	u.failures[op] = err
}

// Calls returns how often op was called. op uses the same names as Fail.
func (u *Unit) Calls(op string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[op]
}

// ResetCalls zeroes every call counter.
func (u *Unit) ResetCalls() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = make(map[string]int)
}

// Bypassed reports the BypassEffect property.
func (u *Unit) Bypassed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bypass != 0
}

// Initialized reports whether the unit is initialized.
func (u *Unit) Initialized() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.initialized
}

// Disposed reports whether Dispose was called.
func (u *Unit) Disposed() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.disposed
}

// SampleRate returns the last sample rate set.
func (u *Unit) SampleRate() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sampleRate
}

// Value returns a parameter value without counting a call.
func (u *Unit) Value(id unit.ParameterID) float32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.values[id]
}

// LastRender returns the time stamp and frame count of the last successful Render.
func (u *Unit) LastRender() (unit.TimeStamp, uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastTime, u.lastFrames
}

// enter counts op (and op:detail) and returns an injected failure.
func (u *Unit) enter(op, detail string) error {
	u.calls[op]++
	key := op
	if detail != "" {
		key = op + ":" + detail
		u.calls[key]++
		if err, ok := u.failures[key]; ok {
			return err
		}
	}
	if err, ok := u.failures[op]; ok {
		return err
	}
	if u.disposed {
		return unit.ErrDisposed
	}
	return nil
}

func (u *Unit) GetProperty(id unit.PropertyID, scope unit.Scope, element uint32, dst any) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetProperty", id.String()); err != nil {
		return err
	}

	switch id {
	case unit.PropMaximumFramesPerSlice:
		if u.MaxFrames == 0 {
			return unit.ErrInvalidProperty
		}
		return putUint32(dst, u.MaxFrames)
	case unit.PropLatency:
		return putFloat64(dst, u.LatencySeconds)
	case unit.PropTailTime:
		return putFloat64(dst, 0)
	case unit.PropBypassEffect:
		return putUint32(dst, u.bypass)
	case unit.PropSampleRate:
		return putFloat64(dst, u.sampleRate)
	case unit.PropChannelCount:
		switch scope {
		case unit.ScopeInput:
			return putUint32(dst, u.Ins)
		case unit.ScopeOutput:
			return putUint32(dst, u.Outs)
		}
		return unit.ErrInvalidScope
	}
	return unit.ErrInvalidProperty
}

func (u *Unit) SetProperty(id unit.PropertyID, scope unit.Scope, element uint32, value any) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("SetProperty", id.String()); err != nil {
		return err
	}

	switch id {
	case unit.PropMaximumFramesPerSlice:
		if u.initialized {
			return unit.ErrInitialized
		}
		v, err := getUint32(value)
		if err != nil {
			return err
		}
		u.MaxFrames = v
		return nil
	case unit.PropBypassEffect:
		v, err := getUint32(value)
		if err != nil {
			return err
		}
		u.bypass = v
		return nil
	case unit.PropSampleRate:
		if u.initialized {
			return unit.ErrInitialized
		}
		v, err := getFloat64(value)
		if err != nil {
			return err
		}
		u.sampleRate = v
		if u.InsAfterRate != 0 {
			u.Ins = u.InsAfterRate
		}
		if u.OutsAfterRate != 0 {
			u.Outs = u.OutsAfterRate
		}
		return nil
	case unit.PropChannelCount:
		if u.initialized {
			return unit.ErrInitialized
		}
		v, err := getUint32(value)
		if err != nil {
			return err
		}
		want := u.Ins
		if scope == unit.ScopeOutput {
			want = u.Outs
		}
		if v != want {
			return unit.ErrFormatNotSupported
		}
		return nil
	case unit.PropLatency, unit.PropTailTime:
		return unit.ErrPropertyNotWritable
	}
	return unit.ErrInvalidProperty
}

func (u *Unit) SetInputProvider(scope unit.Scope, element uint32, p unit.InputProvider) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("SetInputProvider", scope.String()); err != nil {
		return err
	}
	if scope != unit.ScopeInput {
		return unit.ErrInvalidScope
	}
	u.provider = p
	return nil
}

func (u *Unit) Parameters() []unit.ParameterInfo {
	return u.Schema
}

func (u *Unit) GetParameter(id unit.ParameterID, scope unit.Scope, element uint32) (float32, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetParameter", ""); err != nil {
		return 0, err
	}
	v, ok := u.values[id]
	if !ok {
		return 0, unit.ErrInvalidParameter
	}
	return v, nil
}

func (u *Unit) SetParameter(id unit.ParameterID, scope unit.Scope, element uint32, value float32) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("SetParameter", ""); err != nil {
		return err
	}
	if _, ok := u.values[id]; !ok {
		return unit.ErrInvalidParameter
	}
	u.values[id] = value
	return nil
}

// SetParameterListener registers the listener Edit reports to.
func (u *Unit) SetParameterListener(l unit.ParameterListener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls["SetParameterListener"]++
	u.listener = l
}

// Edit changes a parameter the way the unit's own interface would and reports
// it to the registered listener.
func (u *Unit) Edit(id unit.ParameterID, value float32) error {
	u.mu.Lock()
	if _, ok := u.values[id]; !ok {
		u.mu.Unlock()
		return unit.ErrInvalidParameter
	}
	u.values[id] = value
	l := u.listener
	u.mu.Unlock()
	if l != nil {
		l(id, value)
	}
	return nil
}

func (u *Unit) Initialize() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("Initialize", ""); err != nil {
		return err
	}
	if u.initialized {
		return unit.ErrInitialized
	}
	u.inputs = unit.NewBufferList(int(u.Ins))
	u.inViews = make([][]float32, u.Ins)
	u.outViews = make([][]float32, u.Outs)
	u.initialized = true
	return nil
}

func (u *Unit) Uninitialize() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("Uninitialize", ""); err != nil {
		return err
	}
	u.initialized = false
	return nil
}

func (u *Unit) Reset(scope unit.Scope, element uint32) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.enter("Reset", "")
}

func (u *Unit) Render(flags *unit.RenderFlags, ts *unit.TimeStamp, bus uint32, frames uint32, out *unit.BufferList) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("Render", ""); err != nil {
		return err
	}
	if !u.initialized {
		return unit.ErrUninitialized
	}
	if frames > u.MaxFrames {
		return unit.ErrTooManyFramesToProcess
	}
	if u.provider == nil {
		return unit.ErrNoConnection
	}

	u.inputs.Detach()
	if err := u.provider.ProvideInput(flags, ts, 0, frames, u.inputs); err != nil {
		return err
	}
	for i := range u.inViews {
		u.inViews[i] = u.inputs.Buffers[i].Data
	}
	for i := range u.outViews {
		u.outViews[i] = nil
		if i < out.Len() {
			u.outViews[i] = out.Buffers[i].Data
		}
	}

	if u.Process != nil && u.bypass == 0 {
		u.Process(u.inViews, u.outViews)
	} else {
		passThrough(u.inViews, u.outViews, int(frames))
	}

	u.lastTime = *ts
	u.lastFrames = frames
	return nil
}

func (u *Unit) Dispose() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls["Dispose"]++
	if err, ok := u.failures["Dispose"]; ok {
		return err
	}
	u.disposed = true
	u.initialized = false
	return nil
}

func passThrough(in, out [][]float32, frames int) {
	for ch, dst := range out {
		if dst == nil {
			continue
		}
		dst = dst[:frames]
		if ch < len(in) && in[ch] != nil {
			copy(dst, in[ch][:frames])
			continue
		}
		for i := range dst {
			dst[i] = 0
		}
	}
}

func putUint32(dst any, v uint32) error {
	p, ok := dst.(*uint32)
	if !ok {
		return unit.ErrInvalidPropertyValue
	}
	*p = v
	return nil
}

func putFloat64(dst any, v float64) error {
	p, ok := dst.(*float64)
	if !ok {
		return unit.ErrInvalidPropertyValue
	}
	*p = v
	return nil
}

func getUint32(value any) (uint32, error) {
	p, ok := value.(*uint32)
	if !ok {
		return 0, unit.ErrInvalidPropertyValue
	}
	return *p, nil
}

func getFloat64(value any) (float64, error) {
	p, ok := value.(*float64)
	if !ok {
		return 0, unit.ErrInvalidPropertyValue
	}
	return *p, nil
}
