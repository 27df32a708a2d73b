package units

import (
	"errors"
	"math"
	"testing"

	"github.com/justyntemme/unithost/pkg/unit"
)

// harness feeds in to a unit and collects its output.
type harness struct {
	t   *testing.T
	u   unit.Unit
	in  [][]float32
	out *unit.BufferList
	ts  unit.TimeStamp
}

func newHarness(t *testing.T, c *Component, sampleRate float64, channels int) *harness {
	t.Helper()
	u, err := c.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := unit.SetFixed(u, unit.PropSampleRate, unit.ScopeGlobal, 0, sampleRate); err != nil {
		t.Fatalf("set sample rate: %v", err)
	}
	for _, scope := range []unit.Scope{unit.ScopeInput, unit.ScopeOutput} {
		if err := unit.SetFixed(u, unit.PropChannelCount, scope, 0, uint32(channels)); err != nil {
			t.Fatalf("set channels: %v", err)
		}
	}
	h := &harness{t: t, u: u, out: unit.NewBufferList(channels)}
	err = u.SetInputProvider(unit.ScopeInput, 0, unit.InputProviderFunc(
		func(_ *unit.RenderFlags, _ *unit.TimeStamp, _ uint32, frames uint32, data *unit.BufferList) error {
			for i := 0; i < data.Len() && i < len(h.in); i++ {
				data.Point(i, h.in[i][:frames])
			}
			return nil
		}))
	if err != nil {
		t.Fatalf("SetInputProvider: %v", err)
	}
	return h
}

func (h *harness) init() {
	h.t.Helper()
	if err := h.u.Initialize(); err != nil {
		h.t.Fatalf("Initialize: %v", err)
	}
}

// render runs one block and returns channel outputs.
func (h *harness) render(in [][]float32) [][]float32 {
	h.t.Helper()
	h.in = in
	frames := len(in[0])
	res := make([][]float32, len(in))
	for i := range res {
		res[i] = make([]float32, frames)
		h.out.Point(i, res[i])
	}
	var flags unit.RenderFlags
	if err := h.u.Render(&flags, &h.ts, 0, uint32(frames), h.out); err != nil {
		h.t.Fatalf("Render: %v", err)
	}
	h.ts.SampleTime += float64(frames)
	return res
}

func constant(frames int, v float32) []float32 {
	buf := make([]float32, frames)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func impulse(frames int) []float32 {
	buf := make([]float32, frames)
	buf[0] = 1
	return buf
}

func near(a, b float32, tol float64) bool {
	return math.Abs(float64(a-b)) <= tol
}

func TestBaseLifecycle(t *testing.T) {
	t.Run("render before initialize", func(t *testing.T) {
		h := newHarness(t, Passthrough(), 48000, 2)
		var flags unit.RenderFlags
		err := h.u.Render(&flags, &h.ts, 0, 64, h.out)
		if !errors.Is(err, unit.ErrUninitialized) {
			t.Errorf("err = %v, want ErrUninitialized", err)
		}
	})

	t.Run("format locked while initialized", func(t *testing.T) {
		h := newHarness(t, Passthrough(), 48000, 2)
		h.init()
		err := unit.SetFixed(h.u, unit.PropSampleRate, unit.ScopeGlobal, 0, 44100.0)
		if !errors.Is(err, unit.ErrInitialized) {
			t.Errorf("err = %v, want ErrInitialized", err)
		}
		if err := h.u.Uninitialize(); err != nil {
			t.Fatal(err)
		}
		if err := unit.SetFixed(h.u, unit.PropSampleRate, unit.ScopeGlobal, 0, 44100.0); err != nil {
			t.Errorf("after Uninitialize: %v", err)
		}
	})

	t.Run("too many frames", func(t *testing.T) {
		h := newHarness(t, Passthrough(WithMaxFrames(64)), 48000, 1)
		h.init()
		h.in = [][]float32{make([]float32, 65)}
		var flags unit.RenderFlags
		err := h.u.Render(&flags, &h.ts, 0, 65, h.out)
		if !errors.Is(err, unit.ErrTooManyFramesToProcess) {
			t.Errorf("err = %v, want ErrTooManyFramesToProcess", err)
		}
	})

	t.Run("no provider", func(t *testing.T) {
		u, _ := Passthrough().New()
		if err := u.Initialize(); err != nil {
			t.Fatal(err)
		}
		var flags unit.RenderFlags
		var ts unit.TimeStamp
		err := u.Render(&flags, &ts, 0, 16, unit.NewBufferList(2))
		if !errors.Is(err, unit.ErrNoConnection) {
			t.Errorf("err = %v, want ErrNoConnection", err)
		}
	})

	t.Run("mismatched channels", func(t *testing.T) {
		u, _ := Gain().New()
		if err := unit.SetFixed(u, unit.PropChannelCount, unit.ScopeOutput, 0, uint32(1)); err != nil {
			t.Fatal(err)
		}
		if err := u.Initialize(); !errors.Is(err, unit.ErrFormatNotSupported) {
			t.Errorf("err = %v, want ErrFormatNotSupported", err)
		}
	})

	t.Run("too many channels", func(t *testing.T) {
		u, _ := Gain().New()
		err := unit.SetFixed(u, unit.PropChannelCount, unit.ScopeInput, 0, uint32(MaxChannels+1))
		if !errors.Is(err, unit.ErrFormatNotSupported) {
			t.Errorf("err = %v, want ErrFormatNotSupported", err)
		}
	})

	t.Run("disposed", func(t *testing.T) {
		u, _ := Gain().New()
		if err := u.Dispose(); err != nil {
			t.Fatal(err)
		}
		_, err := unit.GetFixed[uint32](u, unit.PropMaximumFramesPerSlice, unit.ScopeGlobal, 0)
		if !errors.Is(err, unit.ErrDisposed) {
			t.Errorf("err = %v, want ErrDisposed", err)
		}
	})
}

func TestBaseProperties(t *testing.T) {
	u, _ := SpectralGate(WithMaxFrames(256)).New()

	frames, err := unit.GetFixed[uint32](u, unit.PropMaximumFramesPerSlice, unit.ScopeGlobal, 0)
	if err != nil || frames != 256 {
		t.Errorf("MaximumFramesPerSlice = %d, %v", frames, err)
	}

	if err := unit.SetFixed(u, unit.PropSampleRate, unit.ScopeGlobal, 0, 48000.0); err != nil {
		t.Fatal(err)
	}
	lat, err := unit.GetFixed[float64](u, unit.PropLatency, unit.ScopeGlobal, 0)
	if err != nil || lat != GateFrameSize/48000.0 {
		t.Errorf("Latency = %v, %v", lat, err)
	}

	if err := unit.SetFixed(u, unit.PropLatency, unit.ScopeGlobal, 0, 1.0); !errors.Is(err, unit.ErrPropertyNotWritable) {
		t.Errorf("set Latency err = %v", err)
	}
	if _, err := unit.GetFixed[uint32](u, unit.PropertyID(9999), unit.ScopeGlobal, 0); !errors.Is(err, unit.ErrInvalidProperty) {
		t.Errorf("unknown property err = %v", err)
	}

	if err := unit.SetFixed(u, unit.PropBypassEffect, unit.ScopeGlobal, 0, uint32(1)); err != nil {
		t.Fatal(err)
	}
	if v, _ := unit.GetFixed[uint32](u, unit.PropBypassEffect, unit.ScopeGlobal, 0); v != 1 {
		t.Errorf("BypassEffect = %d", v)
	}
}

func TestParameters(t *testing.T) {
	c := Gain()
	a, _ := c.New()
	b, _ := c.New()

	if err := a.SetParameter(GainLevel, unit.ScopeGlobal, 0, -6); err != nil {
		t.Fatal(err)
	}
	if v, _ := b.GetParameter(GainLevel, unit.ScopeGlobal, 0); v != 0 {
		t.Errorf("second handle level = %v, want independent default 0", v)
	}

	// Values clamp to the range.
	if err := a.SetParameter(GainLevel, unit.ScopeGlobal, 0, 100); err != nil {
		t.Fatal(err)
	}
	if v, _ := a.GetParameter(GainLevel, unit.ScopeGlobal, 0); v != 12 {
		t.Errorf("clamped level = %v, want 12", v)
	}

	if _, err := a.GetParameter(42, unit.ScopeGlobal, 0); !errors.Is(err, unit.ErrInvalidParameter) {
		t.Errorf("unknown parameter err = %v", err)
	}

	infos := a.Parameters()
	if len(infos) != 2 || infos[1].Writable() {
		t.Errorf("schema = %+v", infos)
	}
}

func TestEditNotifiesListener(t *testing.T) {
	u, err := Gain().New()
	if err != nil {
		t.Fatal(err)
	}
	type change struct {
		id unit.ParameterID
		v  float32
	}
	var got []change
	u.(unit.ParameterNotifier).SetParameterListener(func(id unit.ParameterID, v float32) {
		got = append(got, change{id, v})
	})
	ed := u.(Editor)

	if err := ed.Edit(GainLevel, 100); err != nil {
		t.Fatal(err)
	}
	if err := u.SetParameter(GainLevel, unit.ScopeGlobal, 0, -3); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (change{GainLevel, 12}) {
		t.Errorf("listener saw %v, want one clamped edit", got)
	}
	if err := ed.Edit(42, 0); !errors.Is(err, unit.ErrInvalidParameter) {
		t.Errorf("unknown parameter err = %v", err)
	}

	u.(unit.ParameterNotifier).SetParameterListener(nil)
	if err := ed.Edit(GainLevel, 0); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("cleared listener still called: %v", got)
	}
}

func TestGain(t *testing.T) {
	h := newHarness(t, Gain(), 48000, 2)
	if err := h.u.SetParameter(GainLevel, unit.ScopeGlobal, 0, -20); err != nil {
		t.Fatal(err)
	}
	h.init()

	out := h.render([][]float32{constant(128, 1), constant(128, -0.5)})
	if !near(out[0][127], 0.1, 1e-6) || !near(out[1][0], -0.05, 1e-6) {
		t.Errorf("out = %v, %v", out[0][127], out[1][0])
	}
	if peak, _ := h.u.GetParameter(GainPeak, unit.ScopeGlobal, 0); !near(peak, 0.1, 1e-6) {
		t.Errorf("peak = %v", peak)
	}

	t.Run("bypass copies input", func(t *testing.T) {
		h.t = t
		if err := unit.SetFixed(h.u, unit.PropBypassEffect, unit.ScopeGlobal, 0, uint32(1)); err != nil {
			t.Fatal(err)
		}
		out := h.render([][]float32{constant(16, 1), constant(16, 1)})
		if out[0][5] != 1 {
			t.Errorf("bypassed out = %v", out[0][5])
		}
	})

	t.Run("level change ramps", func(t *testing.T) {
		h.t = t
		if err := unit.SetFixed(h.u, unit.PropBypassEffect, unit.ScopeGlobal, 0, uint32(0)); err != nil {
			t.Fatal(err)
		}
		if err := h.u.SetParameter(GainLevel, unit.ScopeGlobal, 0, 0); err != nil {
			t.Fatal(err)
		}
		out := h.render([][]float32{constant(64, 1), constant(64, 1)})
		if out[0][0] <= 0.1 || out[0][63] >= 1 {
			t.Errorf("ramp = %v .. %v, want between 0.1 and 1", out[0][0], out[0][63])
		}
	})
}

func TestLowpassPassesDC(t *testing.T) {
	h := newHarness(t, Lowpass(), 48000, 1)
	h.init()
	var out [][]float32
	for i := 0; i < 8; i++ {
		out = h.render([][]float32{constant(512, 1)})
	}
	if !near(out[0][511], 1, 1e-3) {
		t.Errorf("DC out = %v", out[0][511])
	}

	if err := h.u.SetParameter(LowpassCutoff, unit.ScopeGlobal, 0, 20); err != nil {
		t.Fatal(err)
	}
	if err := h.u.Reset(unit.ScopeGlobal, 0); err != nil {
		t.Fatal(err)
	}
	alt := make([]float32, 512)
	for i := range alt {
		alt[i] = float32(1 - 2*(i%2))
	}
	out = h.render([][]float32{alt})
	if math.Abs(float64(out[0][511])) > 1e-3 {
		t.Errorf("Nyquist leaks %v", out[0][511])
	}
}

func TestDelayEcho(t *testing.T) {
	h := newHarness(t, Delay(), 1000, 1)
	for id, v := range map[unit.ParameterID]float32{DelayTime: 10, DelayFeedback: 0, DelayMix: 1} {
		if err := h.u.SetParameter(id, unit.ScopeGlobal, 0, v); err != nil {
			t.Fatal(err)
		}
	}
	h.init()

	out := h.render([][]float32{impulse(32)})
	for i, v := range out[0] {
		want := float32(0)
		if i == 10 {
			want = 1
		}
		if !near(v, want, 1e-6) {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}

	tail, err := unit.GetFixed[float64](h.u, unit.PropTailTime, unit.ScopeGlobal, 0)
	if err != nil || tail != 0.01 {
		t.Errorf("TailTime = %v, %v", tail, err)
	}
}

func TestSpectralGateLatency(t *testing.T) {
	h := newHarness(t, SpectralGate(WithMaxFrames(512)), 48000, 1)
	if err := h.u.SetParameter(GateThreshold, unit.ScopeGlobal, 0, -120); err != nil {
		t.Fatal(err)
	}
	h.init()

	var got []float32
	got = append(got, h.render([][]float32{impulse(512)})[0]...)
	for i := 0; i < 3; i++ {
		got = append(got, h.render([][]float32{make([]float32, 512)})[0]...)
	}

	for i, v := range got {
		want := float32(0)
		if i == GateFrameSize {
			want = 1
		}
		if !near(v, want, 1e-5) {
			t.Fatalf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestSpectralGateRemovesQuietInput(t *testing.T) {
	h := newHarness(t, SpectralGate(WithMaxFrames(512)), 48000, 1)
	if err := h.u.SetParameter(GateThreshold, unit.ScopeGlobal, 0, -20); err != nil {
		t.Fatal(err)
	}
	h.init()

	var last [][]float32
	for i := 0; i < 6; i++ {
		last = h.render([][]float32{constant(512, 0.001)})
	}
	for _, v := range last[0] {
		if v != 0 {
			t.Fatalf("quiet input leaked: %v", v)
		}
	}
	if g, _ := h.u.GetParameter(GateGated, unit.ScopeGlobal, 0); g != 1 {
		t.Errorf("gated fraction = %v, want 1", g)
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	want := []string{"delay", "gain", "gate", "lowpass", "passthrough"}
	names := r.Names()
	if len(names) != len(want) {
		t.Fatalf("Names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names = %v, want %v", names, want)
		}
	}

	c, err := r.Open("gain", WithChannels(1))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Description().Subtype != unit.MustFourCC("gain") {
		t.Errorf("Description = %v", c.Description())
	}

	if _, err := r.Open("reverb"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("Open unknown err = %v", err)
	}
	if err := r.Register("gain", Gain); err == nil {
		t.Error("duplicate registration accepted")
	}
	if err := r.Register("", Gain); err == nil {
		t.Error("empty name accepted")
	}
}

func TestNilOutputBuffersUseInternalStorage(t *testing.T) {
	h := newHarness(t, Passthrough(), 48000, 1)
	h.init()
	h.in = [][]float32{constant(8, 0.5)}
	out := unit.NewBufferList(1)
	var flags unit.RenderFlags
	if err := h.u.Render(&flags, &h.ts, 0, 8, out); err != nil {
		t.Fatal(err)
	}
	if len(out.Buffers[0].Data) != 8 || out.Buffers[0].Data[7] != 0.5 {
		t.Errorf("out = %v", out.Buffers[0].Data)
	}
}
