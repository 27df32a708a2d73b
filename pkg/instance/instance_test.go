package instance

import (
	"errors"
	"testing"

	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/framework/debug"
	"github.com/justyntemme/unithost/pkg/settings"
	"github.com/justyntemme/unithost/pkg/unit"
	"github.com/justyntemme/unithost/pkg/unit/unittest"
)

const testRate = 48000.0

func quiet() Option { return WithLogger(debug.Discard()) }

func newStubInstance(t *testing.T, configure func(int, *unittest.Unit), opts ...Option) (*Instance, *unittest.Unit) {
	t.Helper()
	comp := unittest.NewComponent(configure)
	inst, err := NewInstance(comp, 2, 2, append([]Option{quiet()}, opts...)...)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	return inst, comp.Unit(0)
}

func block(channels, frames int, v float32) [][]float32 {
	b := make([][]float32, channels)
	for ch := range b {
		b[ch] = make([]float32, frames)
		for i := range b[ch] {
			b[ch][i] = v
		}
	}
	return b
}

func TestBlockSize(t *testing.T) {
	tests := []struct {
		name      string
		maxFrames uint32
		fail      bool
		want      int
	}{
		{"reported", 256, false, 256},
		{"zero falls back", 0, false, defaultBlockSize},
		{"query fails", 256, true, defaultBlockSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, _ := newStubInstance(t, func(_ int, u *unittest.Unit) {
				u.MaxFrames = tt.maxFrames
				if tt.fail {
					u.Fail("GetProperty:MaximumFramesPerSlice", unit.ErrInvalidProperty)
				}
			})
			if got := inst.BlockSize(); got != tt.want {
				t.Errorf("BlockSize = %d, want %d", got, tt.want)
			}
			if got := inst.SetBlockSize(4096); got != tt.want {
				t.Errorf("SetBlockSize = %d, want fixed %d", got, tt.want)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	snap := settings.FromValues(map[unit.ParameterID]float32{unittest.ParamGain: 0.5})

	if err := inst.Initialize(snap, testRate, bus.Stereo); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !u.Initialized() || u.SampleRate() != testRate {
		t.Errorf("unit initialized=%t rate=%g", u.Initialized(), u.SampleRate())
	}
	if u.Value(unittest.ParamGain) != 0.5 {
		t.Errorf("gain = %v, settings not stored", u.Value(unittest.ParamGain))
	}
	for op, want := range map[string]int{"Initialize": 1, "SetInputProvider": 1, "Reset": 1, "SetProperty:BypassEffect": 1} {
		if got := u.Calls(op); got != want {
			t.Errorf("%s called %d times, want %d", op, got, want)
		}
	}
	if u.Bypassed() || inst.Bypassed() {
		t.Error("instance left bypassed")
	}
	if inst.ChannelMap().String() != bus.Stereo.String() {
		t.Errorf("ChannelMap = %v", inst.ChannelMap())
	}

	t.Run("reinitialize", func(t *testing.T) {
		inst.RenderBlock(nil, block(2, 64, 0), block(2, 64, 0), 64)
		if err := inst.Initialize(snap, 44100, nil); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		if u.Calls("Uninitialize") != 1 {
			t.Errorf("Uninitialize called %d times, want 1", u.Calls("Uninitialize"))
		}
		if inst.SampleTime() != 0 {
			t.Errorf("SampleTime = %v after reinitialize", inst.SampleTime())
		}
	})
}

func TestInitializeStoresSettingsBeforeFormat(t *testing.T) {
	inst, u := newStubInstance(t, func(_ int, u *unittest.Unit) {
		u.Fail("SetProperty:SampleRate", unit.ErrFormatNotSupported)
	})
	err := inst.Initialize(settings.Defaults(unittest.DefaultSchema()), testRate, nil)
	if !errors.Is(err, unit.ErrFormatNotSupported) {
		t.Fatalf("err = %v", err)
	}
	if u.Calls("SetParameter") != 2 {
		t.Errorf("SetParameter called %d times before the rate, want 2", u.Calls("SetParameter"))
	}
}

func TestInitializeTopologyChanged(t *testing.T) {
	inst, u := newStubInstance(t, func(_ int, u *unittest.Unit) {
		u.OutsAfterRate = 6
	})
	err := inst.Initialize(nil, testRate, nil)
	if !errors.Is(err, ErrTopologyChanged) {
		t.Fatalf("err = %v, want ErrTopologyChanged", err)
	}
	if u.Initialized() {
		t.Error("unit left initialized")
	}
	if inst.AudioOutCount() != 2 {
		t.Errorf("AudioOutCount = %d, must stay 2", inst.AudioOutCount())
	}
	if u.Calls("SetInputProvider") != 0 {
		t.Error("input provider registered after topology change")
	}
	if err := inst.Finalize(); err != nil {
		t.Errorf("Finalize: %v", err)
	}
}

func TestInitializeFailures(t *testing.T) {
	tests := []string{
		"SetParameter",
		"Initialize",
		"SetInputProvider",
		"Reset",
		"SetProperty:BypassEffect",
	}
	for _, op := range tests {
		t.Run(op, func(t *testing.T) {
			inst, _ := newStubInstance(t, func(_ int, u *unittest.Unit) {
				u.Fail(op, unit.ErrFailedInitialization)
			})
			err := inst.Initialize(settings.Defaults(unittest.DefaultSchema()), testRate, nil)
			if !errors.Is(err, unit.ErrFailedInitialization) {
				t.Fatalf("err = %v", err)
			}
			if err := inst.Finalize(); err != nil {
				t.Errorf("Finalize after failure: %v", err)
			}
			if n := inst.RenderBlock(nil, block(2, 8, 0), block(2, 8, 0), 8); n != 0 {
				t.Errorf("rendered %d frames after failed initialize", n)
			}
		})
	}
}

func TestRenderBlockZeroInput(t *testing.T) {
	inst, _ := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}

	out := block(2, 512, 9)
	if n := inst.RenderBlock(nil, block(2, 512, 0), out, 512); n != 512 {
		t.Fatalf("RenderBlock = %d, want 512", n)
	}
	for ch := range out {
		for i, v := range out[ch] {
			if v != 0 {
				t.Fatalf("out[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

func TestRenderBlockPassesInput(t *testing.T) {
	inst, _ := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}
	in := [][]float32{{1, 2, 3, 4}, {-1, -2, -3, -4}}
	out := block(2, 4, 0)
	if n := inst.RenderBlock(nil, in, out, 3); n != 3 {
		t.Fatalf("RenderBlock = %d", n)
	}
	if out[0][2] != 3 || out[1][2] != -3 || out[0][3] != 0 {
		t.Errorf("out = %v", out)
	}
}

func TestRenderBlockSampleTime(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		inst.RenderBlock(nil, block(2, 100, 0), block(2, 100, 0), 100)
	}
	if inst.SampleTime() != 300 {
		t.Fatalf("SampleTime = %v, want 300", inst.SampleTime())
	}
	ts, frames := u.LastRender()
	if ts.SampleTime != 200 || frames != 100 || ts.Flags&unit.TimeStampSampleTimeValid == 0 {
		t.Errorf("last render saw %+v for %d frames", ts, frames)
	}

	u.Fail("Render", unit.ErrTooManyFramesToProcess)
	if n := inst.RenderBlock(nil, block(2, 100, 0), block(2, 100, 0), 100); n != 0 {
		t.Errorf("failed render produced %d frames", n)
	}
	if inst.SampleTime() != 300 {
		t.Errorf("SampleTime advanced on failure: %v", inst.SampleTime())
	}
	n, err := inst.RenderFailures()
	if n != 1 || !errors.Is(err, unit.ErrTooManyFramesToProcess) {
		t.Errorf("RenderFailures = %d, %v", n, err)
	}
}

func TestRenderBeforeInitialize(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	if n := inst.RenderBlock(nil, block(2, 8, 0), block(2, 8, 0), 8); n != 0 {
		t.Fatalf("RenderBlock = %d", n)
	}
	if u.Calls("Render") != 0 {
		t.Error("unit rendered without initialization")
	}
	if n, err := inst.RenderFailures(); n != 1 || !errors.Is(err, ErrNotInitialized) {
		t.Errorf("RenderFailures = %d, %v", n, err)
	}
}

func TestRenderBlockRejectsBadBlocks(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}
	over := inst.BlockSize() + 1

	tests := []struct {
		name    string
		in, out [][]float32
		frames  int
		want    error
	}{
		{"short input", block(2, 16, 0), block(2, 32, 0), 32, ErrInvalidBlock},
		{"short output", block(2, 32, 0), block(2, 16, 0), 32, ErrInvalidBlock},
		{"negative frames", block(2, 16, 0), block(2, 16, 0), -1, ErrInvalidBlock},
		{"over block size", block(2, over, 0), block(2, over, 0), over, unit.ErrTooManyFramesToProcess},
	}
	for k, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := inst.RenderBlock(nil, tt.in, tt.out, tt.frames); n != 0 {
				t.Fatalf("RenderBlock = %d, want 0", n)
			}
			n, err := inst.RenderFailures()
			if n != uint64(k+1) || !errors.Is(err, tt.want) {
				t.Errorf("RenderFailures = %d, %v, want %d, %v", n, err, k+1, tt.want)
			}
			if inst.SampleTime() != 0 {
				t.Errorf("SampleTime = %v, want 0", inst.SampleTime())
			}
		})
	}
	if u.Calls("Render") != 0 {
		t.Errorf("unit rendered %d bad blocks", u.Calls("Render"))
	}

	t.Run("missing slots render", func(t *testing.T) {
		if n := inst.RenderBlock(nil, block(1, 16, 0), block(2, 16, 0), 16); n != 16 {
			t.Errorf("RenderBlock = %d, want 16", n)
		}
	})
}

func TestInputProviderNilsExtraSlots(t *testing.T) {
	inst, _ := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}
	inst.inputs.Point(0, []float32{1})
	inst.inputs.Point(1, []float32{2})

	data := unit.NewBufferList(4)
	for i := range data.Buffers {
		data.Buffers[i].Data = []float32{7}
	}
	if err := inst.provider.ProvideInput(nil, nil, 0, 1, data); err != nil {
		t.Fatal(err)
	}
	if data.Buffers[0].Data[0] != 1 || data.Buffers[1].Data[0] != 2 {
		t.Errorf("configured slots not handed back")
	}
	if data.Buffers[2].Data != nil || data.Buffers[3].Data != nil {
		t.Error("extra slots not cleared")
	}
}

func TestSetBypass(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}
	u.ResetCalls()

	if err := inst.SetBypass(true); err != nil {
		t.Fatal(err)
	}
	if !u.Bypassed() || u.Calls("Reset") != 1 {
		t.Errorf("bypass: bypassed=%t resets=%d", u.Bypassed(), u.Calls("Reset"))
	}
	if err := inst.SetBypass(false); err != nil {
		t.Fatal(err)
	}
	if u.Bypassed() || u.Calls("Reset") != 1 {
		t.Errorf("resume: bypassed=%t resets=%d", u.Bypassed(), u.Calls("Reset"))
	}
	if n := inst.RenderBlock(nil, block(2, 64, 0), block(2, 64, 0), 64); n != 64 {
		t.Errorf("render after bypass cycle = %d", n)
	}

	t.Run("reset failure", func(t *testing.T) {
		u.Fail("Reset", unit.ErrCannotDoInCurrentContext)
		if err := inst.SetBypass(true); err == nil {
			t.Fatal("SetBypass succeeded")
		}
		if u.Bypassed() || inst.Bypassed() {
			t.Error("bypass set despite reset failure")
		}
	})
}

func TestLatencyFrames(t *testing.T) {
	configure := func(_ int, u *unittest.Unit) { u.LatencySeconds = 0.01 }

	inst, _ := newStubInstance(t, configure, WithLatency(true))
	if got := inst.LatencyFrames(testRate); got != 480 {
		t.Errorf("LatencyFrames = %d, want 480", got)
	}

	off, _ := newStubInstance(t, configure)
	if got := off.LatencyFrames(testRate); got != 0 {
		t.Errorf("LatencyFrames without reporting = %d", got)
	}

	failing, u := newStubInstance(t, configure, WithLatency(true))
	u.Fail("GetProperty:Latency", unit.ErrInvalidProperty)
	if got := failing.LatencyFrames(testRate); got != 0 {
		t.Errorf("LatencyFrames on failed query = %d", got)
	}
}

func TestStoreFetchRoundTrip(t *testing.T) {
	inst, _ := newStubInstance(t, nil)
	want := settings.FromValues(map[unit.ParameterID]float32{unittest.ParamGain: 1.5, unittest.ParamMix: 0.2})
	if err := inst.StoreSettings(want); err != nil {
		t.Fatal(err)
	}
	got := settings.New()
	if err := inst.FetchSettings(got); err != nil {
		t.Fatal(err)
	}
	for _, id := range want.IDs() {
		w, _ := want.Get(id)
		if g, _ := got.Get(id); g != w {
			t.Errorf("parameter %d = %v, want %v", id, g, w)
		}
	}
	if got.Source() != inst.ID() {
		t.Error("fetch did not tag the source")
	}
}

func TestClose(t *testing.T) {
	inst, u := newStubInstance(t, nil)
	if err := inst.Initialize(nil, testRate, nil); err != nil {
		t.Fatal(err)
	}
	if err := inst.Close(); err != nil {
		t.Fatal(err)
	}
	if !u.Disposed() || u.Calls("Uninitialize") != 1 {
		t.Errorf("disposed=%t uninitialize=%d", u.Disposed(), u.Calls("Uninitialize"))
	}
}

func TestNewInstanceFailure(t *testing.T) {
	comp := unittest.NewComponent(nil)
	comp.NewErr = unit.ErrFailedInitialization
	if _, err := NewInstance(comp, 2, 2, quiet()); !errors.Is(err, unit.ErrFailedInitialization) {
		t.Errorf("err = %v", err)
	}
}
