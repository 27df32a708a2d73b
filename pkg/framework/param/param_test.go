package param

import (
	"math"
	"testing"

	"github.com/justyntemme/unithost/pkg/unit"
)

func TestParameterClamp(t *testing.T) {
	p := New(1, "Cutoff").Range(20, 20000).Default(1000).Unit("Hz").Build()

	if got := p.Value(); got != 1000 {
		t.Fatalf("Expected default 1000, got %f", got)
	}

	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"InRange", 440, 440},
		{"BelowMin", 5, 20},
		{"AboveMax", 30000, 20000},
		{"NaN", float32(math.NaN()), 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.SetValue(tt.in)
			if got := p.Value(); got != tt.want {
				t.Errorf("SetValue(%f): got %f, want %f", tt.in, got, tt.want)
			}
		})
	}

	p.Reset()
	if got := p.Value(); got != 1000 {
		t.Errorf("Expected reset to default, got %f", got)
	}
}

func TestBuilderFlags(t *testing.T) {
	meter := New(2, "Level").ReadOnly().Hidden().Build()
	info := meter.Info()
	if info.Writable() {
		t.Error("Read-only parameter reported writable")
	}
	if info.Flags&unit.ParamHidden == 0 {
		t.Error("Expected hidden flag")
	}
	if info.Flags&unit.ParamReadable == 0 {
		t.Error("Expected readable flag")
	}

	defaultOutOfRange := New(3, "Mix").Range(0, 1).Default(4).Build()
	if defaultOutOfRange.DefaultValue != 1 {
		t.Errorf("Expected default clamped to 1, got %f", defaultOutOfRange.DefaultValue)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	gain := New(10, "Gain").Build()
	mix := New(5, "Mix").Build()

	if err := reg.Add(gain, mix); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if reg.Count() != 2 {
		t.Fatalf("Expected 2 parameters, got %d", reg.Count())
	}

	// Declaration order, not ID order
	infos := reg.Infos()
	if infos[0].ID != 10 || infos[1].ID != 5 {
		t.Errorf("Unexpected order: %v", infos)
	}

	if err := reg.Add(New(10, "Again").Build()); err == nil {
		t.Error("Expected duplicate id error")
	}
	if reg.Get(99) != nil {
		t.Error("Expected nil for unknown id")
	}

	gain.SetValue(0.25)
	reg.ResetAll()
	if gain.Value() != 0 {
		t.Errorf("Expected reset value 0, got %f", gain.Value())
	}
}

func TestSmoother(t *testing.T) {
	s := NewSmoother(4)
	s.Reset(0)
	s.SetTarget(1)

	want := []float64{0.25, 0.5, 0.75, 1, 1}
	for i, w := range want {
		if got := s.Next(); math.Abs(got-w) > 1e-12 {
			t.Errorf("sample %d: got %f, want %f", i, got, w)
		}
	}
	if s.IsSmoothing() {
		t.Error("Expected ramp to be finished")
	}

	buf := make([]float64, 3)
	s.Fill(buf)
	for i, v := range buf {
		if v != 1 {
			t.Errorf("Fill[%d]: got %f, want 1", i, v)
		}
	}

	s.SetTimeMs(1000, 2)
	s.SetTarget(0)
	s.Fill(buf[:2])
	if buf[1] != 0 {
		t.Errorf("Expected target reached after 2 samples, got %f", buf[1])
	}
}
