package filter

import (
	"math"
	"testing"
)

func TestBiquadLowpass(t *testing.T) {
	const rate = 48000.0
	b := NewBiquad(1)
	b.SetLowpass(rate, 1000, 0.707)

	// DC passes with unity gain once settled.
	buf := make([]float32, 4096)
	for i := range buf {
		buf[i] = 1
	}
	b.Process(buf, 0)
	if d := math.Abs(float64(buf[len(buf)-1]) - 1); d > 1e-3 {
		t.Errorf("DC gain off by %v", d)
	}

	// Nyquist is attenuated.
	b.Reset()
	for i := range buf {
		buf[i] = float32(1 - 2*(i%2))
	}
	b.Process(buf, 0)
	if v := math.Abs(float64(buf[len(buf)-1])); v > 1e-3 {
		t.Errorf("Nyquist leaks %v", v)
	}
}

func TestBiquadStatePerChannel(t *testing.T) {
	b := NewBiquad(2)
	b.SetLowpass(44100, 500, 0.707)

	a := []float32{1, 1, 1, 1}
	b.Process(a, 0)
	z := []float32{0, 0, 0, 0}
	b.Process(z, 1)
	for _, v := range z {
		if v != 0 {
			t.Fatalf("channel 1 picked up channel 0 state: %v", z)
		}
	}
}
