package process

import "testing"

func TestContextPassThrough(t *testing.T) {
	c := NewContext(4, 48000)
	in := [][]float32{{1, 2, 3}}
	out := [][]float32{{9, 9, 9}, {9, 9, 9}}
	c.Bind(in, out, 3)

	c.PassThrough()
	if out[0][2] != 3 {
		t.Errorf("channel 0 = %v", out[0])
	}
	for _, v := range out[1] {
		if v != 0 {
			t.Fatalf("extra channel not silenced: %v", out[1])
		}
	}
}

func TestContextScratch(t *testing.T) {
	c := NewContext(8, 44100)
	c.Bind(nil, nil, 5)
	if len(c.WorkBuffer()) != 5 || len(c.WideBuffer()) != 5 {
		t.Errorf("scratch lengths = %d, %d", len(c.WorkBuffer()), len(c.WideBuffer()))
	}
	if c.NumSamples() != 5 {
		t.Errorf("NumSamples = %d", c.NumSamples())
	}
}

func TestContextProcessChannels(t *testing.T) {
	c := NewContext(2, 44100)
	in := [][]float32{{1, 2}, {3, 4}}
	out := [][]float32{make([]float32, 2), make([]float32, 2)}
	c.Bind(in, out, 2)

	c.ProcessChannels(func(ch int, buf []float32) {
		for i := range buf {
			buf[i] *= 2
		}
	})
	if out[0][1] != 4 || out[1][0] != 6 {
		t.Errorf("out = %v", out)
	}
	if in[0][1] != 2 {
		t.Error("input modified")
	}
}
