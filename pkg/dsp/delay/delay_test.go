package delay

import "testing"

func TestLineIntegerDelay(t *testing.T) {
	d := New(16)
	buf := make([]float32, 8)
	buf[0] = 1
	d.ProcessFeedback(buf, 3, 0, 1)

	for i, v := range buf {
		want := float32(0)
		if i == 3 {
			want = 1
		}
		if v != want {
			t.Errorf("buf[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestLineFeedback(t *testing.T) {
	d := New(8)
	buf := make([]float32, 9)
	buf[0] = 1
	d.ProcessFeedback(buf, 4, 0.5, 1)

	if buf[4] != 1 || buf[8] != 0.5 {
		t.Errorf("echoes = %v, %v, want 1, 0.5", buf[4], buf[8])
	}
}

func TestLineClampsDelay(t *testing.T) {
	d := New(4)
	if d.MaxDelay() != 4 {
		t.Fatalf("MaxDelay = %v", d.MaxDelay())
	}
	for i := 0; i < 10; i++ {
		d.Write(float32(i))
	}
	// Longer than the line reads the oldest sample kept.
	if v := d.Read(100); v != d.Read(4) {
		t.Errorf("Read(100) = %v, Read(4) = %v", v, d.Read(4))
	}
	d.Reset()
	if v := d.Read(0); v != 0 {
		t.Errorf("after Reset Read = %v", v)
	}
}
