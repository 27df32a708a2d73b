// Package delay provides a fractional delay line.
package delay

// Line is a circular delay line with linear interpolation.
type Line struct {
	buffer   []float32
	writePos int
}

// New creates a delay line able to hold maxSamples of delay.
func New(maxSamples int) *Line {
	return &Line{buffer: make([]float32, maxSamples+2)}
}

// MaxDelay returns the longest delay in samples the line can produce.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 2)
}

// Reset clears the buffer.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}

// Write pushes one sample.
func (d *Line) Write(sample float32) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delaySamples ago. Delays are clamped to [1, MaxDelay].
func (d *Line) Read(delaySamples float64) float32 {
	if delaySamples < 1 {
		delaySamples = 1
	} else if m := d.MaxDelay(); delaySamples > m {
		delaySamples = m
	}
	size := len(d.buffer)
	pos := float64(d.writePos) - delaySamples
	if pos < 0 {
		pos += float64(size)
	}
	i := int(pos)
	frac := float32(pos - float64(i))
	s1 := d.buffer[i%size]
	s2 := d.buffer[(i+1)%size]
	return s1 + (s2-s1)*frac
}

// ProcessFeedback delays buffer in place with feedback and a dry/wet mix.
func (d *Line) ProcessFeedback(buffer []float32, delaySamples float64, feedback, mix float32) {
	dryGain := 1 - mix
	for i, dry := range buffer {
		wet := d.Read(delaySamples)
		d.Write(dry + wet*feedback)
		buffer[i] = dry*dryGain + wet*mix
	}
}
