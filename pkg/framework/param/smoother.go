package param

import "math"

// Smoother ramps a value linearly towards a target over a fixed number of samples
// to avoid zipper noise. It is owned by the render thread.
type Smoother struct {
	current float64
	target  float64
	step    float64
	remain  int
	length  int
}

// NewSmoother creates a smoother that settles in length samples.
func NewSmoother(length int) *Smoother {
	if length < 1 {
		length = 1
	}
	return &Smoother{length: length}
}

// SetLength changes the ramp length for subsequent targets.
func (s *Smoother) SetLength(length int) {
	if length < 1 {
		length = 1
	}
	s.length = length
}

// SetTimeMs sets the ramp length from a duration at the given sample rate.
func (s *Smoother) SetTimeMs(sampleRate, ms float64) {
	s.SetLength(int(math.Round(sampleRate * ms / 1000)))
}

// SetTarget starts a ramp to target. An unchanged target keeps the running ramp.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target {
		return
	}
	s.target = target
	s.remain = s.length
	s.step = (target - s.current) / float64(s.length)
}

// Next advances one sample and returns the value.
func (s *Smoother) Next() float64 {
	if s.remain == 0 {
		return s.current
	}
	s.remain--
	if s.remain == 0 {
		s.current = s.target
	} else {
		s.current += s.step
	}
	return s.current
}

// Fill writes the next len(dst) values into dst.
func (s *Smoother) Fill(dst []float64) {
	if s.remain == 0 {
		for i := range dst {
			dst[i] = s.current
		}
		return
	}
	for i := range dst {
		dst[i] = s.Next()
	}
}

// IsSmoothing reports whether a ramp is in progress.
func (s *Smoother) IsSmoothing() bool {
	return s.remain > 0
}

// Reset jumps to value without ramping.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.remain = 0
	s.step = 0
}

// Current returns the present value.
func (s *Smoother) Current() float64 {
	return s.current
}
