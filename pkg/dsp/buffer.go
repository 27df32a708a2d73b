// Package dsp provides allocation-free buffer helpers for render code.
package dsp

import "math"

// Clear zeroes a buffer.
func Clear(buffer []float32) {
	for i := range buffer {
		buffer[i] = 0
	}
}

// AddScaled adds src*scale to dst over the shorter length.
func AddScaled(dst, src []float32, scale float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i] * scale
	}
}

// Mix blends dry and wet into dst (0 = all dry, 1 = all wet).
func Mix(dst, dry, wet []float32, mix float32) {
	n := min(len(dst), len(dry), len(wet))
	inv := 1 - mix
	for i := 0; i < n; i++ {
		dst[i] = dry[i]*inv + wet[i]*mix
	}
}

// Widen copies src into a float64 scratch buffer. dst must be at least len(src).
func Widen(dst []float64, src []float32) []float64 {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

// Narrow copies a float64 buffer back into float32 samples.
func Narrow(dst []float32, src []float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
}

// Peak returns the largest absolute sample.
func Peak(buffer []float32) float32 {
	var peak float32
	for _, s := range buffer {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// RMS returns the root mean square of a buffer.
func RMS(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buffer {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(buffer))))
}

// DBToGain converts decibels to a linear gain.
func DBToGain(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// GainToDB converts a linear gain to decibels, floored at MinDB.
func GainToDB(gain float64) float64 {
	if gain <= 0 {
		return MinDB
	}
	return math.Max(20*math.Log10(gain), MinDB)
}
