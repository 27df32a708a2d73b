package dsp

const (
	// MinDB is treated as silence.
	MinDB = -120.0

	// DefaultQ is the Butterworth Q.
	DefaultQ = 0.707

	// DefaultSampleRate is used before a host sets a rate.
	DefaultSampleRate = 44100.0
)
