package host

import "github.com/justyntemme/unithost/pkg/dsp/oscillator"

// Source generates the track fed into a pipeline. Render fills every slice of
// track, each of the same length.
type Source interface {
	Render(track [][]float32)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(track [][]float32)

func (f SourceFunc) Render(track [][]float32) { f(track) }

// Tones is a Source with one oscillator per track channel. Channels past the
// last oscillator reuse them round robin.
type Tones []*oscillator.Oscillator

func (t Tones) Render(track [][]float32) {
	if len(t) == 0 {
		for _, ch := range track {
			clear(ch)
		}
		return
	}
	for c, ch := range track {
		if c < len(t) {
			t[c].Fill(ch)
		} else {
			copy(ch, track[c%len(t)])
		}
	}
}
