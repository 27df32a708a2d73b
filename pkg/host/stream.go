package host

import (
	"encoding/binary"
	"io"
	"math"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/dsp/meter"
)

const bytesPerSample = 4

// Stream is an io.Reader of interleaved float32 little endian frames rendered
// from a Source through a Pipeline. It suits pull-model audio devices, which
// call Read from their own thread.
//
// Track channels are folded onto the device channels round robin.
type Stream struct {
	pipeline *Pipeline
	source   Source
	devCh    int
	length   int64

	track    [][]float32
	rendered [][]float32
	fold     [][]float32
	scale    float32

	frames atomic.Int64
	meter  *meter.Peak
}

// NewStream returns a stream of deviceChannels wide frames from a started
// pipeline.
func NewStream(p *Pipeline, src Source, deviceChannels int) *Stream {
	if deviceChannels <= 0 {
		deviceChannels = 1
	}
	rate := p.SampleRate()
	if rate <= 0 {
		rate = dsp.DefaultSampleRate
	}
	block := p.BlockSize()
	s := &Stream{
		pipeline: p,
		source:   src,
		devCh:    deviceChannels,
		track:    makeChannels(p.Channels(), block),
		rendered: makeChannels(p.Channels(), block),
		fold:     makeChannels(deviceChannels, block),
		meter:    meter.NewPeak(rate),
	}
	perDevice := (p.Channels() + deviceChannels - 1) / deviceChannels
	s.scale = 1 / float32(perDevice)
	return s
}

func makeChannels(n, frames int) [][]float32 {
	ch := make([][]float32, n)
	for i := range ch {
		ch[i] = make([]float32, frames)
	}
	return ch
}

// SetLength makes Read return io.EOF after frames frames. Zero streams forever.
func (s *Stream) SetLength(frames int64) { s.length = frames }

// Frames returns the frames produced so far.
func (s *Stream) Frames() int64 { return s.frames.Load() }

// Meter returns the peak meter of the device signal.
func (s *Stream) Meter() *meter.Peak { return s.meter }

// FrameSize returns the size of one interleaved frame in bytes.
func (s *Stream) FrameSize() int { return s.devCh * bytesPerSample }

// Read fills p with whole frames.
func (s *Stream) Read(p []byte) (int, error) {
	frameSize := s.FrameSize()
	want := len(p) / frameSize
	if want == 0 {
		return 0, io.ErrShortBuffer
	}
	if s.length > 0 {
		left := s.length - s.frames.Load()
		if left <= 0 {
			return 0, io.EOF
		}
		want = int(min(int64(want), left))
	}

	done := 0
	block := len(s.fold[0])
	for done < want {
		n := min(block, want-done)
		if err := s.render(n); err != nil {
			return done * frameSize, err
		}
		s.interleave(p[done*frameSize:], n)
		done += n
		s.frames.Add(int64(n))
	}
	return done * frameSize, nil
}

func (s *Stream) render(n int) error {
	track := s.track
	for c := range track {
		track[c] = track[c][:n]
	}
	s.source.Render(track)
	for c := range s.rendered {
		s.rendered[c] = s.rendered[c][:n]
	}
	if _, err := s.pipeline.Process(track, s.rendered, n); err != nil {
		return err
	}

	var peak float32
	for d := range s.fold {
		s.fold[d] = s.fold[d][:n]
		dsp.Clear(s.fold[d])
	}
	for c, ch := range s.rendered {
		dsp.AddScaled(s.fold[c%s.devCh], ch, s.scale)
	}
	for _, ch := range s.fold {
		peak = max(peak, dsp.Peak(ch))
	}
	s.meter.Update(peak, n)

	// restore full capacity for the next block
	for c := range track {
		track[c] = track[c][:cap(track[c])]
		s.rendered[c] = s.rendered[c][:cap(s.rendered[c])]
	}
	for d := range s.fold {
		s.fold[d] = s.fold[d][:cap(s.fold[d])]
	}
	return nil
}

func (s *Stream) interleave(dst []byte, n int) {
	i := 0
	for f := 0; f < n; f++ {
		for _, ch := range s.fold {
			binary.LittleEndian.PutUint32(dst[i:], math.Float32bits(ch[f]))
			i += bytesPerSample
		}
	}
}
