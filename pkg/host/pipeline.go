package host

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/framework/debug"
	"github.com/justyntemme/unithost/pkg/settings"
)

var (
	// ErrNotStarted is returned by Process before Start.
	ErrNotStarted = errors.New("host: pipeline not started")

	// ErrShortBuffer is returned by Process when a channel holds fewer samples
	// than the frames asked for.
	ErrShortBuffer = errors.New("host: channel shorter than frames")
)

// Pipeline renders a track of channels through an Effect, one processor per
// channel group.
//
// Start, Stop and SetSettings run on the control thread. Process runs on the
// audio thread and neither locks, logs nor allocates.
type Pipeline struct {
	effect   Effect
	channels int
	groups   []bus.Group
	layout   bus.ChannelMap
	log      *debug.Logger

	ins, outs  int
	block      int
	sampleRate float64

	// per group views, rebuilt in place every block
	inViews  [][][]float32
	outViews [][][]float32
	// outputs of a group that fall past the end of the track
	spill   [][][]float32
	silence []float32

	snap      atomic.Pointer[settings.Snapshot]
	running   atomic.Bool
	silenced  atomic.Uint64
	startErrs atomic.Uint64
}

// NewPipeline plans how channels track channels map onto processors of effect.
func NewPipeline(effect Effect, channels int, opts ...Option) (*Pipeline, error) {
	cfg := config{logger: debug.Default().With("host")}
	for _, opt := range opts {
		opt(&cfg)
	}
	ins, outs := int(effect.AudioInCount()), int(effect.AudioOutCount())
	if outs <= 0 {
		return nil, fmt.Errorf("host: effect has no outputs")
	}
	// Generators have no inputs; group them by their outputs.
	width := ins
	if width == 0 {
		width = outs
	}
	groups, err := bus.Split(channels, width)
	if err != nil {
		return nil, err
	}
	layout := cfg.layout
	if layout == nil {
		layout = bus.LayoutFor(channels)
	}

	p := &Pipeline{
		effect:   effect,
		channels: channels,
		groups:   groups,
		layout:   layout,
		log:      cfg.logger,
		ins:      ins,
		outs:     outs,
	}
	p.snap.Store(settings.New())
	return p, nil
}

// Groups returns the channel groups of the track.
func (p *Pipeline) Groups() []bus.Group { return p.groups }

// Channels returns the track width.
func (p *Pipeline) Channels() int { return p.channels }

// SampleRate returns the rate given to Start.
func (p *Pipeline) SampleRate() float64 { return p.sampleRate }

// BlockSize returns the most frames handed to the effect at once.
func (p *Pipeline) BlockSize() int { return p.effect.BlockSize() }

// Latency returns the effect latency in frames.
func (p *Pipeline) Latency(sampleRate float64) int64 { return p.effect.Latency(sampleRate) }

// Running reports whether Start succeeded and Stop has not been called.
func (p *Pipeline) Running() bool { return p.running.Load() }

// SetSettings replaces the snapshot pushed at the start of every cycle.
func (p *Pipeline) SetSettings(snap *settings.Snapshot) {
	if snap == nil {
		snap = settings.New()
	}
	p.snap.Store(snap)
}

// Settings returns the current snapshot.
func (p *Pipeline) Settings() *settings.Snapshot { return p.snap.Load() }

// Start initializes the effect and adds one processor per channel group.
// When a processor cannot be added the effect is finalized again.
func (p *Pipeline) Start(snap *settings.Snapshot, sampleRate float64) error {
	if p.running.Load() {
		return fmt.Errorf("host: pipeline already started")
	}
	p.SetSettings(snap)
	snap = p.snap.Load()

	if err := p.effect.Initialize(snap, sampleRate, p.groups[0].Map(p.layout)); err != nil {
		return fmt.Errorf("host: initialize: %w", err)
	}
	for _, g := range p.groups {
		if err := p.effect.AddProcessor(snap, sampleRate); err != nil {
			p.log.Error("channel group %d: %v", g.Index, err)
			if ferr := p.effect.Finalize(); ferr != nil {
				p.log.Warn("finalize after failed start: %v", ferr)
			}
			return fmt.Errorf("host: add processor %d: %w", g.Index, err)
		}
	}

	p.sampleRate = sampleRate
	p.allocate()
	p.running.Store(true)
	p.log.Info("started %d channels in %d groups at %g Hz, block %d", p.channels, len(p.groups), sampleRate, p.block)
	return nil
}

func (p *Pipeline) allocate() {
	p.block = p.effect.BlockSize()
	p.silence = make([]float32, p.block)
	p.inViews = make([][][]float32, len(p.groups))
	p.outViews = make([][][]float32, len(p.groups))
	p.spill = make([][][]float32, len(p.groups))
	for i, g := range p.groups {
		p.inViews[i] = make([][]float32, p.ins)
		p.outViews[i] = make([][]float32, p.outs)
		p.spill[i] = make([][]float32, p.outs)
		for k := g.Count; k < p.outs; k++ {
			p.spill[i][k] = make([]float32, p.block)
		}
	}
}

// Process renders frames of in into out. in and out hold one slice per track
// channel. It returns the number of frames written, which is frames unless the
// pipeline is not running.
func (p *Pipeline) Process(in, out [][]float32, frames int) (int, error) {
	if !p.running.Load() {
		return 0, ErrNotStarted
	}
	if len(in) < p.channels || len(out) < p.channels {
		return 0, fmt.Errorf("host: want %d channels, got %d in and %d out", p.channels, len(in), len(out))
	}
	if frames < 0 {
		return 0, fmt.Errorf("host: negative frame count %d", frames)
	}
	for c := 0; c < p.channels; c++ {
		if len(in[c]) < frames || len(out[c]) < frames {
			return 0, fmt.Errorf("%w: channel %d holds %d in and %d out, want %d",
				ErrShortBuffer, c, len(in[c]), len(out[c]), frames)
		}
	}

	snap := p.snap.Load()
	if err := p.effect.ProcessStart(snap); err != nil {
		p.startErrs.Add(1)
	}
	for off := 0; off < frames; off += p.block {
		n := min(p.block, frames-off)
		for gi, g := range p.groups {
			p.bind(gi, g, in, out, off, n)
			if p.effect.Dispatch(gi, snap, p.inViews[gi], p.outViews[gi], n) != n {
				p.silenced.Add(1)
				for k := 0; k < g.Count; k++ {
					dsp.Clear(out[g.First+k][off : off+n])
				}
			}
		}
	}
	_ = p.effect.ProcessEnd()
	return frames, nil
}

func (p *Pipeline) bind(gi int, g bus.Group, in, out [][]float32, off, n int) {
	views := p.inViews[gi]
	for k := range views {
		if k < g.Count {
			views[k] = in[g.First+k][off : off+n]
		} else {
			views[k] = p.silence[:n]
		}
	}
	views = p.outViews[gi]
	for k := range views {
		if k < g.Count {
			views[k] = out[g.First+k][off : off+n]
		} else {
			views[k] = p.spill[gi][k][:n]
		}
	}
	// track channels the effect has no output for
	for k := p.outs; k < g.Count; k++ {
		dsp.Clear(out[g.First+k][off : off+n])
	}
}

// Silenced returns how many group blocks were replaced by silence.
func (p *Pipeline) Silenced() uint64 { return p.silenced.Load() }

// StartFailures returns how many cycles failed to push their settings.
func (p *Pipeline) StartFailures() uint64 { return p.startErrs.Load() }

// Suspend bypasses the effect without ending the session.
func (p *Pipeline) Suspend() error { return p.effect.Suspend() }

// Resume ends a Suspend.
func (p *Pipeline) Resume() error { return p.effect.Resume() }

// Stop suspends and finalizes the effect. Both steps run.
func (p *Pipeline) Stop() error {
	if !p.running.Swap(false) {
		return nil
	}
	serr := p.effect.Suspend()
	if serr != nil {
		p.log.Warn("suspend: %v", serr)
	}
	ferr := p.effect.Finalize()
	if n := p.silenced.Load(); n > 0 {
		p.log.Warn("%d blocks rendered as silence", n)
	}
	return errors.Join(serr, ferr)
}
