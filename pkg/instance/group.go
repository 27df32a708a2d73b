package instance

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/framework/debug"
	"github.com/justyntemme/unithost/pkg/settings"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Group is one logical effect: a primary instance for channel group 0 plus a
// slave instance, each with its own native handle, for every further group.
//
// Control methods are serialized by a mutex. Dispatch and ProcessStart, which
// run on the audio thread, read the slave list through an atomic pointer and
// never take that mutex.
type Group struct {
	component unit.Component
	ins, outs uint32
	opts      []Option
	log       *debug.Logger

	primary   *Instance
	slaves    atomic.Pointer[[]*Instance]
	recruited atomic.Bool

	mu     sync.Mutex
	closed bool
}

// NewGroup creates the group and its primary instance.
func NewGroup(component unit.Component, ins, outs uint32, opts ...Option) (*Group, error) {
	primary, err := NewInstance(component, ins, outs, opts...)
	if err != nil {
		return nil, err
	}
	cfg := buildConfig(opts)
	g := &Group{
		component: component,
		ins:       ins,
		outs:      outs,
		opts:      opts,
		log:       cfg.logger.With("group"),
		primary:   primary,
	}
	g.slaves.Store(&[]*Instance{})
	if n, ok := primary.Unit().(unit.ParameterNotifier); ok {
		n.SetParameterListener(g.forward)
	}
	return g, nil
}

// forward copies a parameter the primary changed itself to every slave.
func (g *Group) forward(id unit.ParameterID, value float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	for idx, s := range *g.slaves.Load() {
		if err := s.Unit().SetParameter(id, unit.ScopeGlobal, 0, value); err != nil {
			g.log.Warn("channel group %d: parameter %d: %v", idx+1, id, err)
		}
	}
}

// Initialize initializes the primary for a realtime session.
func (g *Group) Initialize(snap *settings.Snapshot, sampleRate float64, chanMap bus.ChannelMap) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.primary.Initialize(snap, sampleRate, chanMap)
}

// AddProcessor registers the next channel group. The first call recruits the
// primary. Later calls create and initialize a slave, which becomes visible to
// Dispatch only once initialized. A slave that fails to initialize is disposed.
func (g *Group) AddProcessor(snap *settings.Snapshot, sampleRate float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.recruited.Load() {
		g.recruited.Store(true)
		return nil
	}

	slave, err := NewInstance(g.component, g.ins, g.outs, g.opts...)
	if err != nil {
		return err
	}
	slave.SetBlockSize(g.primary.BlockSize())
	if err := slave.Initialize(snap, sampleRate, nil); err != nil {
		if cerr := slave.Close(); cerr != nil {
			g.log.Warn("discarding slave: %v", cerr)
		}
		return err
	}

	old := *g.slaves.Load()
	next := make([]*Instance, len(old), len(old)+1)
	copy(next, old)
	next = append(next, slave)
	g.slaves.Store(&next)
	g.log.Debug("added slave for channel group %d", len(next))
	return nil
}

// Primary returns the primary instance.
func (g *Group) Primary() *Instance { return g.primary }

// Recruited reports whether the primary serves channel group 0.
func (g *Group) Recruited() bool { return g.recruited.Load() }

// Slaves returns the number of slave instances.
func (g *Group) Slaves() int { return len(*g.slaves.Load()) }

// Instance returns the instance rendering channel group index.
func (g *Group) Instance(index int) (*Instance, error) {
	if inst := g.route(index); inst != nil {
		return inst, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrGroupIndex, index)
}

// AudioInCount returns the input channels of each instance.
func (g *Group) AudioInCount() uint32 { return g.ins }

// AudioOutCount returns the output channels of each instance.
func (g *Group) AudioOutCount() uint32 { return g.outs }

// BlockSize returns the primary's fixed block size.
func (g *Group) BlockSize() int { return g.primary.BlockSize() }

// SetBlockSize is advisory and returns the fixed block size.
func (g *Group) SetBlockSize(n int) int { return g.primary.SetBlockSize(n) }

// Latency returns the primary's latency in frames.
func (g *Group) Latency(sampleRate float64) int64 { return g.primary.LatencyFrames(sampleRate) }

// all returns the primary followed by the slaves in channel group order.
func (g *Group) all() []*Instance {
	slaves := *g.slaves.Load()
	out := make([]*Instance, 0, len(slaves)+1)
	out = append(out, g.primary)
	return append(out, slaves...)
}

// Suspend bypasses every instance, primary first. It stops at the first
// failure and leaves the remaining instances alone.
func (g *Group) Suspend() error {
	return g.setBypass(true)
}

// Resume un-bypasses every instance, stopping at the first failure.
func (g *Group) Resume() error {
	return g.setBypass(false)
}

func (g *Group) setBypass(bypass bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for idx, inst := range g.all() {
		if err := inst.SetBypass(bypass); err != nil {
			g.log.Error("channel group %d: %v", idx, err)
			return fmt.Errorf("channel group %d: %w", idx, err)
		}
	}
	return nil
}

// SetParameter writes a live parameter change straight into every native
// handle, primary first, so a later fetch from the primary sees it. All
// handles are written even if one fails.
func (g *Group) SetParameter(id unit.ParameterID, value float32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	for idx, inst := range g.all() {
		if err := inst.Unit().SetParameter(id, unit.ScopeGlobal, 0, value); err != nil {
			errs = append(errs, fmt.Errorf("channel group %d: parameter %d: %w", idx, id, err))
		}
	}
	return errors.Join(errs...)
}

// FetchSettings reads the primary's state into snap.
func (g *Group) FetchSettings(snap *settings.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.primary.FetchSettings(snap)
}

// Finalize ends the realtime session: every slave is finalized and disposed,
// the slave list is cleared, the primary is un-recruited and finalized. Every
// step runs even when one fails or panics; the first failure is logged and
// returned.
func (g *Group) Finalize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var td teardown
	slaves := *g.slaves.Load()
	for idx, s := range slaves {
		td.run(fmt.Sprintf("finalize slave %d", idx+1), s.Finalize)
		td.run(fmt.Sprintf("dispose slave %d", idx+1), s.Close)
	}
	g.slaves.Store(&[]*Instance{})
	g.recruited.Store(false)
	td.run("finalize primary", g.primary.Finalize)

	if err := td.err(); err != nil {
		g.log.Error("finalize: %v", err)
		return err
	}
	return nil
}

// Close finalizes the group and disposes the primary. Closing a closed group
// does nothing.
func (g *Group) Close() error {
	g.mu.Lock()
	closed := g.closed
	g.mu.Unlock()
	if closed {
		return nil
	}
	ferr := g.Finalize()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	if n, ok := g.primary.Unit().(unit.ParameterNotifier); ok {
		n.SetParameterListener(nil)
	}
	if err := g.primary.Close(); err != nil {
		return err
	}
	g.closed = true
	return ferr
}
