package instance

import "github.com/justyntemme/unithost/pkg/settings"

// route maps a channel group index to its instance, or nil.
func (g *Group) route(index int) *Instance {
	if !g.recruited.Load() || index < 0 {
		return nil
	}
	if index == 0 {
		return g.primary
	}
	slaves := *g.slaves.Load()
	if index-1 < len(slaves) {
		return slaves[index-1]
	}
	return nil
}

// Dispatch renders one block for channel group index and returns the frames
// produced. It returns 0, touching nothing, before the primary is recruited or
// for an index without an instance. Dispatch is called on the audio thread.
func (g *Group) Dispatch(index int, snap *settings.Snapshot, in, out [][]float32, frames int) int {
	inst := g.route(index)
	if inst == nil {
		return 0
	}
	return inst.RenderBlock(snap, in, out, frames)
}

// ProcessStart stores snap into every instance except the one snap was fetched
// from. It runs at the start of a processing pass, never during a render of the
// same group. Every instance is attempted; the first failure is returned.
func (g *Group) ProcessStart(snap *settings.Snapshot) error {
	if snap == nil {
		return nil
	}
	var first error
	store := func(inst *Instance) {
		if inst.ID() == snap.Source() {
			return
		}
		if err := inst.StoreSettings(snap); err != nil && first == nil {
			first = err
		}
	}
	store(g.primary)
	for _, s := range *g.slaves.Load() {
		store(s)
	}
	return first
}

// ProcessEnd closes a processing pass. It always succeeds.
func (g *Group) ProcessEnd() error {
	return nil
}
