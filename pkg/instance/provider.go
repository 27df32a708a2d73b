package instance

import "github.com/justyntemme/unithost/pkg/unit"

// inputProvider hands the unit the input buffers of the block being rendered.
type inputProvider struct {
	inst *Instance
}

// ProvideInput points data at the caller's input channels. Slots past the
// configured channel count get nil, which units read as silence.
func (p *inputProvider) ProvideInput(_ *unit.RenderFlags, _ *unit.TimeStamp, _ uint32, _ uint32, data *unit.BufferList) error {
	src := p.inst.inputs
	n := min(data.Len(), src.Len())
	for i := 0; i < n; i++ {
		data.Buffers[i].Data = src.Buffers[i].Data
	}
	for i := n; i < data.Len(); i++ {
		data.Buffers[i].Data = nil
	}
	return nil
}
