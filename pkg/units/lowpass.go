package units

import (
	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/dsp/filter"
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Lowpass parameter ids.
const (
	LowpassCutoff unit.ParameterID = iota
	LowpassResonance
)

// Lowpass returns a resonant biquad lowpass unit.
func Lowpass(opts ...Option) *Component {
	return NewComponent(Definition{
		Description: effect("lopa", "Lowpass"),
		Params: func() []*param.Parameter {
			return []*param.Parameter{
				param.New(LowpassCutoff, "Cutoff").Range(20, 20000).Default(1000).Unit("Hz").Build(),
				param.New(LowpassResonance, "Resonance").Range(0.1, 10).Default(dsp.DefaultQ).Build(),
			}
		},
		Kernel: func(reg *param.Registry) Kernel {
			return &lowpassKernel{cutoff: reg.Get(LowpassCutoff), q: reg.Get(LowpassResonance)}
		},
	}, opts...)
}

type lowpassKernel struct {
	cutoff, q  *param.Parameter
	sampleRate float64
	biquad     *filter.Biquad
	// coefficients were computed for these values
	lastCutoff, lastQ float32
}

func (k *lowpassKernel) Prepare(sampleRate float64, channels, maxFrames int) error {
	k.sampleRate = sampleRate
	k.biquad = filter.NewBiquad(channels)
	k.update(k.cutoff.Value(), k.q.Value())
	return nil
}

func (k *lowpassKernel) Reset() {
	k.biquad.Reset()
}

func (k *lowpassKernel) update(cutoff, q float32) {
	k.biquad.SetLowpass(k.sampleRate, float64(cutoff), float64(q))
	k.lastCutoff, k.lastQ = cutoff, q
}

func (k *lowpassKernel) Process(ctx *process.Context) {
	if c, q := k.cutoff.Value(), k.q.Value(); c != k.lastCutoff || q != k.lastQ {
		k.update(c, q)
	}
	ctx.ProcessChannels(func(ch int, buf []float32) {
		if ch < k.biquad.Channels() {
			k.biquad.Process(buf, ch)
		}
	})
}
