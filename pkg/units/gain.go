package units

import (
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Gain parameter ids.
const (
	GainLevel unit.ParameterID = iota
	GainPeak
)

const gainSmoothingMs = 20

// Gain returns a unit scaling its input by a smoothed level in dB. GainPeak is a
// read-only meter of the last block's output peak.
func Gain(opts ...Option) *Component {
	return NewComponent(Definition{
		Description: effect("gain", "Gain"),
		Params: func() []*param.Parameter {
			return []*param.Parameter{
				param.New(GainLevel, "Level").Range(-60, 12).Default(0).Unit("dB").Build(),
				param.New(GainPeak, "Peak").Range(0, 4).ReadOnly().Build(),
			}
		},
		Kernel: func(reg *param.Registry) Kernel {
			return &gainKernel{level: reg.Get(GainLevel), peak: reg.Get(GainPeak)}
		},
	}, opts...)
}

type gainKernel struct {
	level, peak *param.Parameter
	smoother    *param.Smoother
	ramp        []float64
}

func (k *gainKernel) Prepare(sampleRate float64, channels, maxFrames int) error {
	k.smoother = param.NewSmoother(1)
	k.smoother.SetTimeMs(sampleRate, gainSmoothingMs)
	k.ramp = make([]float64, maxFrames)
	return nil
}

func (k *gainKernel) Reset() {
	k.smoother.Reset(dsp.DBToGain(float64(k.level.Value())))
	k.peak.SetValue(0)
}

func (k *gainKernel) Process(ctx *process.Context) {
	n := ctx.NumSamples()
	ramp := k.ramp[:n]
	k.smoother.SetTarget(dsp.DBToGain(float64(k.level.Value())))
	k.smoother.Fill(ramp)

	var peak float32
	ctx.ProcessChannels(func(ch int, buf []float32) {
		wide := dsp.Widen(ctx.WideBuffer(), buf)
		vecmath.MulBlockInPlace(wide, ramp)
		dsp.Narrow(buf, wide)
		peak = max(peak, dsp.Peak(buf))
	})
	k.peak.SetValue(peak)
}
