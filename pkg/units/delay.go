package units

import (
	"github.com/justyntemme/unithost/pkg/dsp/delay"
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Delay parameter ids.
const (
	DelayTime unit.ParameterID = iota
	DelayFeedback
	DelayMix
)

const maxDelayMs = 2000

// Delay returns a feedback echo unit.
func Delay(opts ...Option) *Component {
	return NewComponent(Definition{
		Description: effect("dlay", "Delay"),
		Params: func() []*param.Parameter {
			return []*param.Parameter{
				param.New(DelayTime, "Time").Range(1, maxDelayMs).Default(250).Unit("ms").Build(),
				param.New(DelayFeedback, "Feedback").Range(0, 0.95).Default(0.3).Build(),
				param.New(DelayMix, "Mix").Default(0.5).Build(),
			}
		},
		Kernel: func(reg *param.Registry) Kernel {
			return &delayKernel{
				time:     reg.Get(DelayTime),
				feedback: reg.Get(DelayFeedback),
				mix:      reg.Get(DelayMix),
			}
		},
	}, opts...)
}

type delayKernel struct {
	time, feedback, mix *param.Parameter
	sampleRate          float64
	lines               []*delay.Line
}

func (k *delayKernel) Prepare(sampleRate float64, channels, maxFrames int) error {
	k.sampleRate = sampleRate
	k.lines = make([]*delay.Line, channels)
	for i := range k.lines {
		k.lines[i] = delay.New(int(sampleRate*maxDelayMs/1000) + 1)
	}
	return nil
}

func (k *delayKernel) Reset() {
	for _, l := range k.lines {
		l.Reset()
	}
}

// TailSeconds is the time for the echoes to fall below -60 dB.
func (k *delayKernel) TailSeconds() float64 {
	fb := float64(k.feedback.Value())
	t := float64(k.time.Value()) / 1000
	if fb <= 0 {
		return t
	}
	// fb^n = 0.001
	n := 1.0
	for g := fb; g > 0.001; g *= fb {
		n++
	}
	return t * n
}

func (k *delayKernel) Process(ctx *process.Context) {
	samples := float64(k.time.Value()) * k.sampleRate / 1000
	fb, mix := k.feedback.Value(), k.mix.Value()
	ctx.ProcessChannels(func(ch int, buf []float32) {
		if ch < len(k.lines) {
			k.lines[ch].ProcessFeedback(buf, samples, fb, mix)
		}
	})
}
