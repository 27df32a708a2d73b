package units

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/justyntemme/unithost/pkg/dsp"
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
	"github.com/justyntemme/unithost/pkg/unit"
)

// Spectral gate parameter ids.
const (
	GateThreshold unit.ParameterID = iota
	GateGated
)

// GateFrameSize is the FFT frame of the spectral gate. Output is delayed by one frame.
const GateFrameSize = 1024

// SpectralGate returns a unit zeroing frequency bins below a threshold. The gate
// reports one frame of latency. GateGated meters the fraction of bins removed in
// the last frame.
func SpectralGate(opts ...Option) *Component {
	return NewComponent(Definition{
		Description: effect("sgat", "Spectral Gate"),
		Params: func() []*param.Parameter {
			return []*param.Parameter{
				param.New(GateThreshold, "Threshold").Range(dsp.MinDB, 0).Default(-80).Unit("dB").Build(),
				param.New(GateGated, "Gated").ReadOnly().Build(),
			}
		},
		Kernel: func(reg *param.Registry) Kernel {
			return &gateKernel{threshold: reg.Get(GateThreshold), gated: reg.Get(GateGated)}
		},
	}, opts...)
}

type gateKernel struct {
	threshold, gated *param.Parameter

	plan     *algofft.Plan[complex128]
	window   []float64
	frame    []float64
	spectrum []complex128
	time     []complex128
	re, im   []float64
	mag      []float64
	channels []gateChannel
}

// gateChannel holds the overlap-add state of one channel; hop is half a frame.
type gateChannel struct {
	in    []float64
	out   []float64
	accum []float64
	rover int
}

func (k *gateKernel) Prepare(sampleRate float64, channels, maxFrames int) error {
	n := GateFrameSize
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return fmt.Errorf("spectral gate: fft plan: %w", err)
	}
	k.plan = plan

	// Periodic Hann sums to 1 at half-frame hops.
	k.window = make([]float64, n)
	for i := range k.window {
		k.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	k.frame = make([]float64, n)
	k.spectrum = make([]complex128, n)
	k.time = make([]complex128, n)
	k.re = make([]float64, n)
	k.im = make([]float64, n)
	k.mag = make([]float64, n)

	k.channels = make([]gateChannel, channels)
	for i := range k.channels {
		k.channels[i] = gateChannel{
			in:    make([]float64, n),
			out:   make([]float64, n/2),
			accum: make([]float64, n),
		}
	}
	return nil
}

func (k *gateKernel) Reset() {
	hop := GateFrameSize / 2
	for i := range k.channels {
		c := &k.channels[i]
		clear(c.in)
		clear(c.out)
		clear(c.accum)
		c.rover = hop
	}
	k.gated.SetValue(0)
}

func (k *gateKernel) LatencySeconds(sampleRate float64) float64 {
	return GateFrameSize / sampleRate
}

func (k *gateKernel) Process(ctx *process.Context) {
	thr := dsp.DBToGain(float64(k.threshold.Value()))
	ctx.ProcessChannels(func(ch int, buf []float32) {
		if ch < len(k.channels) {
			k.processChannel(&k.channels[ch], buf, thr)
		}
	})
}

func (k *gateKernel) processChannel(c *gateChannel, buf []float32, thr float64) {
	n := GateFrameSize
	hop := n / 2
	for i, x := range buf {
		c.in[c.rover] = float64(x)
		buf[i] = float32(c.out[c.rover-hop])
		c.rover++
		if c.rover < n {
			continue
		}
		c.rover = hop

		k.gateFrame(c.in, thr)
		for j := range c.accum {
			c.accum[j] += real(k.time[j])
		}
		copy(c.out, c.accum[:hop])
		copy(c.accum, c.accum[hop:])
		clear(c.accum[n-hop:])
		copy(c.in, c.in[hop:])
	}
}

// gateFrame windows in, zeroes bins below thr and leaves the result in k.time.
func (k *gateKernel) gateFrame(in []float64, thr float64) {
	n := len(in)
	vecmath.MulBlock(k.frame, in, k.window)
	copyReal(k.time, k.frame)
	if err := k.plan.Forward(k.spectrum, k.time); err != nil {
		return
	}

	for i, c := range k.spectrum {
		k.re[i] = real(c)
		k.im[i] = imag(c)
	}
	vecmath.Magnitude(k.mag, k.re, k.im)

	// Bin magnitudes are normalized so a full-scale sine reads 1.
	norm := 4 / float64(n)
	gated := 0
	for i, m := range k.mag {
		if m*norm < thr {
			k.spectrum[i] = 0
			gated++
		}
	}
	k.gated.SetValue(float32(gated) / float32(n))

	if err := k.plan.Inverse(k.time, k.spectrum); err != nil {
		copyReal(k.time, k.frame)
	}
}

func copyReal(dst []complex128, src []float64) {
	for i, v := range src {
		dst[i] = complex(v, 0)
	}
}
