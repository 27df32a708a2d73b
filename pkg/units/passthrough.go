package units

import (
	"github.com/justyntemme/unithost/pkg/framework/param"
	"github.com/justyntemme/unithost/pkg/framework/process"
)

// Passthrough returns a unit copying input to output. It has no parameters.
func Passthrough(opts ...Option) *Component {
	return NewComponent(Definition{
		Description: effect("thru", "Passthrough"),
		Kernel:      func(*param.Registry) Kernel { return passthroughKernel{} },
	}, opts...)
}

type passthroughKernel struct{}

func (passthroughKernel) Prepare(float64, int, int) error { return nil }
func (passthroughKernel) Process(ctx *process.Context)      { ctx.PassThrough() }
func (passthroughKernel) Reset()                            {}
