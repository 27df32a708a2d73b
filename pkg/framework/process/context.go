// Package process provides the render context handed to unit kernels.
package process

// Context carries one render call's channel views and pre-allocated scratch.
// Input and Output are sliced to the frame count; an Output slice may alias its Input.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	frames int
	work   []float32
	wide   []float64
}

// NewContext creates a context with scratch for maxFrames samples.
func NewContext(maxFrames int, sampleRate float64) *Context {
	return &Context{
		SampleRate: sampleRate,
		work:       make([]float32, maxFrames),
		wide:       make([]float64, maxFrames),
	}
}

// Bind sets the channel views for a call. frames must not exceed the scratch size.
func (c *Context) Bind(in, out [][]float32, frames int) {
	c.Input = in
	c.Output = out
	c.frames = frames
}

// NumSamples returns the frame count of the current call.
func (c *Context) NumSamples() int {
	return c.frames
}

// NumInputChannels returns the number of input channels.
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels.
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns float32 scratch sized to the current call - no allocation!
func (c *Context) WorkBuffer() []float32 {
	return c.work[:c.frames]
}

// WideBuffer returns float64 scratch sized to the current call.
func (c *Context) WideBuffer() []float64 {
	return c.wide[:c.frames]
}

// PassThrough copies input to output. Output channels past the inputs are silenced.
func (c *Context) PassThrough() {
	for ch, out := range c.Output {
		if ch < len(c.Input) {
			copy(out, c.Input[ch])
			continue
		}
		clear(out)
	}
}

// Clear zeros the output buffers.
func (c *Context) Clear() {
	for _, out := range c.Output {
		clear(out)
	}
}

// ProcessChannels copies each input into its output and calls fn to work on the
// output in place.
func (c *Context) ProcessChannels(fn func(ch int, buf []float32)) {
	c.PassThrough()
	for ch, out := range c.Output {
		if ch < len(c.Input) {
			fn(ch, out)
		}
	}
}
