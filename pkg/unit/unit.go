package unit

// InputProvider answers a unit's request for input samples during Render.
// It is called synchronously on the render thread and must not block or allocate.
type InputProvider interface {
	ProvideInput(flags *RenderFlags, ts *TimeStamp, bus uint32, frames uint32, data *BufferList) error
}

// InputProviderFunc adapts a function to InputProvider.
type InputProviderFunc func(flags *RenderFlags, ts *TimeStamp, bus uint32, frames uint32, data *BufferList) error

// ProvideInput calls f.
func (f InputProviderFunc) ProvideInput(flags *RenderFlags, ts *TimeStamp, bus uint32, frames uint32, data *BufferList) error {
	return f(flags, ts, bus, frames, data)
}

// Unit is one native processing handle. A handle holds exactly one parameter and
// internal state; independent state needs independent handles.
//
// Property values are passed as pointers to fixed-size numeric values (see GetFixed
// and SetFixed). Render is the only method called from the audio thread.
type Unit interface {
	GetProperty(id PropertyID, scope Scope, element uint32, dst any) error
	SetProperty(id PropertyID, scope Scope, element uint32, value any) error

	// SetInputProvider registers the callback the unit pulls input from. A nil
	// provider clears the registration.
	SetInputProvider(scope Scope, element uint32, p InputProvider) error

	Parameters() []ParameterInfo
	GetParameter(id ParameterID, scope Scope, element uint32) (float32, error)
	SetParameter(id ParameterID, scope Scope, element uint32, value float32) error

	Initialize() error
	Uninitialize() error
	Reset(scope Scope, element uint32) error

	// Render produces frames into out. The unit requests its input through the
	// registered InputProvider.
	Render(flags *RenderFlags, ts *TimeStamp, bus uint32, frames uint32, out *BufferList) error

	Dispose() error
}

// Component is a unit template. Every call to New returns a handle with its own state.
type Component interface {
	Description() Description
	New() (Unit, error)
}

// ParameterListener is told about a parameter value the unit changed itself,
// such as an edit on its own user interface. Values set through SetParameter
// are not reported.
type ParameterListener func(id ParameterID, value float32)

// ParameterNotifier is implemented by units that report their own parameter
// edits. A nil listener clears the registration.
type ParameterNotifier interface {
	SetParameterListener(l ParameterListener)
}
