package unit

// Buffer is one slot of a BufferList. The host deinterleaves, so NumberChannels is
// normally 1. Data is borrowed: it is only valid for the render call that set it.
type Buffer struct {
	NumberChannels uint32
	Data           []float32
}

// BufferList is a fixed count of buffer slots reused across render calls.
type BufferList struct {
	Buffers []Buffer
}

// NewBufferList allocates a list with n mono slots.
func NewBufferList(n int) *BufferList {
	l := &BufferList{Buffers: make([]Buffer, n)}
	for i := range l.Buffers {
		l.Buffers[i].NumberChannels = 1
	}
	return l
}

// Len returns the number of slots. A nil list has none.
func (l *BufferList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Buffers)
}

// Point sets slot i to data without copying.
func (l *BufferList) Point(i int, data []float32) {
	l.Buffers[i].NumberChannels = 1
	l.Buffers[i].Data = data
}

// Detach drops every borrowed pointer so a finished render call cannot leak them.
func (l *BufferList) Detach() {
	if l == nil {
		return
	}
	for i := range l.Buffers {
		l.Buffers[i].Data = nil
	}
}
