package bus

import "fmt"

// Group is a contiguous run of track channels processed by one processor.
type Group struct {
	Index int
	First int
	Count int
}

// Split divides trackChannels into groups of width channels each. The last group
// may be narrower; processors still receive width buffers for it and the host
// fills the missing ones with silence.
func Split(trackChannels, width int) ([]Group, error) {
	if width <= 0 {
		return nil, fmt.Errorf("bus: processor width must be positive, got %d", width)
	}
	if trackChannels <= 0 {
		return nil, fmt.Errorf("bus: track must have channels, got %d", trackChannels)
	}

	n := (trackChannels + width - 1) / width
	groups := make([]Group, n)
	for i := range groups {
		first := i * width
		count := width
		if first+count > trackChannels {
			count = trackChannels - first
		}
		groups[i] = Group{Index: i, First: first, Count: count}
	}
	return groups, nil
}

// Map returns the slice of layout naming the channels of g, or nil if layout is
// too short to cover it.
func (g Group) Map(layout ChannelMap) ChannelMap {
	if g.First+g.Count > len(layout) {
		return nil
	}
	return layout[g.First : g.First+g.Count]
}
