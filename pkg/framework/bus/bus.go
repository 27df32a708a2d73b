// Package bus describes channel layouts and how a track's channels are divided
// into channel groups, one group per processor of an effect.
package bus

import (
	"fmt"
	"strings"
)

// ChannelName identifies a speaker position.
type ChannelName int

const (
	ChannelMono ChannelName = iota
	ChannelFrontLeft
	ChannelFrontRight
	ChannelFrontCenter
	ChannelLowFrequency
	ChannelBackLeft
	ChannelBackRight
	ChannelSideLeft
	ChannelSideRight
)

var channelNames = [...]string{
	ChannelMono:         "M",
	ChannelFrontLeft:    "L",
	ChannelFrontRight:   "R",
	ChannelFrontCenter:  "C",
	ChannelLowFrequency: "LFE",
	ChannelBackLeft:     "Ls",
	ChannelBackRight:    "Rs",
	ChannelSideLeft:     "Lss",
	ChannelSideRight:    "Rss",
}

func (c ChannelName) String() string {
	if c >= 0 && int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("ch%d", int(c))
}

// ChannelMap names the channels handed to one processor, in buffer order.
// A nil map means the layout is unspecified.
type ChannelMap []ChannelName

func (m ChannelMap) String() string {
	parts := make([]string, len(m))
	for i, c := range m {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Common layouts
var (
	Mono       = ChannelMap{ChannelMono}
	Stereo     = ChannelMap{ChannelFrontLeft, ChannelFrontRight}
	Surround51 = ChannelMap{
		ChannelFrontLeft, ChannelFrontRight, ChannelFrontCenter,
		ChannelLowFrequency, ChannelBackLeft, ChannelBackRight,
	}
	Surround71 = ChannelMap{
		ChannelFrontLeft, ChannelFrontRight, ChannelFrontCenter,
		ChannelLowFrequency, ChannelBackLeft, ChannelBackRight,
		ChannelSideLeft, ChannelSideRight,
	}
)

// LayoutFor returns a standard layout for a channel count, or nil if there is none.
func LayoutFor(channels int) ChannelMap {
	switch channels {
	case 1:
		return Mono
	case 2:
		return Stereo
	case 6:
		return Surround51
	case 8:
		return Surround71
	}
	return nil
}
