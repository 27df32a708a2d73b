package host

import (
	"github.com/justyntemme/unithost/pkg/framework/bus"
	"github.com/justyntemme/unithost/pkg/framework/debug"
)

type config struct {
	logger *debug.Logger
	layout bus.ChannelMap
}

// Option configures a Pipeline.
type Option func(*config)

// WithLogger sets the logger for control-thread messages.
func WithLogger(l *debug.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLayout names the track channels. The default comes from bus.LayoutFor.
func WithLayout(layout bus.ChannelMap) Option {
	return func(c *config) {
		c.layout = layout
	}
}
