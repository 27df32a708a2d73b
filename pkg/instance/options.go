package instance

import "github.com/justyntemme/unithost/pkg/framework/debug"

type config struct {
	logger     *debug.Logger
	useLatency bool
	identifier string
}

// Option configures an Instance or a Group. Slaves of a group are built with
// the group's options.
type Option func(*config)

// WithLogger sets the logger for control-thread messages.
func WithLogger(l *debug.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLatency enables latency reporting.
func WithLatency(enabled bool) Option {
	return func(c *config) {
		c.useLatency = enabled
	}
}

// WithIdentifier names the effect in log messages.
func WithIdentifier(id string) Option {
	return func(c *config) {
		c.identifier = id
	}
}

func buildConfig(opts []Option) config {
	cfg := config{logger: debug.Default().With("instance")}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
