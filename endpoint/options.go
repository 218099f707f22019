package endpoint

import "log/slog"

// Option configures a Consumer.
type Option func(*config)

type config struct {
	policy         ErrorPolicy
	lifecycle      Lifecycle
	log            *slog.Logger
	bufferSize     int
	upstreamErrors bool
}

func defaultConfig() config {
	return config{bufferSize: 1024}
}

// WithErrorPolicy injects the error policy. When absent, Start installs
// a default that logs failures through the consumer's logger.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(c *config) { c.policy = policy }
}

// WithLifecycle attaches the optional start/stop pair the consumer
// drives around its subscription: started before subscribing, stopped
// after disposing.
func WithLifecycle(lc Lifecycle) Option {
	return func(c *config) { c.lifecycle = lc }
}

// WithLogger injects a slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithBufferSize sets the producer adapter's buffer capacity.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// WithUpstreamErrorReporting routes upstream terminal failures to the
// error policy. By default they are dropped in subscriber mode, on the
// assumption that the producer side already reported them.
func WithUpstreamErrorReporting() Option {
	return func(c *config) { c.upstreamErrors = true }
}
