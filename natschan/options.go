package natschan

import (
	"log/slog"
	"time"
)

// Option configures the Transport.
type Option func(*config)

type config struct {
	Host                  string
	Port                  int
	ClientName            string
	MaxPayload            int
	ConnectTimeout        time.Duration
	ConnectFlushTimeout   time.Duration
	ReconnectWaitMin      time.Duration
	DrainTimeout          time.Duration
	ServerReadyTimeout    time.Duration
	ServerShutdownMaxWait time.Duration

	log *slog.Logger
}

func defaultConfig() config {
	return config{
		Host:                  "127.0.0.1",
		Port:                  -1, // dynamic
		ClientName:            "go-bridge",
		MaxPayload:            1 << 20,
		ConnectTimeout:        5 * time.Second,
		ConnectFlushTimeout:   5 * time.Second,
		ReconnectWaitMin:      250 * time.Millisecond,
		DrainTimeout:          10 * time.Second,
		ServerReadyTimeout:    10 * time.Second,
		ServerShutdownMaxWait: 10 * time.Second,
	}
}

// WithHost sets the listen host for the embedded server (default 127.0.0.1).
func WithHost(h string) Option { return func(c *config) { c.Host = h } }

// WithPort sets the server port. The default picks a dynamic free port.
func WithPort(p int) Option { return func(c *config) { c.Port = p } }

// WithClientName sets the client connection name.
func WithClientName(name string) Option { return func(c *config) { c.ClientName = name } }

// WithMaxPayload sets the server max payload size (bytes).
func WithMaxPayload(bytes int) Option { return func(c *config) { c.MaxPayload = bytes } }

// WithConnectTimeout sets the client connect timeout.
func WithConnectTimeout(d time.Duration) Option { return func(c *config) { c.ConnectTimeout = d } }

// WithDrainTimeout sets how long Close waits for client drain before hard-close.
func WithDrainTimeout(d time.Duration) Option {
	return func(c *config) {
		c.DrainTimeout = d
		c.ServerShutdownMaxWait = d
	}
}

// WithServerReadyTimeout sets how long to wait for the embedded server to be ready.
func WithServerReadyTimeout(d time.Duration) Option {
	return func(c *config) { c.ServerReadyTimeout = d }
}

// WithLogger injects a slog logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.log = l } }
