// Package natschan provides push channels backed by an embedded NATS
// server, so bridge endpoints can consume broker traffic through the
// same SubscribableChannel contract as in-process channels.
package natschan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	nserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-bridge/internal/embeddednats"
	"github.com/a2y-d5l/go-bridge/internal/syncx"
)

var (
	// ErrTransportClosed indicates the transport was already closed (or never started).
	ErrTransportClosed = errors.New("transport is closed")
	// ErrTransportUnhealthy indicates server or client is not ready/connected.
	ErrTransportUnhealthy = errors.New("transport is not healthy")
)

// Transport owns the embedded nats-server and the client connection
// its channels publish and subscribe through. It is safe for
// concurrent use.
type Transport struct {
	mu  sync.RWMutex
	cfg config
	log *slog.Logger

	srv *embeddednats.Server
	nc  *nats.Conn

	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}
}

// New starts an embedded NATS server, waits until it is ready, and
// connects a client. Defaults work for local use: loopback host,
// dynamic port.
func New(ctx context.Context, opts ...Option) (*Transport, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}

	sopts := &nserver.Options{
		Host:                  cfg.Host,
		Port:                  cfg.Port, // -1 => dynamic
		NoSigs:                true,     // embedded
		MaxPayload:            int32(cfg.MaxPayload),
		JetStream:             false,
		DisableShortFirstPing: true,
	}

	srv, err := embeddednats.New(sopts)
	if err != nil {
		return nil, err
	}
	srv.Start()

	readyCtx, cancel := context.WithTimeout(ctx, cfg.ServerReadyTimeout)
	defer cancel()
	if err := srv.Ready(readyCtx); err != nil {
		_ = srv.ShutdownAndWait(context.Background(), cfg.ServerShutdownMaxWait)
		return nil, fmt.Errorf("nats server not ready: %w", err)
	}

	copts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.Timeout(cfg.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1), // infinite
		nats.ReconnectWait(cfg.ReconnectWaitMin),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				cfg.log.Warn("nats disconnected", "err", err)
			} else {
				cfg.log.Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) { cfg.log.Info("reconnected", "url", nc.ConnectedUrl()) }),
		nats.ClosedHandler(func(_ *nats.Conn) { cfg.log.Info("connection closed") }),
	}

	nc, err := nats.Connect(srv.ClientURL(), copts...)
	if err != nil {
		_ = srv.ShutdownAndWait(context.Background(), cfg.ServerShutdownMaxWait)
		return nil, fmt.Errorf("nats client connect: %w", err)
	}
	if err := nc.FlushTimeout(cfg.ConnectFlushTimeout); err != nil {
		nc.Close()
		_ = srv.ShutdownAndWait(context.Background(), cfg.ServerShutdownMaxWait)
		return nil, fmt.Errorf("initial flush: %w", err)
	}

	t := &Transport{
		cfg:  cfg,
		log:  cfg.log,
		srv:  srv,
		nc:   nc,
		done: make(chan struct{}),
	}
	t.started.Store(true)

	cfg.log.Info("nats transport started", "host", cfg.Host, "port", srv.Port())

	return t, nil
}

// Healthy returns an error if the transport is not in a usable state.
func (t *Transport) Healthy(_ context.Context) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch {
	case !t.started.Load():
		return fmt.Errorf("%w: transport not started", ErrTransportUnhealthy)
	case t.closed.Load():
		return fmt.Errorf("%w: transport already closed", ErrTransportUnhealthy)
	case t.nc == nil:
		return fmt.Errorf("%w: client not initialized", ErrTransportUnhealthy)
	case t.srv == nil:
		return fmt.Errorf("%w: server not initialized", ErrTransportUnhealthy)
	case t.nc.Status() != nats.CONNECTED:
		return fmt.Errorf("%w: client not connected", ErrTransportUnhealthy)
	default:
		return nil
	}
}

// conn returns the live client connection, or an error once the
// transport is closed or unhealthy.
func (t *Transport) conn(ctx context.Context) (*nats.Conn, error) {
	if err := t.Healthy(ctx); err != nil {
		return nil, err
	}
	t.mu.RLock()
	nc := t.nc
	t.mu.RUnlock()
	if nc == nil {
		return nil, ErrTransportClosed
	}
	return nc, nil
}

// Channel returns a push channel bound to subject.
func (t *Transport) Channel(subject string) (*Channel, error) {
	if err := t.Healthy(context.Background()); err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, errors.New("subject must not be empty")
	}
	return &Channel{
		t:       t,
		subject: subject,
		subs:    make(map[channelKey]*nats.Subscription),
	}, nil
}

// Done is closed once the transport is closed; channels surface it as
// their terminal signal.
func (t *Transport) Done() <-chan struct{} { return t.done }

// Close drains the client and shuts down the server gracefully. It is
// safe to call more than once; later calls report ErrTransportClosed.
func (t *Transport) Close(ctx context.Context) error {
	if !t.started.Load() || !t.closed.CompareAndSwap(false, true) {
		return ErrTransportClosed
	}

	t.log.Info("closing nats transport...")
	close(t.done)

	t.mu.Lock()
	nc := t.nc
	srv := t.srv
	drainTO := t.cfg.DrainTimeout
	maxWait := t.cfg.ServerShutdownMaxWait
	t.mu.Unlock()

	var merr syncx.MultiError

	if nc != nil {
		done := make(chan error, 1)
		go func() { done <- nc.Drain() }()
		select {
		case err := <-done:
			if err != nil {
				merr.Add(fmt.Errorf("nats drain: %w", err))
			}
		case <-time.After(drainTO):
			merr.Add(fmt.Errorf("nats drain timeout after %s", drainTO))
			nc.Close()
		case <-ctx.Done():
			merr.Add(fmt.Errorf("nats drain canceled: %w", ctx.Err()))
			nc.Close()
		}
	}

	if srv != nil {
		if err := srv.ShutdownAndWait(ctx, maxWait); err != nil {
			merr.Add(err)
		}
	}

	t.mu.Lock()
	t.nc, t.srv = nil, nil
	t.mu.Unlock()

	if err := merr.ToError(); err != nil {
		return err
	}

	t.log.Info("nats transport closed.")

	return nil
}
