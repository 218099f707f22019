package reactive

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/message"
)

// AdapterOption configures a channel publisher.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	bufferSize int
	log        *slog.Logger
}

func defaultAdapterConfig() adapterConfig {
	return adapterConfig{bufferSize: 1024}
}

// WithBufferSize sets the adapter's internal buffer capacity. While the
// buffer is full, sends into the source channel block.
func WithBufferSize(n int) AdapterOption {
	return func(c *adapterConfig) { c.bufferSize = n }
}

// WithLogger injects a slog logger.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(c *adapterConfig) { c.log = l }
}

// FromChannel adapts a push channel into a Publisher. Each Subscribe
// registers a handler on the channel; sent messages are buffered and
// delivered to the subscriber in arrival order, only while the
// subscriber has outstanding demand. If the channel reports a terminal
// state (channel.Terminator), the subscriber is completed once the
// buffer drains.
func FromChannel(ch channel.SubscribableChannel, opts ...AdapterOption) Publisher {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bufferSize <= 0 {
		cfg.bufferSize = 1024
	}
	if cfg.log == nil {
		cfg.log = slog.Default()
	}
	return &channelPublisher{ch: ch, cfg: cfg}
}

type channelPublisher struct {
	ch  channel.SubscribableChannel
	cfg adapterConfig
}

func (p *channelPublisher) Subscribe(s Subscriber) {
	var done <-chan struct{}
	if t, ok := p.ch.(channel.Terminator); ok {
		done = t.Done()
	}

	sub := &channelSubscription{
		ch:     p.ch,
		queue:  make(chan *message.Message, p.cfg.bufferSize),
		cancel: make(chan struct{}),
		done:   done,
	}
	sub.cond = sync.NewCond(&sub.mu)
	sub.handler = &pushHandler{sub: sub}

	if err := p.ch.Subscribe(sub.handler); err != nil {
		p.cfg.log.Warn("channel subscribe failed", "err", err)
		s.OnError(err)
		return
	}

	s.OnSubscribe(sub)
	go sub.pump(s)
}

// pushHandler receives the channel's push deliveries. It is a named
// type (not a HandlerFunc) so Unsubscribe can match it by identity.
type pushHandler struct {
	sub *channelSubscription
}

func (h *pushHandler) Handle(ctx context.Context, msg *message.Message) error {
	return h.sub.push(ctx, msg)
}

type channelSubscription struct {
	ch      channel.SubscribableChannel
	handler *pushHandler
	queue   chan *message.Message
	cancel  chan struct{}
	done    <-chan struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	demand    int64
	cancelled bool

	cancelOnce sync.Once
}

// push enqueues a message pushed into the source channel, blocking
// while the buffer is full. The block is what surfaces the adapter's
// backpressure to the channel's sender.
func (s *channelSubscription) push(ctx context.Context, msg *message.Message) error {
	select {
	case <-s.cancel:
		return ErrCancelled
	default:
	}
	select {
	case s.queue <- msg:
		return nil
	case <-s.cancel:
		return ErrCancelled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *channelSubscription) Request(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	if s.demand > math.MaxInt64-n {
		s.demand = math.MaxInt64
	} else {
		s.demand += n
	}
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *channelSubscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
		close(s.cancel)
		s.cond.Broadcast()
		s.ch.Unsubscribe(s.handler)
	})
}

// awaitDemand blocks until there is outstanding demand, returning
// false once the subscription is cancelled.
func (s *channelSubscription) awaitDemand() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.demand == 0 && !s.cancelled {
		s.cond.Wait()
	}
	return !s.cancelled
}

// consumed decrements outstanding demand. Unbounded demand stays
// unbounded.
func (s *channelSubscription) consumed() {
	s.mu.Lock()
	if s.demand != math.MaxInt64 && s.demand > 0 {
		s.demand--
	}
	s.mu.Unlock()
}

// pump delivers buffered messages serially, in arrival order, one per
// unit of demand. It exits on cancellation or, after the source
// channel terminates and the buffer drains, with OnComplete.
func (s *channelSubscription) pump(sub Subscriber) {
	for {
		if !s.awaitDemand() {
			return
		}
		select {
		case <-s.cancel:
			return
		case msg := <-s.queue:
			sub.OnNext(msg)
			s.consumed()
		case <-s.done:
			s.drain(sub)
			return
		}
	}
}

// drain flushes messages buffered before the source channel closed,
// then completes the subscriber.
func (s *channelSubscription) drain(sub Subscriber) {
	for {
		select {
		case <-s.cancel:
			return
		case msg := <-s.queue:
			sub.OnNext(msg)
			s.consumed()
			if !s.awaitDemand() {
				return
			}
		default:
			sub.OnComplete()
			return
		}
	}
}
