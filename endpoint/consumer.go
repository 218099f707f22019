package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/message"
	"github.com/a2y-d5l/go-bridge/reactive"
)

// Consumer subscribes a handler onto the message stream of a push
// channel. Its mode is fixed at construction: either a reactive
// subscriber consumes the stream one message at a time, or a
// ReactiveHandler processes messages concurrently through completion
// signals. Start establishes the subscription, Stop disposes it; the
// consumer never holds two live subscriptions at once.
type Consumer struct {
	input     channel.SubscribableChannel
	publisher reactive.Publisher
	log       *slog.Logger
	policy    ErrorPolicy
	delegate  Lifecycle

	// exactly one of these is set, selecting the mode
	subscriber      reactive.Subscriber
	reactiveHandler ReactiveHandler

	handler Handler // introspection only

	mu           sync.Mutex
	running      atomic.Bool
	subscription reactive.Subscription
}

// NewConsumer wraps a synchronous handler in a HandlerSubscriber and
// subscribes it to the channel's stream on Start. An optional lifecycle
// attached with WithLifecycle is forwarded through the wrapper.
func NewConsumer(input channel.SubscribableChannel, handler Handler, opts ...Option) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var subOpts []SubscriberOption
	if cfg.lifecycle != nil {
		subOpts = append(subOpts, WithSubscriberLifecycle(cfg.lifecycle))
	}
	if cfg.upstreamErrors {
		subOpts = append(subOpts, WithUpstreamErrors())
	}
	hs, err := NewHandlerSubscriber(handler, subOpts...)
	if err != nil {
		return nil, err
	}

	c, err := newConsumer(input, cfg)
	if err != nil {
		return nil, err
	}
	c.subscriber = hs
	c.handler = handler
	c.delegate = hs
	return c, nil
}

// NewSubscriberConsumer subscribes an existing reactive subscriber to
// the channel's stream on Start. If the subscriber is a
// *HandlerSubscriber, its inner handler is exposed through Handler().
func NewSubscriberConsumer(input channel.SubscribableChannel, sub reactive.Subscriber, opts ...Option) (*Consumer, error) {
	if sub == nil {
		return nil, ErrNilSubscriber
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := newConsumer(input, cfg)
	if err != nil {
		return nil, err
	}
	c.subscriber = sub
	c.delegate = cfg.lifecycle
	if hs, ok := sub.(*HandlerSubscriber); ok {
		c.handler = hs.Handler()
		if cfg.upstreamErrors {
			hs.reportUpstream = true
		}
		if c.delegate == nil {
			c.delegate = hs
		}
	} else {
		c.handler = HandlerFunc(func(_ context.Context, msg *message.Message) error {
			sub.OnNext(msg)
			return nil
		})
	}
	return c, nil
}

// NewReactiveConsumer subscribes a completion-signal handler to the
// channel's stream on Start. Messages are processed concurrently; a
// failed completion is reported to the error policy and does not stop
// the stream.
func NewReactiveConsumer(input channel.SubscribableChannel, handler ReactiveHandler, opts ...Option) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := newConsumer(input, cfg)
	if err != nil {
		return nil, err
	}
	c.reactiveHandler = handler
	c.handler = &ReactiveHandlerAdapter{handler: handler}
	c.delegate = cfg.lifecycle
	return c, nil
}

func newConsumer(input channel.SubscribableChannel, cfg config) (*Consumer, error) {
	if input == nil {
		return nil, ErrNilChannel
	}
	log := cfg.log
	if log == nil {
		log = slog.Default()
	}
	if _, ok := input.(*channel.NullChannel); ok {
		log.Warn("consuming from a null channel has no effect: " +
			"it does not forward messages sent to it")
	}

	return &Consumer{
		input: input,
		publisher: reactive.FromChannel(input,
			reactive.WithBufferSize(cfg.bufferSize),
			reactive.WithLogger(log)),
		log:    log,
		policy: cfg.policy,
	}, nil
}

// Start establishes the subscription. It starts the lifecycle delegate
// first, then subscribes per the consumer's mode. Starting a running
// consumer is a no-op.
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running.Load() {
		return nil
	}
	if c.policy == nil {
		c.policy = defaultErrorPolicy(c.log)
	}
	if hs, ok := c.subscriber.(*HandlerSubscriber); ok {
		hs.ensurePolicy(c.policy)
	}

	if c.delegate != nil {
		if err := c.delegate.Start(); err != nil {
			return fmt.Errorf("start delegate: %w", err)
		}
	}

	var subscribeErr error
	if c.reactiveHandler != nil {
		bridge := &reactiveBridge{c: c, handler: c.reactiveHandler}
		c.publisher.Subscribe(bridge)
		subscribeErr = bridge.subscribeErr
	} else {
		fw := &forwardingSubscriber{c: c, inner: c.subscriber}
		c.publisher.Subscribe(fw)
		subscribeErr = fw.subscribeErr
	}
	if subscribeErr != nil {
		if c.delegate != nil {
			_ = c.delegate.Stop()
		}
		return fmt.Errorf("subscribe input channel: %w", subscribeErr)
	}

	c.running.Store(true)
	return nil
}

// Stop disposes the subscription, then stops the lifecycle delegate.
// Disposing first keeps new messages out of a delegate that is shutting
// down. Stopping a stopped consumer is a no-op.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running.Load() {
		return nil
	}

	if c.subscription != nil {
		c.subscription.Cancel()
		c.subscription = nil
	}

	var err error
	if c.delegate != nil {
		if stopErr := c.delegate.Stop(); stopErr != nil {
			err = fmt.Errorf("stop delegate: %w", stopErr)
		}
	}

	c.running.Store(false)
	return err
}

// IsRunning reports whether the consumer holds a live subscription.
func (c *Consumer) IsRunning() bool {
	return c.running.Load()
}

// InputChannel returns the channel the consumer reads from.
func (c *Consumer) InputChannel() channel.SubscribableChannel {
	return c.input
}

// Handler returns the selected handler, for introspection by owning
// infrastructure.
func (c *Consumer) Handler() Handler {
	return c.handler
}

// OutputChannel returns the downstream channel the handler forwards to,
// if it is identifiable, else nil.
func (c *Consumer) OutputChannel() channel.MessageChannel {
	for _, h := range []any{c.handler, c.reactiveHandler, c.subscriber} {
		switch v := h.(type) {
		case *ReactiveHandlerAdapter:
			// unwrap; the adapted handler may identify an output
			if out := outputChannelOf(v.handler); out != nil {
				return out
			}
		default:
			if out := outputChannelOf(h); out != nil {
				return out
			}
		}
	}
	return nil
}

func outputChannelOf(v any) channel.MessageChannel {
	switch h := v.(type) {
	case Producer:
		return h.OutputChannel()
	case Router:
		return h.DefaultOutputChannel()
	default:
		return nil
	}
}

// setSubscription records the live subscription handle. It runs on the
// Start goroutine, which already holds c.mu.
func (c *Consumer) setSubscription(s reactive.Subscription) {
	c.subscription = s
}

// forwardingSubscriber hooks the consumer into a subscriber-mode
// subscription: it captures the subscription handle, funnels OnNext
// panics into the error policy, and forwards the stream signals to the
// wrapped subscriber.
type forwardingSubscriber struct {
	c            *Consumer
	inner        reactive.Subscriber
	subscribed   bool
	subscribeErr error
}

func (f *forwardingSubscriber) OnSubscribe(s reactive.Subscription) {
	f.subscribed = true
	f.c.setSubscription(s)
	f.inner.OnSubscribe(s)
}

func (f *forwardingSubscriber) OnNext(msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			f.c.policy(recoveredError(r))
		}
	}()
	f.inner.OnNext(msg)
}

func (f *forwardingSubscriber) OnError(err error) {
	if !f.subscribed {
		f.subscribeErr = err
		return
	}
	f.inner.OnError(err)
}

func (f *forwardingSubscriber) OnComplete() {
	f.inner.OnComplete()
}

// reactiveBridge drives a ReactiveHandler from the subscription:
// every message is mapped to its completion signal and awaited on its
// own goroutine. Failed completions are reported to the error policy;
// the stream itself keeps going. Completion order across in-flight
// messages is not preserved.
type reactiveBridge struct {
	c            *Consumer
	handler      ReactiveHandler
	subscribed   bool
	subscribeErr error
}

func (b *reactiveBridge) OnSubscribe(s reactive.Subscription) {
	b.subscribed = true
	b.c.setSubscription(s)
	s.Request(math.MaxInt64)
}

func (b *reactiveBridge) OnNext(msg *message.Message) {
	go b.await(msg)
}

func (b *reactiveBridge) await(msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.c.policy(recoveredError(r))
		}
	}()
	if err, ok := <-b.handler.HandleMessage(context.Background(), msg); ok && err != nil {
		b.c.policy(err)
	}
}

func (b *reactiveBridge) OnError(err error) {
	if !b.subscribed {
		b.subscribeErr = err
		return
	}
	b.c.policy(err)
}

func (b *reactiveBridge) OnComplete() {}

// ReactiveHandlerAdapter exposes a ReactiveHandler as a synchronous
// Handler by awaiting each message's completion signal.
type ReactiveHandlerAdapter struct {
	handler ReactiveHandler
}

// NewReactiveHandlerAdapter wraps handler.
func NewReactiveHandlerAdapter(handler ReactiveHandler) (*ReactiveHandlerAdapter, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	return &ReactiveHandlerAdapter{handler: handler}, nil
}

// Handle blocks until the message's completion signal resolves.
func (a *ReactiveHandlerAdapter) Handle(ctx context.Context, msg *message.Message) error {
	if err, ok := <-a.handler.HandleMessage(ctx, msg); ok {
		return err
	}
	return nil
}
