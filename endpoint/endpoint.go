// Package endpoint bridges push channels and pull subscriptions.
//
// A Consumer owns the subscription of a handler onto a channel's
// message stream: starting it establishes demand-driven consumption,
// stopping it disposes the subscription. Per-message handler failures
// are routed to an error policy and never terminate the stream.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/message"
)

var (
	// ErrNilChannel indicates a consumer was constructed without an input channel.
	ErrNilChannel = errors.New("input channel must not be nil")
	// ErrNilHandler indicates a consumer was constructed without a handler.
	ErrNilHandler = errors.New("handler must not be nil")
	// ErrNilSubscriber indicates a consumer was constructed without a subscriber.
	ErrNilSubscriber = errors.New("subscriber must not be nil")
)

// Handler processes one message synchronously. A non-nil error is a
// per-message failure, routed to the error policy.
type Handler = channel.Handler

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc = channel.HandlerFunc

// ReactiveHandler processes a message asynchronously. HandleMessage
// returns without blocking; the returned channel yields the terminal
// result of that one message (nil or no value means success) and is
// closed afterwards.
type ReactiveHandler interface {
	HandleMessage(ctx context.Context, msg *message.Message) <-chan error
}

// ReactiveHandlerFunc adapts a function to the ReactiveHandler interface.
type ReactiveHandlerFunc func(ctx context.Context, msg *message.Message) <-chan error

func (f ReactiveHandlerFunc) HandleMessage(ctx context.Context, msg *message.Message) <-chan error {
	return f(ctx, msg)
}

// ErrorPolicy reports a processing failure without propagating it as a
// fatal condition.
type ErrorPolicy func(err error)

// Lifecycle is the start/stop contract of a controllable component.
type Lifecycle interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// Producer is implemented by handlers that forward to a downstream
// channel.
type Producer interface {
	OutputChannel() channel.MessageChannel
}

// Router is implemented by handlers that route between several
// downstream channels, one of which is the default.
type Router interface {
	DefaultOutputChannel() channel.MessageChannel
}

// defaultErrorPolicy logs failures through the given logger.
func defaultErrorPolicy(log *slog.Logger) ErrorPolicy {
	return func(err error) {
		log.Error("message processing failed", "err", err)
	}
}

// recoveredError normalizes a recovered panic value into an error.
func recoveredError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("handler panic: %w", err)
	}
	return fmt.Errorf("handler panic: %v", r)
}
