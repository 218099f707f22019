// Package channel provides push-style, in-process message channels.
//
// A channel delivers by direct invocation: Send hands the message to a
// subscribed handler and blocks until the handler returns. The reactive
// package adapts these channels into demand-driven publishers.
package channel

import (
	"context"
	"errors"

	"github.com/a2y-d5l/go-bridge/message"
)

var (
	// ErrChannelClosed indicates the channel was closed and accepts no more sends.
	ErrChannelClosed = errors.New("channel is closed")
	// ErrNoSubscribers indicates a send found no handler to deliver to.
	ErrNoSubscribers = errors.New("channel has no subscribers")
)

// MessageChannel accepts messages pushed by upstream producers.
type MessageChannel interface {
	Send(ctx context.Context, msg *message.Message) error
}

// Handler processes one message at a time. A non-nil error reports a
// failure for that message only.
type Handler interface {
	Handle(ctx context.Context, msg *message.Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *message.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *message.Message) error { return f(ctx, msg) }

// SubscribableChannel is a push channel that delivers each sent message
// to a subscribed handler at send time.
type SubscribableChannel interface {
	MessageChannel
	Subscribe(h Handler) error
	Unsubscribe(h Handler) bool
}

// Terminator is implemented by channels that can reach a terminal state.
// Done is closed once the channel will never deliver again.
type Terminator interface {
	Done() <-chan struct{}
}
