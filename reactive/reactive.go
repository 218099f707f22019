// Package reactive defines a minimal reactive-streams contract over
// messages and adapts push channels into demand-driven publishers.
package reactive

import (
	"errors"

	"github.com/a2y-d5l/go-bridge/message"
)

// ErrCancelled indicates delivery was refused because the subscription
// was cancelled.
var ErrCancelled = errors.New("subscription cancelled")

// Publisher is a provider of a sequence of messages, delivering them
// according to the demand signaled by its Subscriber.
type Publisher interface {
	Subscribe(s Subscriber)
}

// Subscriber receives a call to OnSubscribe once, then zero or more
// OnNext calls, terminated by at most one of OnError or OnComplete.
type Subscriber interface {
	OnSubscribe(s Subscription)
	OnNext(msg *message.Message)
	OnError(err error)
	OnComplete()
}

// Subscription represents the one-to-one lifecycle of a Subscriber
// subscribed to a Publisher.
type Subscription interface {
	// Request authorizes the publisher to deliver up to n more
	// messages. Requesting math.MaxInt64 pins demand unbounded.
	Request(n int64)
	// Cancel stops delivery. It is idempotent and safe to call from
	// any goroutine.
	Cancel()
}
