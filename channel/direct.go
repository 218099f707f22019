package channel

import (
	"context"
	"sync"

	"github.com/a2y-d5l/go-bridge/message"
)

// DirectChannel is a point-to-point push channel. Send invokes exactly
// one subscribed handler on the caller's goroutine and returns its
// result; with several handlers subscribed, delivery is round-robin.
type DirectChannel struct {
	mu       sync.RWMutex
	handlers []Handler
	next     int
	closed   bool
	done     chan struct{}
}

// NewDirect creates an open DirectChannel with no subscribers.
func NewDirect() *DirectChannel {
	return &DirectChannel{done: make(chan struct{})}
}

// Send delivers msg to the next handler in round-robin order. It blocks
// until that handler returns and propagates the handler's error.
func (c *DirectChannel) Send(ctx context.Context, msg *message.Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if len(c.handlers) == 0 {
		c.mu.Unlock()
		return ErrNoSubscribers
	}
	h := c.handlers[c.next%len(c.handlers)]
	c.next++
	c.mu.Unlock()

	return h.Handle(ctx, msg)
}

// Subscribe registers a handler for push delivery.
func (c *DirectChannel) Subscribe(h Handler) error {
	if h == nil {
		return ErrNoSubscribers
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	c.handlers = append(c.handlers, h)
	return nil
}

// Unsubscribe removes a previously subscribed handler. It reports
// whether the handler was found.
func (c *DirectChannel) Unsubscribe(h Handler) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, reg := range c.handlers {
		if reg == h {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Close marks the channel terminal. Further sends fail with
// ErrChannelClosed. Close is idempotent.
func (c *DirectChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

// Done is closed once the channel is terminal.
func (c *DirectChannel) Done() <-chan struct{} {
	return c.done
}

// SubscriberCount returns the number of subscribed handlers.
func (c *DirectChannel) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}
