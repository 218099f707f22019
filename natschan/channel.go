package natschan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/message"
)

// Channel is a push channel bound to a NATS subject. Send publishes;
// subscribed handlers are driven by the broker's deliveries, serially
// per subscription and in publish order.
type Channel struct {
	t       *Transport
	subject string

	mu   sync.Mutex
	subs map[channelKey]*nats.Subscription
}

// Handlers are registered by identity; the bridge always registers
// pointer-typed handlers, which compare cleanly.
type channelKey = channel.Handler

// Subject returns the subject the channel is bound to.
func (c *Channel) Subject() string { return c.subject }

// Send publishes msg to the channel's subject. ID, timestamp and
// headers travel as NATS headers.
func (c *Channel) Send(ctx context.Context, msg *message.Message) error {
	nc, err := c.t.conn(ctx)
	if err != nil {
		return channel.ErrChannelClosed
	}

	nm := nats.NewMsg(c.subject)
	nm.Data = msg.Data
	for k, v := range msg.Headers {
		nm.Header.Set(k, v)
	}
	if msg.ID != "" {
		nm.Header.Set(string(message.HeaderMessageID), msg.ID)
	}
	if !msg.Time.IsZero() {
		nm.Header.Set(string(message.HeaderTimestamp), msg.Time.Format(time.RFC3339Nano))
	}

	if err := nc.PublishMsg(nm); err != nil {
		return fmt.Errorf("publish %q: %w", c.subject, err)
	}
	return nil
}

// Subscribe registers a handler driven by a broker subscription.
func (c *Channel) Subscribe(h channel.Handler) error {
	if h == nil {
		return channel.ErrNoSubscribers
	}
	nc, err := c.t.conn(context.Background())
	if err != nil {
		return channel.ErrChannelClosed
	}

	cb := func(m *nats.Msg) {
		msg := decode(m)
		defer func() {
			if r := recover(); r != nil {
				c.t.log.Error("channel handler panic recovered", "panic", r, "subject", c.subject)
			}
		}()
		if err := h.Handle(context.Background(), msg); err != nil {
			c.t.log.Debug("channel handler rejected message", "subject", c.subject, "err", err)
		}
	}

	ns, err := nc.Subscribe(c.subject, cb)
	if err != nil {
		return fmt.Errorf("subscribe %q: %w", c.subject, err)
	}
	if err := nc.FlushTimeout(c.t.cfg.ConnectFlushTimeout); err != nil {
		_ = ns.Unsubscribe()
		return fmt.Errorf("subscribe flush %q: %w", c.subject, err)
	}

	c.mu.Lock()
	c.subs[h] = ns
	c.mu.Unlock()
	return nil
}

// Unsubscribe removes a previously subscribed handler.
func (c *Channel) Unsubscribe(h channel.Handler) bool {
	c.mu.Lock()
	ns, ok := c.subs[h]
	delete(c.subs, h)
	c.mu.Unlock()
	if !ok {
		return false
	}
	_ = ns.Unsubscribe()
	return true
}

// Done is closed when the owning transport closes.
func (c *Channel) Done() <-chan struct{} { return c.t.Done() }

// decode rebuilds a message from a broker delivery.
func decode(m *nats.Msg) *message.Message {
	msg := &message.Message{
		Data:    m.Data,
		Headers: message.NewHeaders(),
		Time:    time.Now(),
	}
	for k, vv := range m.Header {
		if len(vv) > 0 {
			msg.Headers[k] = vv[0]
		}
	}
	msg.ID = msg.Headers.MessageID()
	if ts := msg.Headers.Timestamp(); !ts.IsZero() {
		msg.Time = ts
	}
	return msg
}
