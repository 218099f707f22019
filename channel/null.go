package channel

import (
	"context"
	"log/slog"

	"github.com/a2y-d5l/go-bridge/message"
)

// NullChannel is a terminal sink: it accepts every message and drops
// it. Nothing sent here is ever forwarded.
type NullChannel struct {
	log *slog.Logger
}

// NewNull creates a NullChannel. A nil logger falls back to slog.Default.
func NewNull(log *slog.Logger) *NullChannel {
	if log == nil {
		log = slog.Default()
	}
	return &NullChannel{log: log}
}

// Send drops the message.
func (c *NullChannel) Send(_ context.Context, msg *message.Message) error {
	c.log.Debug("message dropped by null channel", "message_id", msg.ID)
	return nil
}

// Subscribe accepts the handler and ignores it: a null channel never
// delivers anything.
func (c *NullChannel) Subscribe(Handler) error { return nil }

// Unsubscribe always reports false.
func (c *NullChannel) Unsubscribe(Handler) bool { return false }
