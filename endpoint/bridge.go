package endpoint

import (
	"context"
	"fmt"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/message"
)

// BridgeHandler forwards every message it handles to an output channel,
// connecting two channels into one flow.
type BridgeHandler struct {
	output channel.MessageChannel
}

// NewBridgeHandler creates a handler forwarding to output.
func NewBridgeHandler(output channel.MessageChannel) (*BridgeHandler, error) {
	if output == nil {
		return nil, ErrNilChannel
	}
	return &BridgeHandler{output: output}, nil
}

// Handle sends msg to the output channel.
func (b *BridgeHandler) Handle(ctx context.Context, msg *message.Message) error {
	if err := b.output.Send(ctx, msg); err != nil {
		return fmt.Errorf("bridge to output channel: %w", err)
	}
	return nil
}

// OutputChannel returns the channel this handler forwards to.
func (b *BridgeHandler) OutputChannel() channel.MessageChannel {
	return b.output
}
