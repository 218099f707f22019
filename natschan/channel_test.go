package natschan_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/endpoint"
	"github.com/a2y-d5l/go-bridge/message"
	"github.com/a2y-d5l/go-bridge/natschan"
)

func newTestTransport(t *testing.T) *natschan.Transport {
	t.Helper()
	tr, err := natschan.New(context.Background(),
		natschan.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close(context.Background()) })
	return tr
}

type collectingHandler struct {
	mu   sync.Mutex
	msgs []*message.Message
}

func (h *collectingHandler) Handle(_ context.Context, msg *message.Message) error {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
	return nil
}

func (h *collectingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.msgs)
}

func (h *collectingHandler) first() *message.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.msgs) == 0 {
		return nil
	}
	return h.msgs[0]
}

func TestChannel_RoundTrip(t *testing.T) {
	tr := newTestTransport(t)

	ch, err := tr.Channel("bridge.test.roundtrip")
	require.NoError(t, err)

	h := &collectingHandler{}
	require.NoError(t, ch.Subscribe(h))

	msg := message.New([]byte(`{"user_id":"123"}`))
	msg.Headers.SetCorrelationID("corr-42")
	require.NoError(t, ch.Send(context.Background(), msg))

	require.Eventually(t, func() bool { return h.count() == 1 }, 5*time.Second, 10*time.Millisecond)

	got := h.first()
	assert.Equal(t, msg.ID, got.ID, "message ID survives the broker hop")
	assert.Equal(t, []byte(`{"user_id":"123"}`), got.Data)
	assert.Equal(t, "corr-42", got.Headers.CorrelationID())
	assert.WithinDuration(t, msg.Time, got.Time, time.Second)
}

func TestChannel_Unsubscribe(t *testing.T) {
	tr := newTestTransport(t)

	ch, err := tr.Channel("bridge.test.unsub")
	require.NoError(t, err)

	h := &collectingHandler{}
	require.NoError(t, ch.Subscribe(h))
	assert.True(t, ch.Unsubscribe(h))
	assert.False(t, ch.Unsubscribe(h))

	require.NoError(t, ch.Send(context.Background(), message.New([]byte("x"))))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, h.count())
}

func TestChannel_ConsumerEndToEnd(t *testing.T) {
	tr := newTestTransport(t)

	ch, err := tr.Channel("bridge.test.endpoint")
	require.NoError(t, err)

	h := &collectingHandler{}
	c, err := endpoint.NewConsumer(ch, h)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	defer c.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, ch.Send(context.Background(), message.New([]byte("payload"))))
	}

	require.Eventually(t, func() bool { return h.count() == 5 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop())
	assert.False(t, c.IsRunning())
}

func TestTransport_CloseIsTerminal(t *testing.T) {
	tr, err := natschan.New(context.Background(),
		natschan.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	ch, err := tr.Channel("bridge.test.close")
	require.NoError(t, err)

	require.NoError(t, tr.Close(context.Background()))
	assert.ErrorIs(t, tr.Close(context.Background()), natschan.ErrTransportClosed)

	select {
	case <-ch.Done():
	default:
		t.Fatal("channel Done must close with the transport")
	}

	assert.ErrorIs(t, ch.Send(context.Background(), message.New(nil)), channel.ErrChannelClosed)
	assert.ErrorIs(t, ch.Subscribe(&collectingHandler{}), channel.ErrChannelClosed)

	_, err = tr.Channel("bridge.test.after-close")
	assert.ErrorIs(t, err, natschan.ErrTransportUnhealthy)
}

func TestTransport_Healthy(t *testing.T) {
	tr := newTestTransport(t)
	assert.NoError(t, tr.Healthy(context.Background()))
}

var _ channel.SubscribableChannel = (*natschan.Channel)(nil)
var _ channel.Terminator = (*natschan.Channel)(nil)
