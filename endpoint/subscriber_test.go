package endpoint_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a2y-d5l/go-bridge/endpoint"
	"github.com/a2y-d5l/go-bridge/message"
	"github.com/a2y-d5l/go-bridge/reactive"
)

// fakeSubscription records demand and cancellation.
type fakeSubscription struct {
	requests []int64
	cancels  int32
}

func (f *fakeSubscription) Request(n int64) { f.requests = append(f.requests, n) }
func (f *fakeSubscription) Cancel()         { atomic.AddInt32(&f.cancels, 1) }

// capturePolicy collects every reported failure.
type capturePolicy struct {
	mu   sync.Mutex
	errs []error
}

func (p *capturePolicy) policy() endpoint.ErrorPolicy {
	return func(err error) {
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
	}
}

func (p *capturePolicy) errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]error, len(p.errs))
	copy(out, p.errs)
	return out
}

// fakeLifecycle counts start/stop calls.
type fakeLifecycle struct {
	starts  int32
	stops   int32
	running atomic.Bool
}

func (l *fakeLifecycle) Start() error {
	atomic.AddInt32(&l.starts, 1)
	l.running.Store(true)
	return nil
}

func (l *fakeLifecycle) Stop() error {
	atomic.AddInt32(&l.stops, 1)
	l.running.Store(false)
	return nil
}

func (l *fakeLifecycle) IsRunning() bool { return l.running.Load() }

func TestHandlerSubscriber_NilHandler(t *testing.T) {
	_, err := endpoint.NewHandlerSubscriber(nil)
	assert.ErrorIs(t, err, endpoint.ErrNilHandler)
}

func TestHandlerSubscriber_RequestsUnboundedDemandOnce(t *testing.T) {
	hs, err := endpoint.NewHandlerSubscriber(endpoint.HandlerFunc(
		func(context.Context, *message.Message) error { return nil }))
	require.NoError(t, err)

	sub := &fakeSubscription{}
	hs.OnSubscribe(sub)

	require.Len(t, sub.requests, 1)
	assert.Equal(t, int64(1<<63-1), sub.requests[0])
	assert.False(t, hs.IsDisposed())
}

func TestHandlerSubscriber_HandlerErrorGoesToPolicy(t *testing.T) {
	boom := errors.New("boom")
	var calls int32
	cap := &capturePolicy{}

	hs, err := endpoint.NewHandlerSubscriber(
		endpoint.HandlerFunc(func(_ context.Context, msg *message.Message) error {
			atomic.AddInt32(&calls, 1)
			if string(msg.Data) == "b" {
				return boom
			}
			return nil
		}),
		endpoint.WithSubscriberErrorPolicy(cap.policy()))
	require.NoError(t, err)

	hs.OnSubscribe(&fakeSubscription{})
	hs.OnNext(message.New([]byte("a")))
	hs.OnNext(message.New([]byte("b")))
	hs.OnNext(message.New([]byte("c")))

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "failure must not stop consumption")
	require.Len(t, cap.errors(), 1)
	assert.ErrorIs(t, cap.errors()[0], boom)
	assert.False(t, hs.IsDisposed(), "per-message failure must not cancel the subscription")
}

func TestHandlerSubscriber_PanicGoesToPolicy(t *testing.T) {
	cap := &capturePolicy{}
	hs, err := endpoint.NewHandlerSubscriber(
		endpoint.HandlerFunc(func(context.Context, *message.Message) error {
			panic("kaboom")
		}),
		endpoint.WithSubscriberErrorPolicy(cap.policy()))
	require.NoError(t, err)

	hs.OnSubscribe(&fakeSubscription{})
	hs.OnNext(message.New(nil))

	require.Len(t, cap.errors(), 1)
	assert.Contains(t, cap.errors()[0].Error(), "kaboom")
}

func TestHandlerSubscriber_CompleteDisposes(t *testing.T) {
	hs, err := endpoint.NewHandlerSubscriber(endpoint.HandlerFunc(
		func(context.Context, *message.Message) error { return nil }))
	require.NoError(t, err)

	sub := &fakeSubscription{}
	hs.OnSubscribe(sub)
	require.False(t, hs.IsDisposed())

	hs.OnComplete()
	assert.True(t, hs.IsDisposed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&sub.cancels))

	// second disposal is a no-op
	hs.Dispose()
	assert.Equal(t, int32(1), atomic.LoadInt32(&sub.cancels))
}

func TestHandlerSubscriber_UpstreamErrorDroppedByDefault(t *testing.T) {
	cap := &capturePolicy{}
	hs, err := endpoint.NewHandlerSubscriber(
		endpoint.HandlerFunc(func(context.Context, *message.Message) error { return nil }),
		endpoint.WithSubscriberErrorPolicy(cap.policy()))
	require.NoError(t, err)

	hs.OnError(errors.New("upstream failed"))
	assert.Empty(t, cap.errors())
}

func TestHandlerSubscriber_UpstreamErrorReportedWhenEnabled(t *testing.T) {
	cap := &capturePolicy{}
	hs, err := endpoint.NewHandlerSubscriber(
		endpoint.HandlerFunc(func(context.Context, *message.Message) error { return nil }),
		endpoint.WithSubscriberErrorPolicy(cap.policy()),
		endpoint.WithUpstreamErrors())
	require.NoError(t, err)

	hs.OnError(errors.New("upstream failed"))
	require.Len(t, cap.errors(), 1)
}

func TestHandlerSubscriber_LifecycleForwarding(t *testing.T) {
	lc := &fakeLifecycle{}
	hs, err := endpoint.NewHandlerSubscriber(
		endpoint.HandlerFunc(func(context.Context, *message.Message) error { return nil }),
		endpoint.WithSubscriberLifecycle(lc))
	require.NoError(t, err)

	assert.False(t, hs.IsRunning())
	require.NoError(t, hs.Start())
	assert.True(t, hs.IsRunning())
	assert.Equal(t, int32(1), atomic.LoadInt32(&lc.starts))

	require.NoError(t, hs.Stop())
	assert.False(t, hs.IsRunning())
	assert.Equal(t, int32(1), atomic.LoadInt32(&lc.stops))
}

func TestHandlerSubscriber_AlwaysRunningWithoutLifecycle(t *testing.T) {
	hs, err := endpoint.NewHandlerSubscriber(endpoint.HandlerFunc(
		func(context.Context, *message.Message) error { return nil }))
	require.NoError(t, err)

	assert.True(t, hs.IsRunning())
	assert.NoError(t, hs.Start())
	assert.NoError(t, hs.Stop())
	assert.True(t, hs.IsRunning())
}

var _ reactive.Subscriber = (*endpoint.HandlerSubscriber)(nil)
var _ endpoint.Lifecycle = (*endpoint.HandlerSubscriber)(nil)
