package endpoint

import (
	"context"
	"math"
	"sync"

	"github.com/a2y-d5l/go-bridge/message"
	"github.com/a2y-d5l/go-bridge/reactive"
)

// SubscriberOption configures a HandlerSubscriber.
type SubscriberOption func(*HandlerSubscriber)

// WithSubscriberErrorPolicy routes per-message failures to policy.
func WithSubscriberErrorPolicy(policy ErrorPolicy) SubscriberOption {
	return func(s *HandlerSubscriber) { s.policy = policy }
}

// WithSubscriberLifecycle attaches the start/stop pair the subscriber
// forwards its own lifecycle calls to.
func WithSubscriberLifecycle(lc Lifecycle) SubscriberOption {
	return func(s *HandlerSubscriber) { s.lifecycle = lc }
}

// WithUpstreamErrors routes upstream terminal failures to the error
// policy instead of dropping them. The drop is the historical default:
// the producer side has usually reported the failure already.
func WithUpstreamErrors() SubscriberOption {
	return func(s *HandlerSubscriber) { s.reportUpstream = true }
}

// HandlerSubscriber lets a synchronous one-message-at-a-time Handler
// consume a demand-driven stream as if it were still being pushed
// messages. It requests unbounded demand once at subscribe time,
// forwards each message to the handler, isolates per-message failures
// through the error policy, and cancels the upstream sequence when it
// completes.
type HandlerSubscriber struct {
	handler        Handler
	policy         ErrorPolicy
	lifecycle      Lifecycle
	reportUpstream bool

	mu           sync.Mutex
	subscription reactive.Subscription
}

// NewHandlerSubscriber wraps handler as a reactive subscriber.
func NewHandlerSubscriber(handler Handler, opts ...SubscriberOption) (*HandlerSubscriber, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &HandlerSubscriber{handler: handler}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the wrapped handler.
func (s *HandlerSubscriber) Handler() Handler { return s.handler }

// ensurePolicy installs policy unless one was set explicitly.
func (s *HandlerSubscriber) ensurePolicy(policy ErrorPolicy) {
	if s.policy == nil {
		s.policy = policy
	}
}

func (s *HandlerSubscriber) report(err error) {
	if s.policy != nil {
		s.policy(err)
	}
}

// OnSubscribe stores the subscription and requests unbounded demand.
// The subscriber applies no throttling of its own.
func (s *HandlerSubscriber) OnSubscribe(sub reactive.Subscription) {
	s.mu.Lock()
	s.subscription = sub
	s.mu.Unlock()
	sub.Request(math.MaxInt64)
}

// OnNext invokes the handler synchronously. A returned error or a
// recovered panic goes to the error policy; consumption continues.
func (s *HandlerSubscriber) OnNext(msg *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			s.report(recoveredError(r))
		}
	}()
	if err := s.handler.Handle(context.Background(), msg); err != nil {
		s.report(err)
	}
}

// OnError drops the upstream failure unless WithUpstreamErrors was set.
func (s *HandlerSubscriber) OnError(err error) {
	if s.reportUpstream {
		s.report(err)
	}
}

// OnComplete treats upstream completion as a request to stop consuming.
func (s *HandlerSubscriber) OnComplete() {
	s.Dispose()
}

// Dispose cancels the subscription and releases the stored reference.
// A second call is a no-op.
func (s *HandlerSubscriber) Dispose() {
	s.mu.Lock()
	sub := s.subscription
	s.subscription = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// IsDisposed reports whether the subscription reference is absent.
func (s *HandlerSubscriber) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscription == nil
}

// Start forwards to the attached lifecycle, if any.
func (s *HandlerSubscriber) Start() error {
	if s.lifecycle != nil {
		return s.lifecycle.Start()
	}
	return nil
}

// Stop forwards to the attached lifecycle, if any.
func (s *HandlerSubscriber) Stop() error {
	if s.lifecycle != nil {
		return s.lifecycle.Stop()
	}
	return nil
}

// IsRunning reports the attached lifecycle's state, or true when none
// is attached: the subscriber has no independent running state.
func (s *HandlerSubscriber) IsRunning() bool {
	if s.lifecycle != nil {
		return s.lifecycle.IsRunning()
	}
	return true
}
