// Package bridge adapts push-style message channels into demand-driven
// subscriptions and back.
//
// The module is organized into focused subpackages:
//
//   - github.com/a2y-d5l/go-bridge/message  - Message type and headers
//   - github.com/a2y-d5l/go-bridge/channel  - Push channel contracts and in-process channels
//   - github.com/a2y-d5l/go-bridge/reactive - Publisher/Subscriber contracts and the channel adapter
//   - github.com/a2y-d5l/go-bridge/endpoint - Consumer endpoints and handler wrappers
//   - github.com/a2y-d5l/go-bridge/natschan - Channels backed by an embedded NATS server
//
// The root package re-exports the main types.
//
// Example usage:
//
//	ch := channel.NewDirect()
//	consumer, err := endpoint.NewConsumer(ch,
//		endpoint.HandlerFunc(func(ctx context.Context, msg *message.Message) error {
//			log.Printf("received: %s", msg.Data)
//			return nil
//		}))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := consumer.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer consumer.Stop()
//
//	_ = ch.Send(ctx, message.New([]byte(`{"user_id": "123"}`)))
package bridge
