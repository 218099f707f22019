package bridge

// Re-export core types from subpackages.
import (
	"github.com/a2y-d5l/go-bridge/channel"
	"github.com/a2y-d5l/go-bridge/endpoint"
	"github.com/a2y-d5l/go-bridge/message"
	"github.com/a2y-d5l/go-bridge/reactive"
)

// Core types
type Message = message.Message
type Headers = message.Headers

// Channel types
type MessageChannel = channel.MessageChannel
type SubscribableChannel = channel.SubscribableChannel
type DirectChannel = channel.DirectChannel
type NullChannel = channel.NullChannel

// Handler types
type Handler = endpoint.Handler
type HandlerFunc = endpoint.HandlerFunc
type ReactiveHandler = endpoint.ReactiveHandler
type ReactiveHandlerFunc = endpoint.ReactiveHandlerFunc
type ErrorPolicy = endpoint.ErrorPolicy
type Lifecycle = endpoint.Lifecycle

// Endpoint types
type Consumer = endpoint.Consumer
type HandlerSubscriber = endpoint.HandlerSubscriber

// Reactive contracts
type Publisher = reactive.Publisher
type Subscriber = reactive.Subscriber
type Subscription = reactive.Subscription

// Constructors
var NewMessage = message.New
var NewDirectChannel = channel.NewDirect
var NewNullChannel = channel.NewNull
var NewConsumer = endpoint.NewConsumer
var NewSubscriberConsumer = endpoint.NewSubscriberConsumer
var NewReactiveConsumer = endpoint.NewReactiveConsumer
var NewHandlerSubscriber = endpoint.NewHandlerSubscriber
var FromChannel = reactive.FromChannel
