package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by Event.Type(), or to every type with SubscribeAll. Delivery is synchronous:
// Publish runs the handlers in the caller goroutine, in subscription order, and joins their errors.
// Handlers must not publish on the same bus from inside delivery if they also hold locks the
// publisher needs. Observers see every publish and are the only source of metrics.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type() and to wildcard subscribers.
	Publish(event Event) error
	// PublishBatch publishes events in order and joins the errors across them.
	PublishBatch(events ...Event) error

	// Subscribe registers a handler for one event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeAll registers a handler receiving every event.
	SubscribeAll(handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is ignored.
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns counters accumulated while at least one observer was registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Metadata() map[string]any
}

// EventHandler is invoked once per delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	// EventType is empty for wildcard subscriptions.
	EventType() string
	IsActive() bool
	Cancel() error
}

// EventBusObserver is notified about deliveries. Implementations should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
}
