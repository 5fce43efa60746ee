package bus

import "time"

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// EventBus defines a thread-safe, in-process pub/sub event bus.
//
// Key characteristics:
//   - Type-based fan-out: handlers subscribe by Event.Type() string, or to Wildcard.
//   - Synchronous delivery: Publish calls handler callbacks in the caller goroutine,
//     in subscription order.
//   - Error aggregation: multiple handler errors are joined and returned from Publish.
//
// Handlers run inside the publisher's call (for trees: inside Tick), so they
// should be quick and must not tick the publishing tree.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of
	// event.Type() and to wildcard subscribers.
	Publish(event Event) error
	// Subscribe registers a handler for a specific event type (or Wildcard).
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error
	// PublishAsync publishes in a separate goroutine and returns a channel that
	// receives the joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error
	// Subscribers returns the number of active subscriptions.
	Subscribers() int
}

// Event is an immutable message transported by the EventBus.
//
// Implementations should treat Event values as read-only.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is a user callback invoked per delivered event. If it
	// returns an error, Publish aggregates and returns it.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	// ID is a unique identifier for this subscription.
	ID() string
	// EventType returns the event type this subscription listens to.
	EventType() string
	// IsActive reports whether this subscription is still registered.
	IsActive() bool
	// Cancel de-registers the handler from the bus. Multiple calls are safe.
	Cancel() error
}
