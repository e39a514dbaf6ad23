// Package events carries the in-process pub/sub plumbing the modules use to
// talk to each other without importing one another.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt is the moment the event was raised.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp field shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously; handler errors are logged, not
	// returned.
	Publish(ctx context.Context, event Event)

	// PublishSync waits for every handler and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an Event.EventName value.
	Subscribe(eventName string, handler Handler)
}
