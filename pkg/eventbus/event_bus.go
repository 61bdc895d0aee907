// Package eventbus provides the publish/subscribe transport used to
// coordinate workflow runs across API and worker processes.
package eventbus

import (
	"context"

	"github.com/troupe-dev/troupe/pkg/events"
)

// Event is anything that can travel over the bus.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes a single decoded event.
type EventHandler func(ctx context.Context, event interface{}) error

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers a handler for an event type. Handlers must be
	// registered before Subscribe starts consuming.
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
