package shared

import "context"

// EventHandler handles committed domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants; empty means all
	EventTypes() []string
}

// EventPublisher delivers committed domain events to their handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
