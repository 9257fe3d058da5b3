package shared

// BaseAggregateRoot carries the identity, optimistic-lock version and
// pending events of an aggregate. Events are published by the application
// layer after the transaction that produced them commits.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// IncrementVersion bumps the version after a successful optimistic update
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for publication
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queued events once they were published
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
