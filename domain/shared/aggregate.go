package shared

// AggregateRoot is the entry point of a consistency boundary.
// All changes to the aggregate go through it, and it records the domain
// events that the unit of work persists to the outbox.
type AggregateRoot interface {
	// ID returns the aggregate identity in string form.
	ID() string

	// Version returns the persisted version, incremented on every write.
	Version() int

	// PullEvents returns the recorded domain events and clears them.
	PullEvents() []DomainEvent
}
