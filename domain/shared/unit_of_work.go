package shared

import "context"

// UnitOfWork owns a transaction boundary and collects aggregate events.
// A UnitOfWork is not safe for concurrent use; obtain one per operation
// from a UnitOfWorkFactory.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
}

type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}
