package memory

import (
	"context"
	"sync"

	"orderlifecycle/domain/shared"
	"orderlifecycle/infrastructure/persistence/retry"
)

// Outbox collects the domain events of committed units of work.
type Outbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

// Events returns a copy of everything saved so far.
func (o *Outbox) Events() []shared.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]shared.DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

// UnitOfWork gives the memory store the same retry and event collection
// behaviour as the SQL one. The repository calls are individually atomic;
// there is no rollback.
type UnitOfWork struct {
	outbox      shared.OutboxRepository
	aggregates  []shared.AggregateRoot
	retryConfig retry.Config
}

func NewUnitOfWork(outbox shared.OutboxRepository, retryConfig retry.Config) *UnitOfWork {
	return &UnitOfWork{outbox: outbox, retryConfig: retryConfig}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.ExecuteWithRetry(ctx, u.retryConfig, func(ctx context.Context) error {
		u.aggregates = u.aggregates[:0]
		if err := fn(ctx); err != nil {
			return err
		}
		if u.outbox == nil {
			return nil
		}
		for _, agg := range u.aggregates {
			for _, event := range agg.PullEvents() {
				if err := u.outbox.SaveEvent(ctx, event); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

type UnitOfWorkFactory struct {
	outbox      shared.OutboxRepository
	retryConfig retry.Config
}

func NewUnitOfWorkFactory(outbox shared.OutboxRepository, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{outbox: outbox, retryConfig: retryConfig}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return NewUnitOfWork(f.outbox, f.retryConfig)
}

var (
	_ shared.UnitOfWork        = (*UnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
	_ shared.OutboxRepository  = (*Outbox)(nil)
)
