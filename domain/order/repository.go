package order

import (
	"context"
	"time"

	"orderlifecycle/domain/shared"
)

// OrderSequence names the counter that issues order ids.
const OrderSequence = "orderId"

// Repository is the Order Store.
// Implementations enforce uniqueness of orderId and of the natural key
// (externalReferenceId, channel) themselves, so a losing concurrent insert
// fails with ErrDuplicateOrder instead of relying on a prior read.
type Repository interface {
	// Create inserts a fully built order. Fails with ErrDuplicateOrder.
	Create(ctx context.Context, o *Order) error

	// ExistsByNaturalKey is the cheap idempotency pre-check.
	ExistsByNaturalKey(ctx context.Context, externalReferenceID string, channel Channel) (bool, error)

	// FindByNaturalKey returns ErrOrderNotFound when absent.
	FindByNaturalKey(ctx context.Context, externalReferenceID string, channel Channel) (*Order, error)

	// FindByID returns ErrOrderNotFound when absent.
	FindByID(ctx context.Context, id int64) (*Order, error)

	// AppendEvent atomically appends ev, sets status = ev.Type and
	// updatedOn, but only while the stored status still equals expected.
	// A stale expected status yields ErrConcurrentModification, an already
	// present event id ErrDuplicateEvent, a missing order ErrOrderNotFound.
	AppendEvent(ctx context.Context, id int64, expected Status, ev Event, updatedOn time.Time) (*Order, error)

	// Search returns the orders satisfying spec ordered by id; nil spec
	// matches everything.
	Search(ctx context.Context, spec shared.Specification) ([]*Order, error)
}

// SequenceAllocator issues strictly increasing ids per named counter.
// A failed call reserves nothing.
type SequenceAllocator interface {
	Next(ctx context.Context, name string) (int64, error)
}
