// Package memory is an in-process Order Store for development and tests.
// It keeps the same guarantees as the SQL store: unique ids and natural
// keys, and a compare-and-set AppendEvent.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
)

type naturalKey struct {
	ref     string
	channel order.Channel
}

// OrderRepository stores snapshots, never live aggregates, so callers cannot
// mutate stored state through a returned pointer.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]order.ReconstructionDTO
	byKey  map[naturalKey]int64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[int64]order.ReconstructionDTO),
		byKey:  make(map[naturalKey]int64),
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := naturalKey{ref: o.ExternalReferenceID(), channel: o.Channel()}
	if _, exists := r.orders[o.OrderID()]; exists {
		return order.NewDuplicateOrderError(o.OrderID(), key.ref, key.channel)
	}
	if _, exists := r.byKey[key]; exists {
		return order.NewDuplicateOrderError(o.OrderID(), key.ref, key.channel)
	}

	r.orders[o.OrderID()] = o.Snapshot()
	r.byKey[key] = o.OrderID()
	return nil
}

func (r *OrderRepository) ExistsByNaturalKey(ctx context.Context, externalReferenceID string, channel order.Channel) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[naturalKey{ref: externalReferenceID, channel: channel}]
	return ok, nil
}

func (r *OrderRepository) FindByNaturalKey(ctx context.Context, externalReferenceID string, channel order.Channel) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[naturalKey{ref: externalReferenceID, channel: channel}]
	if !ok {
		return nil, order.NewOrderNotFoundError(0)
	}
	return order.RebuildFromDTO(r.orders[id]), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dto, ok := r.orders[id]
	if !ok {
		return nil, order.NewOrderNotFoundError(id)
	}
	return order.RebuildFromDTO(dto), nil
}

// AppendEvent applies ev under the write lock only if the stored status is
// still expected.
func (r *OrderRepository) AppendEvent(ctx context.Context, id int64, expected order.Status, ev order.Event, updatedOn time.Time) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dto, ok := r.orders[id]
	if !ok {
		return nil, order.NewOrderNotFoundError(id)
	}
	if dto.Status != expected {
		return nil, order.NewConcurrentModificationError(id)
	}
	for _, existing := range dto.Events {
		if existing.ID == ev.ID {
			return nil, order.NewDuplicateEventError(id, ev.ID)
		}
	}

	ev.Date = ev.Date.UTC()
	events := make([]order.Event, len(dto.Events), len(dto.Events)+1)
	copy(events, dto.Events)
	dto.Events = append(events, ev)
	dto.Status = ev.Type
	dto.UpdatedOn = updatedOn.UTC()
	dto.Version++
	r.orders[id] = dto

	return order.RebuildFromDTO(dto), nil
}

// Search filters with the specification itself and sorts by id.
func (r *OrderRepository) Search(ctx context.Context, spec shared.Specification) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*order.Order, 0)
	for _, dto := range r.orders {
		o := order.RebuildFromDTO(dto)
		if spec == nil || spec.IsSatisfiedBy(ctx, o) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID() < result[j].OrderID()
	})
	return result, nil
}

var _ order.Repository = (*OrderRepository)(nil)
