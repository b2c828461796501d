package order

import (
	"context"
	"errors"
	"time"
)

// DomainService holds the order rules that need the repository to decide.
// It only reads; persistence stays with the application service.
type DomainService struct {
	orderRepository Repository
}

func NewDomainService(orderRepo Repository) *DomainService {
	return &DomainService{orderRepository: orderRepo}
}

// ExistingByNaturalKey returns the order already stored under
// (externalReferenceID, channel), if any.
func (s *DomainService) ExistingByNaturalKey(ctx context.Context, externalReferenceID string, channel Channel) (*Order, bool, error) {
	exists, err := s.orderRepository.ExistsByNaturalKey(ctx, externalReferenceID, channel)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}

	o, err := s.orderRepository.FindByNaturalKey(ctx, externalReferenceID, channel)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

// EventDecision is the outcome of checking an incoming event.
type EventDecision struct {
	Order    *Order
	Previous Status

	// Replayed is set when the event id was already applied; Order is then
	// unchanged and nothing must be written.
	Replayed *Event
}

// DecideEvent loads the order and either recognises a replay or advances the
// in-memory aggregate through the transition table. The caller persists the
// advance conditionally on decision.Previous.
func (s *DomainService) DecideEvent(ctx context.Context, orderID int64, ev Event, now time.Time) (EventDecision, error) {
	o, err := s.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return EventDecision{}, err
	}

	if applied, ok := o.FindEvent(ev.ID); ok {
		return EventDecision{Order: o, Previous: o.Status(), Replayed: &applied}, nil
	}

	previous := o.Status()
	if err := o.Advance(ev, now); err != nil {
		return EventDecision{}, err
	}
	return EventDecision{Order: o, Previous: previous}, nil
}
