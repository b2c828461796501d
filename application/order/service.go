/*
Package order Application Layer - Order Lifecycle Engine

The engine orchestrates the allocator, the transition table and the order
store:
 1. CreateOrder validates, checks the total, answers duplicates of the natural
    key from the stored order and otherwise allocates an id and inserts.
 2. ApplyEvent recognises replayed event ids, checks the transition and
    appends the event with a conditional update on the status it validated.
 3. GetOrder and SearchOrders project stored orders to responses.

Writes go through a unit of work obtained per call. The unit of work retries
the whole function on concurrent modification, so every retry re-reads and
re-validates against the latest stored status.
*/
package order

import (
	"context"
	"errors"
	"time"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
	apperrors "orderlifecycle/pkg/errors"
	"orderlifecycle/pkg/logger"
	"orderlifecycle/pkg/metrics"

	"go.uber.org/zap"
)

const (
	opCreate = "create"
	opEvent  = "event"
)

// ApplicationService is the Order Lifecycle Engine.
type ApplicationService struct {
	orderRepo     order.Repository
	allocator     order.SequenceAllocator
	uowFactory    shared.UnitOfWorkFactory
	domainService *order.DomainService
	validator     *Validator
	translator    *Translator
	metrics       *metrics.OrderMetrics
	now           func() time.Time
}

// Option customises an ApplicationService.
type Option func(*ApplicationService)

func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *ApplicationService) { s.metrics = m }
}

func WithTranslator(t *Translator) Option {
	return func(s *ApplicationService) { s.translator = t }
}

// WithClock replaces time.Now for timestamps and the notfuture rule.
func WithClock(now func() time.Time) Option {
	return func(s *ApplicationService) { s.now = now }
}

func NewApplicationService(
	orderRepo order.Repository,
	allocator order.SequenceAllocator,
	uowFactory shared.UnitOfWorkFactory,
	opts ...Option,
) *ApplicationService {
	s := &ApplicationService{
		orderRepo:     orderRepo,
		allocator:     allocator,
		uowFactory:    uowFactory,
		domainService: order.NewDomainService(orderRepo),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.translator == nil {
		s.translator = defaultTranslator()
	}
	s.validator = NewValidator(s.now)
	return s
}

// ============================================================================
// CreateOrder
// ============================================================================

func (s *ApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	log := logger.FromContext(ctx).With(
		zap.String("external_reference_id", req.ExternalReferenceID),
		zap.String("channel", req.Channel),
	)

	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, s.reject(opCreate, err)
	}
	params := toCreateParams(req)
	if err := order.CheckTotal(params.TotalValue, params.Products); err != nil {
		return nil, s.reject(opCreate, err)
	}

	existing, found, err := s.domainService.ExistingByNaturalKey(ctx, params.ExternalReferenceID, params.Channel)
	if err != nil {
		return nil, err
	}
	if found {
		s.metrics.Replayed(opCreate)
		logger.WithOrder(log, existing.OrderID()).Info("Order already exists, returning original result")
		return toCreateResponse(existing, true), nil
	}

	// an id lost to a failed insert is a harmless gap
	id, err := s.allocator.Next(ctx, order.OrderSequence)
	if err != nil {
		return nil, err
	}
	s.metrics.IDAllocated()

	var created *order.Order
	uow := s.uowFactory.New()
	err = uow.Execute(ctx, func(ctx context.Context) error {
		o, err := order.NewOrder(id, params, s.now())
		if err != nil {
			return err
		}
		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}
		uow.RegisterNew(o)
		created = o
		return nil
	})

	if errors.Is(err, order.ErrDuplicateOrder) {
		// lost the race against a concurrent create of the same natural key
		winner, findErr := s.orderRepo.FindByNaturalKey(ctx, params.ExternalReferenceID, params.Channel)
		if findErr == nil {
			s.metrics.Replayed(opCreate)
			logger.WithOrder(log, winner.OrderID()).Info("Concurrent create resolved to existing order")
			return toCreateResponse(winner, true), nil
		}
		if !errors.Is(findErr, order.ErrOrderNotFound) {
			return nil, findErr
		}
		return nil, s.reject(opCreate, err)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.OrderCreated(string(created.Channel()))
	logger.WithOrder(log, created.OrderID()).Info("Order created")
	return toCreateResponse(created, false), nil
}

// ============================================================================
// ApplyEvent
// ============================================================================

func (s *ApplicationService) ApplyEvent(ctx context.Context, orderID int64, req *AddEventRequest) (*AddEventResponse, error) {
	log := logger.WithOrder(logger.FromContext(ctx), orderID).With(zap.String("event_id", req.ID))

	if err := s.validator.ValidateEvent(req); err != nil {
		return nil, s.reject(opEvent, err)
	}
	ev := toDomainEvent(req)

	var resp *AddEventResponse
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		decision, err := s.domainService.DecideEvent(ctx, orderID, ev, s.now())
		if err != nil {
			return err
		}

		if decision.Replayed != nil {
			current := string(decision.Order.Status())
			resp = &AddEventResponse{
				OrderID:        orderID,
				PreviousStatus: current,
				NewStatus:      current,
				UpdatedOn:      decision.Replayed.Date,
				Idempotent:     true,
			}
			return nil
		}

		applied := decision.Order.LastEvent()
		if _, err := s.orderRepo.AppendEvent(ctx, orderID, decision.Previous, applied, decision.Order.UpdatedOn()); err != nil {
			if errors.Is(err, order.ErrDuplicateEvent) {
				// inserted concurrently under the same id; re-read and replay
				return order.NewConcurrentModificationError(orderID)
			}
			return err
		}
		uow.RegisterDirty(decision.Order)

		resp = &AddEventResponse{
			OrderID:        orderID,
			PreviousStatus: string(decision.Previous),
			NewStatus:      string(applied.Type),
			UpdatedOn:      applied.Date,
		}
		return nil
	})
	if err != nil {
		if current, candidate, ok := order.TransitionOf(err); ok {
			log.Info("Transition rejected",
				zap.String("current_status", string(current)),
				zap.String("candidate_status", string(candidate)))
		}
		return nil, s.reject(opEvent, err)
	}

	if resp.Idempotent {
		s.metrics.Replayed(opEvent)
		log.Info("Event already applied, returning current status")
	} else {
		s.metrics.EventApplied(resp.NewStatus)
		log.Info("Event applied",
			zap.String("previous_status", resp.PreviousStatus),
			zap.String("new_status", resp.NewStatus))
	}
	return resp, nil
}

// ============================================================================
// Queries
// ============================================================================

func (s *ApplicationService) GetOrder(ctx context.Context, orderID int64) (*GetOrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toGetOrderResponse(o, s.translator), nil
}

// SearchOrders returns the matching orders ordered by id. A status that
// names no known value matches nothing.
func (s *ApplicationService) SearchOrders(ctx context.Context, req SearchOrdersRequest) ([]OrderSearchResult, error) {
	if req.OrderID != nil && *req.OrderID <= 0 {
		return nil, shared.NewValidationErrors("search", []shared.FieldError{
			{Field: "orderId", Message: "must be greater than 0"},
		})
	}

	filter, ok := toFilter(req)
	if !ok {
		logger.FromContext(ctx).Debug("Unknown status filter, returning empty result", zap.String("status", req.Status))
		return []OrderSearchResult{}, nil
	}

	orders, err := s.orderRepo.Search(ctx, filter.Specification())
	if err != nil {
		return nil, err
	}

	results := make([]OrderSearchResult, len(orders))
	for i, o := range orders {
		results[i] = toSearchResult(o)
	}
	return results, nil
}

// reject counts a refused request under its error code and returns err as is.
func (s *ApplicationService) reject(operation string, err error) error {
	appErr := apperrors.FromDomainError(err)
	if appErr.Code != apperrors.CodeInternal {
		s.metrics.Rejected(operation, string(appErr.Code))
	}
	return err
}
