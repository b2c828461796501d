/*
Package order - order domain errors

Every constructor captures the stack at the call site (shared.CaptureStack(3)
skips runtime.Callers, CaptureStack and the constructor itself) and unwraps to
both an order sentinel and the shared taxonomy sentinel, so callers can ask
errors.Is(err, ErrInvalidTransition) or errors.Is(err, shared.ErrBusinessRule).
*/
package order

import (
	"errors"
	"fmt"
	"strconv"

	"orderlifecycle/domain/shared"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrConcurrentModification the expected status no longer holds; callers retry
	ErrConcurrentModification = errors.New("order was modified by another transaction, please retry")

	ErrInvalidTransition = errors.New("invalid state transition")

	ErrTotalMismatch = errors.New("total value does not match products sum")

	ErrEmptyProducts = errors.New("order must have at least one product")

	// ErrDuplicateOrder orderId or (externalReferenceId, channel) already stored
	ErrDuplicateOrder = errors.New("order already exists")

	// ErrDuplicateEvent event id already present on the order
	ErrDuplicateEvent = errors.New("event already applied")
)

// ============================================================================
// Constructors
// ============================================================================

func NewOrderNotFoundError(orderID int64) error {
	return &orderDomainError{
		sentinel: ErrOrderNotFound,
		kind:     shared.ErrNotFound,
		orderID:  orderID,
		message:  "Order not found: " + strconv.FormatInt(orderID, 10),
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(orderID int64) error {
	return &orderDomainError{
		sentinel: ErrConcurrentModification,
		kind:     shared.ErrConflict,
		orderID:  orderID,
		message:  "order " + strconv.FormatInt(orderID, 10) + " was modified by another transaction, please retry",
		stack:    shared.CaptureStack(3),
	}
}

// NewInvalidTransitionError names both statuses so the decision can be replayed.
func NewInvalidTransitionError(orderID int64, current, candidate Status) error {
	return &orderDomainError{
		sentinel:  ErrInvalidTransition,
		kind:      shared.ErrBusinessRule,
		orderID:   orderID,
		current:   current,
		candidate: candidate,
		message:   fmt.Sprintf("Invalid state transition from %s to %s", current, candidate),
		stack:     shared.CaptureStack(3),
	}
}

func NewTotalMismatchError(declared, computed decimal.Decimal) error {
	return &orderDomainError{
		sentinel: ErrTotalMismatch,
		kind:     shared.ErrInvalidInput,
		field:    "totalValue",
		message:  fmt.Sprintf("TotalValue %s doesn't match products sum %s", declared.String(), computed.String()),
		stack:    shared.CaptureStack(3),
	}
}

func NewEmptyProductsError() error {
	return &orderDomainError{
		sentinel: ErrEmptyProducts,
		kind:     shared.ErrInvalidInput,
		field:    "products",
		message:  "order must have at least one product",
		stack:    shared.CaptureStack(3),
	}
}

func NewDuplicateOrderError(orderID int64, externalReferenceID string, channel Channel) error {
	return &orderDomainError{
		sentinel: ErrDuplicateOrder,
		kind:     shared.ErrConflict,
		orderID:  orderID,
		message:  fmt.Sprintf("ExternalReferenceId %q must be unique per channel %s", externalReferenceID, channel),
		stack:    shared.CaptureStack(3),
	}
}

func NewDuplicateEventError(orderID int64, eventID string) error {
	return &orderDomainError{
		sentinel: ErrDuplicateEvent,
		kind:     shared.ErrConflict,
		orderID:  orderID,
		field:    "id",
		message:  fmt.Sprintf("event %q already applied to order %d", eventID, orderID),
		stack:    shared.CaptureStack(3),
	}
}

// ============================================================================
// orderDomainError
// ============================================================================

type orderDomainError struct {
	sentinel  error
	kind      error
	orderID   int64
	field     string
	current   Status
	candidate Status
	message   string
	stack     []uintptr
}

func (e *orderDomainError) Error() string {
	return e.message
}

// Unwrap exposes both the order sentinel and the shared category.
func (e *orderDomainError) Unwrap() []error {
	return []error{e.sentinel, e.kind}
}

func (e *orderDomainError) Stack() []string {
	if len(e.stack) == 0 {
		return nil
	}
	return shared.FormatStack(e.stack)
}

// Field returns the offending field name, if any.
func (e *orderDomainError) Field() string { return e.field }

// OrderID returns the order the error is about (0 when not yet assigned).
func (e *orderDomainError) OrderID() int64 { return e.orderID }

// TransitionOf extracts the statuses named by an invalid transition error.
func TransitionOf(err error) (current, candidate Status, ok bool) {
	var de *orderDomainError
	if errors.As(err, &de) && errors.Is(de.sentinel, ErrInvalidTransition) {
		return de.current, de.candidate, true
	}
	return "", "", false
}
