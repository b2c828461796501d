package order

import (
	"context"
	"time"

	"orderlifecycle/domain/shared"
)

// ByOrderIDSpecification matches a single order id.
type ByOrderIDSpecification struct {
	OrderID int64
}

func (spec ByOrderIDSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	return ok && o.OrderID() == spec.OrderID
}

// ByDocumentNumberSpecification matches the buyer's document number exactly.
type ByDocumentNumberSpecification struct {
	DocumentNumber string
}

func (spec ByDocumentNumberSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	return ok && o.Buyer().DocumentNumber == spec.DocumentNumber
}

type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	return ok && o.Status() == spec.Status
}

// ByPurchaseDateRangeSpecification matches purchase dates inside [From, To].
// A zero bound is open. Bounds are compared in UTC; inverted bounds match
// nothing.
type ByPurchaseDateRangeSpecification struct {
	From time.Time
	To   time.Time
}

func (spec ByPurchaseDateRangeSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	if !ok {
		return false
	}
	purchased := o.PurchaseDate().UTC()

	if !spec.From.IsZero() && purchased.Before(spec.From.UTC()) {
		return false
	}
	if !spec.To.IsZero() && purchased.After(spec.To.UTC()) {
		return false
	}
	return true
}

// Filter is the normalized search input. Nil or empty fields impose no
// constraint.
type Filter struct {
	OrderID        *int64
	DocumentNumber string
	Status         *Status
	CreatedOnFrom  *time.Time
	CreatedOnTo    *time.Time
}

// Specification turns the present fields into a conjunction. It returns nil
// for an empty filter.
func (f Filter) Specification() shared.Specification {
	var specs []shared.Specification

	if f.OrderID != nil {
		specs = append(specs, ByOrderIDSpecification{OrderID: *f.OrderID})
	}
	if f.DocumentNumber != "" {
		specs = append(specs, ByDocumentNumberSpecification{DocumentNumber: f.DocumentNumber})
	}
	if f.Status != nil {
		specs = append(specs, ByStatusSpecification{Status: *f.Status})
	}
	if f.CreatedOnFrom != nil || f.CreatedOnTo != nil {
		var r ByPurchaseDateRangeSpecification
		if f.CreatedOnFrom != nil {
			r.From = f.CreatedOnFrom.UTC()
		}
		if f.CreatedOnTo != nil {
			r.To = f.CreatedOnTo.UTC()
		}
		specs = append(specs, r)
	}

	return shared.AllOf(specs...)
}
