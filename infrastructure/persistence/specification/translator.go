package specification

import (
	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"

	"gorm.io/gorm"
)

// Scope is a gorm query fragment.
type Scope func(*gorm.DB) *gorm.DB

// Translator converts domain specifications to GORM queries.
type Translator interface {
	// Translate returns nil if the specification (or any part of it) is not
	// supported.
	Translate(spec shared.Specification) Scope
}

// GormTranslator translates order specifications over the orders table.
type GormTranslator struct{}

func NewGormTranslator() *GormTranslator {
	return &GormTranslator{}
}

func (t *GormTranslator) Translate(spec shared.Specification) Scope {
	if spec == nil {
		return nil
	}

	switch s := spec.(type) {
	case shared.AndSpecification:
		return t.translateAnd(s)
	case shared.OrSpecification:
		return t.translateOr(s)
	case shared.NotSpecification:
		return t.translateNot(s)
	}

	return t.translateConcrete(spec)
}

func (t *GormTranslator) translateAnd(spec shared.AndSpecification) Scope {
	left, right := t.Translate(spec.Left), t.Translate(spec.Right)
	if left == nil || right == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		return right(left(db))
	}
}

// Or and Not need their operands as parenthesised groups, built on a fresh
// session so the outer statement's conditions do not leak in.
func (t *GormTranslator) translateOr(spec shared.OrSpecification) Scope {
	left, right := t.Translate(spec.Left), t.Translate(spec.Right)
	if left == nil || right == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		fresh := db.Session(&gorm.Session{NewDB: true})
		return db.Where(left(fresh).Or(right(fresh)))
	}
}

func (t *GormTranslator) translateNot(spec shared.NotSpecification) Scope {
	inner := t.Translate(spec.Spec)
	if inner == nil {
		return nil
	}
	return func(db *gorm.DB) *gorm.DB {
		fresh := db.Session(&gorm.Session{NewDB: true})
		return db.Not(inner(fresh))
	}
}

func (t *GormTranslator) translateConcrete(spec shared.Specification) Scope {
	switch s := spec.(type) {
	case order.ByOrderIDSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("orders.order_id = ?", s.OrderID)
		}
	case order.ByDocumentNumberSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("orders.buyer_document_number = ?", s.DocumentNumber)
		}
	case order.ByStatusSpecification:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("orders.status = ?", string(s.Status))
		}
	case order.ByPurchaseDateRangeSpecification:
		return func(db *gorm.DB) *gorm.DB {
			if !s.From.IsZero() && !s.To.IsZero() && s.From.After(s.To) {
				return db.Where("1 = 0")
			}
			if !s.From.IsZero() {
				db = db.Where("orders.purchase_date >= ?", s.From.UTC())
			}
			if !s.To.IsZero() {
				db = db.Where("orders.purchase_date <= ?", s.To.UTC())
			}
			return db
		}
	}

	return nil
}
