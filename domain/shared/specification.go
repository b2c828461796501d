package shared

import (
	"context"
)

// Specification encapsulates a query rule over domain entities.
// IsSatisfiedBy serves in-memory filtering; persistence adapters translate
// the concrete types into their own query language.
type Specification interface {
	IsSatisfiedBy(ctx context.Context, entity interface{}) bool
}

// ============================================================================
// Composite Specifications
// ============================================================================

type AndSpecification struct {
	Left  Specification
	Right Specification
}

func (spec AndSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) && spec.Right.IsSatisfiedBy(ctx, entity)
}

func And(left, right Specification) Specification {
	return AndSpecification{
		Left:  left,
		Right: right,
	}
}

// AllOf folds the non-nil specifications into a left-deep conjunction.
// It returns nil when nothing is left, meaning "no constraint".
func AllOf(specs ...Specification) Specification {
	var result Specification
	for _, s := range specs {
		if s == nil {
			continue
		}
		if result == nil {
			result = s
			continue
		}
		result = And(result, s)
	}
	return result
}

type OrSpecification struct {
	Left  Specification
	Right Specification
}

func (spec OrSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) || spec.Right.IsSatisfiedBy(ctx, entity)
}

func Or(left, right Specification) Specification {
	return OrSpecification{
		Left:  left,
		Right: right,
	}
}

type NotSpecification struct {
	Spec Specification
}

func (spec NotSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, entity)
}

func Not(inner Specification) Specification {
	return NotSpecification{
		Spec: inner,
	}
}
