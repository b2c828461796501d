/*
Package shared holds the building blocks every subdomain depends on.

Error model:
 1. Sentinel errors classify a failure for errors.Is (not found, conflict,
    invalid input, business rule).
 2. DomainError captures the call stack when it is created and formats it
    only when a log line asks for it.
 3. Nothing here knows about HTTP status codes; the API layer owns that mapping.
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrNotFound the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict uniqueness or concurrency conflict
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput the request violates a field or shape constraint
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusinessRule the request is well formed but the domain refuses it
	ErrBusinessRule = errors.New("business rule violation")
)

// ============================================================================
// DomainError
// ============================================================================

// DomainError carries business context and the stack of the point of failure.
type DomainError struct {
	// Err is the sentinel used by errors.Is
	Err error

	// Entity the entity the error is about ("order", "sequence")
	Entity string

	// Message human readable description
	Message string

	// Field optional field name for validation failures
	Field string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Stack formats the captured frames on demand.
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// ============================================================================
// Stack helpers
// ============================================================================

// CaptureStack records the current call stack.
// skip is usually 3: runtime.Callers, CaptureStack and the constructor.
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders at most ten frames, skipping runtime internals.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// Constructors
// ============================================================================

func NewNotFoundError(entity string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found",
		stack:   CaptureStack(3),
	}
}

func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

func NewBusinessRuleError(entity, message string) error {
	return &DomainError{
		Err:     ErrBusinessRule,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// ============================================================================
// Field level validation errors
// ============================================================================

// FieldError is one failed field rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the full list of field failures for one request.
// It unwraps to ErrInvalidInput.
type ValidationErrors struct {
	Entity string
	Fields []FieldError
	stack  []uintptr
}

func NewValidationErrors(entity string, fields []FieldError) error {
	return &ValidationErrors{
		Entity: entity,
		Fields: fields,
		stack:  CaptureStack(3),
	}
}

func (e *ValidationErrors) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationErrors) Unwrap() error {
	return ErrInvalidInput
}

func (e *ValidationErrors) Stack() []string {
	return FormatStack(e.stack)
}

// ============================================================================
// Stacker
// ============================================================================

// Stacker is implemented by errors that know where they were created.
type Stacker interface {
	Stack() []string
}
