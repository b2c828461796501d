// Package errors maps domain failures onto API error codes and HTTP statuses.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
)

// ErrorCode is the machine readable code carried in error responses.
type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeBusinessRule   ErrorCode = "BUSINESS_RULE_VIOLATION"

	// order specific
	CodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	CodeInvalidTransition      ErrorCode = "INVALID_STATE_TRANSITION"
	CodeTotalMismatch          ErrorCode = "TOTAL_MISMATCH"
	CodeDuplicateOrder         ErrorCode = "DUPLICATE_ORDER"
	CodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
)

// AppError is the error shape handlers render.
type AppError struct {
	Code    ErrorCode           `json:"code"`
	Message string              `json:"message"`
	Details []shared.FieldError `json:"details,omitempty"`
	Err     error               `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status the code is rendered with.
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation, CodeTotalMismatch:
		return http.StatusBadRequest
	case CodeNotFound, CodeOrderNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateOrder, CodeConcurrentModification:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeBusinessRule, CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Validation(message string, details ...shared.FieldError) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details}
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FromDomainError classifies err by the shared taxonomy. Anything outside it
// is an infrastructure failure and its message is not exposed.
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fieldErrs *shared.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &AppError{Code: CodeValidation, Message: "validation failed", Details: fieldErrs.Fields, Err: err}
	}

	msg := err.Error()
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return Wrap(err, CodeOrderNotFound, msg)
	case errors.Is(err, order.ErrTotalMismatch):
		return withField(Wrap(err, CodeTotalMismatch, msg), err)
	case errors.Is(err, order.ErrInvalidTransition):
		return Wrap(err, CodeInvalidTransition, msg)
	case errors.Is(err, order.ErrDuplicateOrder):
		return Wrap(err, CodeDuplicateOrder, msg)
	case errors.Is(err, order.ErrConcurrentModification):
		return Wrap(err, CodeConcurrentModification, msg)
	case errors.Is(err, shared.ErrInvalidInput):
		return withField(Wrap(err, CodeValidation, msg), err)
	case errors.Is(err, shared.ErrNotFound):
		return Wrap(err, CodeNotFound, msg)
	case errors.Is(err, shared.ErrConflict):
		return Wrap(err, CodeConflict, msg)
	case errors.Is(err, shared.ErrBusinessRule):
		return Wrap(err, CodeBusinessRule, msg)
	default:
		return Wrap(err, CodeInternal, "internal server error")
	}
}

type fielder interface {
	Field() string
}

func withField(appErr *AppError, err error) *AppError {
	var f fielder
	if errors.As(err, &f) && f.Field() != "" {
		appErr.Details = []shared.FieldError{{Field: f.Field(), Message: appErr.Message}}
		return appErr
	}
	var de *shared.DomainError
	if errors.As(err, &de) && de.Field != "" {
		appErr.Details = []shared.FieldError{{Field: de.Field, Message: de.Message}}
	}
	return appErr
}
