package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrCancellationWindow = errors.New("cancellation window has passed")
	ErrReasonRequired     = errors.New("a reason is required")
	ErrBadRequest         = errors.New("bad request")
	ErrNotConfigured      = errors.New("feature not configured")

	// ErrPaymentRefunded means an online payment reached a reservation that
	// could no longer take it and the money was returned.
	ErrPaymentRefunded = errors.New("payment refunded")

	// ErrStateChanged means a guarded write matched no row because the
	// reservation moved on concurrently. Callers may reload and retry.
	ErrStateChanged = errors.New("reservation state changed")
)

// ValidationError is a business-rule rejection of a booking request.
type ValidationError struct {
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NewValidationError builds a ValidationError from a rejection code and message.
func NewValidationError(reason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

// BadRequest wraps ErrBadRequest with a client-facing detail.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
