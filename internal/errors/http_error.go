package errors

import (
	"errors"
	"net/http"
	"strings"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code      int    `json:"-"`
	Reason    string `json:"code"`
	Message   string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, reason, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// FromError maps a service error onto its HTTP representation.
// Unknown errors become a generic 500 so internals never leak to clients.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return NewHTTPError(http.StatusUnprocessableEntity, vErr.Reason, vErr.Message)
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, "forbidden", "You are not allowed to perform this action")
	case errors.Is(err, ErrStateChanged):
		e := NewHTTPError(http.StatusConflict, "state_changed", "The reservation was modified concurrently, reload and try again")
		e.Retryable = true
		return e
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusUnprocessableEntity, "invalid_transition", "The reservation cannot change to that status")
	case errors.Is(err, ErrCancellationWindow):
		return NewHTTPError(http.StatusUnprocessableEntity, "cancellation_window", "It is too late to cancel this reservation")
	case errors.Is(err, ErrReasonRequired):
		return NewHTTPError(http.StatusUnprocessableEntity, "reason_required", "A reason is required")
	case errors.Is(err, ErrBadRequest):
		return NewHTTPError(http.StatusBadRequest, "bad_request", detail(err, ErrBadRequest))
	case errors.Is(err, ErrPaymentRefunded):
		return NewHTTPError(http.StatusConflict, "payment_refunded", "The payment arrived after the reservation closed and was refunded")
	case errors.Is(err, ErrNotConfigured):
		return NewHTTPError(http.StatusNotImplemented, "not_configured", "This feature is not enabled")
	}
	return NewHTTPError(http.StatusInternalServerError, "internal_error", "Internal server error")
}

// detail strips the sentinel prefix so only the caller-supplied text is shown.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, sentinel.Error()+": "); i >= 0 {
		return msg[i+len(sentinel.Error())+2:]
	}
	return msg
}

// Helpers for common errors
var (
	Unauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, "unauthorized", msg) }
	Forbidden    = func(msg string) *HTTPError { return NewHTTPError(http.StatusForbidden, "forbidden", msg) }
)
