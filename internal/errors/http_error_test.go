package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		reason    string
		retryable bool
	}{
		{"validation", NewValidationError("conflict", "Time slot conflicts"), http.StatusUnprocessableEntity, "conflict", false},
		{"wrapped validation", fmt.Errorf("create: %w", NewValidationError("blackout", "x")), http.StatusUnprocessableEntity, "blackout", false},
		{"not found", fmt.Errorf("get reservation: %w", ErrNotFound), http.StatusNotFound, "not_found", false},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized", false},
		{"forbidden", ErrForbidden, http.StatusForbidden, "forbidden", false},
		{"state changed", fmt.Errorf("verify: %w", ErrStateChanged), http.StatusConflict, "state_changed", true},
		{"transition", ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition", false},
		{"window", ErrCancellationWindow, http.StatusUnprocessableEntity, "cancellation_window", false},
		{"reason", ErrReasonRequired, http.StatusUnprocessableEntity, "reason_required", false},
		{"bad request", BadRequest("invalid start_time"), http.StatusBadRequest, "bad_request", false},
		{"refunded", fmt.Errorf("apply payment: %w", ErrPaymentRefunded), http.StatusConflict, "payment_refunded", false},
		{"http error passthrough", Unauthorized("missing token"), http.StatusUnauthorized, "unauthorized", false},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.retryable, got.Retryable)
		})
	}
}

func TestFromError_BadRequestDetail(t *testing.T) {
	err := fmt.Errorf("decode: %w", BadRequest("start_time is required"))
	assert.Equal(t, "start_time is required", FromError(err).Message)
}

func TestFromError_InternalDoesNotLeak(t *testing.T) {
	got := FromError(fmt.Errorf("pq: password authentication failed"))
	assert.Equal(t, "Internal server error", got.Message)
}
