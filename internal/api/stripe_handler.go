package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/service"
)

const maxWebhookBytes = int64(65536)

type PaymentConfirmer interface {
	ApplyOnlinePayment(ctx context.Context, sessionID, paymentIntentID string) (db.Reservation, error)
	ApplyRefund(ctx context.Context, paymentIntentID string) (db.Reservation, error)
}

var _ PaymentConfirmer = (*service.ReservationService)(nil)

type StripeWebhookHandler struct {
	StripeSecret string
	payments     PaymentConfirmer
	log          zerolog.Logger
}

func NewStripeWebhookHandler(stripeSecret string, payments PaymentConfirmer, log zerolog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{StripeSecret: stripeSecret, payments: payments, log: log}
}

// HandleWebhook answers 2xx for every event it understood or chose to
// ignore, so Stripe only retries on transient failures.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("error reading webhook body")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), h.StripeSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			h.log.Warn().Err(err).Str("event_id", event.ID).Msg("error parsing checkout session")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			h.log.Info().Str("session_id", sess.ID).Str("payment_status", string(sess.PaymentStatus)).Msg("checkout session not paid yet")
			w.WriteHeader(http.StatusOK)
			return
		}

		var intentID string
		if sess.PaymentIntent != nil {
			intentID = sess.PaymentIntent.ID
		}
		res, err := h.payments.ApplyOnlinePayment(r.Context(), sess.ID, intentID)
		switch {
		case errors.Is(err, apperrors.ErrPaymentRefunded):
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("late payment refunded")
			w.WriteHeader(http.StatusOK)
			return
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrInvalidTransition):
			// Nothing Stripe can fix by retrying.
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("payment for unknown or closed reservation")
			w.WriteHeader(http.StatusOK)
			return
		case err != nil:
			writeError(w, r, h.log, err)
			return
		}
		h.log.Info().Str("session_id", sess.ID).Str("reservation_id", res.ID).Msg("online payment applied")
	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			h.log.Warn().Err(err).Str("event_id", event.ID).Msg("error parsing charge")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
			h.log.Warn().Str("charge_id", charge.ID).Msg("refunded charge has no payment intent")
			w.WriteHeader(http.StatusOK)
			return
		}
		if !charge.Refunded {
			h.log.Info().Str("charge_id", charge.ID).Int64("amount_refunded", charge.AmountRefunded).Msg("partial refund, reservation kept")
			w.WriteHeader(http.StatusOK)
			return
		}

		res, err := h.payments.ApplyRefund(r.Context(), charge.PaymentIntent.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.log.Warn().Str("payment_intent", charge.PaymentIntent.ID).Msg("refund for unknown reservation")
			w.WriteHeader(http.StatusOK)
			return
		case err != nil:
			writeError(w, r, h.log, err)
			return
		}
		h.log.Info().Str("payment_intent", charge.PaymentIntent.ID).Str("reservation_id", res.ID).Str("status", string(res.Status)).Msg("refund applied")
	default:
		h.log.Debug().Str("type", string(event.Type)).Msg("ignoring webhook event")
	}
	w.WriteHeader(http.StatusOK)
}
