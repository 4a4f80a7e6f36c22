package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
)

type StripeRepository struct {
	DB *sql.DB
}

func NewStripeRepository(conn *sql.DB) *StripeRepository {
	return &StripeRepository{DB: conn}
}

// SetCheckoutSession stores the session id while the reservation still awaits payment.
func (r *StripeRepository) SetCheckoutSession(ctx context.Context, reservationID, sessionID string) error {
	query := `
		UPDATE reservations SET stripe_session_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`
	res, err := q(ctx, r.DB).ExecContext(ctx, query, reservationID, sessionID, db.StatusPendingPayment)
	if err != nil {
		return fmt.Errorf("error saving checkout session for reservation %s: %w", reservationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrStateChanged
	}
	return nil
}

func (r *StripeRepository) GetBySession(ctx context.Context, sessionID string) (db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE stripe_session_id = $1`
	res, err := scanReservation(q(ctx, r.DB).QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, apperrors.ErrNotFound
		}
		return db.Reservation{}, fmt.Errorf("get reservation by session %s: %w", sessionID, err)
	}
	return res, nil
}

// SetPaymentIntent records the payment intent that settled a checkout session
// so later charge events can be traced back to the reservation.
func (r *StripeRepository) SetPaymentIntent(ctx context.Context, sessionID, paymentIntentID string) error {
	query := `
		UPDATE reservations SET stripe_payment_intent_id = $2, updated_at = NOW()
		WHERE stripe_session_id = $1`
	res, err := q(ctx, r.DB).ExecContext(ctx, query, sessionID, paymentIntentID)
	if err != nil {
		return fmt.Errorf("error saving payment intent for session %s: %w", sessionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *StripeRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE stripe_payment_intent_id = $1`
	res, err := scanReservation(q(ctx, r.DB).QueryRowContext(ctx, query, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, apperrors.ErrNotFound
		}
		return db.Reservation{}, fmt.Errorf("get reservation by payment intent %s: %w", paymentIntentID, err)
	}
	return res, nil
}
