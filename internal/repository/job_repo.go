package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"residencehub/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(conn *sql.DB) *JobRepository {
	return &JobRepository{DB: conn}
}

// ListOverduePending returns pending_payment reservations whose deadline passed before now.
func (r *JobRepository) ListOverduePending(ctx context.Context, now time.Time, limit int) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND payment_deadline < $2
		ORDER BY payment_deadline
		LIMIT $3`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, db.StatusPendingPayment, now, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying overdue reservations: %w", err)
	}
	return scanReservations(rows)
}

// CancelOverdue cancels one overdue reservation. It reports false when the row
// was paid, cancelled or extended in the meantime.
func (r *JobRepository) CancelOverdue(ctx context.Context, id string, now time.Time, reason string) (bool, error) {
	query := `
		UPDATE reservations
		SET status = $2, cancellation_reason = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND status = $5 AND payment_deadline < $4`
	res, err := q(ctx, r.DB).ExecContext(ctx, query, id, db.StatusCancelled, reason, now, db.StatusPendingPayment)
	if err != nil {
		return false, fmt.Errorf("error cancelling reservation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for %s: %w", id, err)
	}
	return n == 1, nil
}

// CompleteFinished marks confirmed reservations that ended before now as completed.
func (r *JobRepository) CompleteFinished(ctx context.Context, now time.Time) ([]db.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $1, version = version + 1, updated_at = $2
		WHERE status = $3 AND end_time < $2
		RETURNING ` + reservationColumns
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, db.StatusCompleted, now, db.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("error completing finished reservations: %w", err)
	}
	return scanReservations(rows)
}
