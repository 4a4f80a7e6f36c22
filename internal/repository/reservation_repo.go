package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"residencehub/internal/booking"
	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
)

const reservationColumns = `
	id, building_id, space_id, user_id, start_time, end_time, status, reference_code,
	payment_amount, payment_proof_url, payment_deadline, payment_verified_by, payment_verified_at,
	payment_rejected_reason, rejection_count, cancellation_reason, cancelled_by, stripe_session_id,
	stripe_payment_intent_id, notes, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (db.Reservation, error) {
	var (
		res        db.Reservation
		amount     sql.NullInt64
		proof      sql.NullString
		deadline   sql.NullTime
		verifiedBy sql.NullString
		verifiedAt sql.NullTime
		rejected   sql.NullString
		cancelNote sql.NullString
		cancelBy   sql.NullString
		session    sql.NullString
		intent     sql.NullString
		notes      sql.NullString
	)
	err := row.Scan(
		&res.ID, &res.BuildingID, &res.SpaceID, &res.UserID, &res.StartTime, &res.EndTime, &res.Status, &res.ReferenceCode,
		&amount, &proof, &deadline, &verifiedBy, &verifiedAt,
		&rejected, &res.RejectionCount, &cancelNote, &cancelBy, &session,
		&intent, &notes, &res.Version, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return db.Reservation{}, err
	}
	if amount.Valid {
		res.PaymentAmount = &amount.Int64
	}
	res.PaymentProofURL = nullString(proof)
	res.PaymentDeadline = nullTime(deadline)
	res.PaymentVerifiedBy = nullString(verifiedBy)
	res.PaymentVerifiedAt = nullTime(verifiedAt)
	res.PaymentRejectedReason = nullString(rejected)
	res.CancellationReason = nullString(cancelNote)
	res.CancelledBy = nullString(cancelBy)
	res.StripeSessionID = nullString(session)
	res.StripePaymentIntentID = nullString(intent)
	res.Notes = nullString(notes)
	return res, nil
}

func scanReservations(rows *sql.Rows) ([]db.Reservation, error) {
	defer rows.Close()
	var out []db.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func statusStrings(statuses []db.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

type ReservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(conn *sql.DB) *ReservationRepository {
	return &ReservationRepository{DB: conn}
}

// Create inserts a reservation and fills in the generated columns.
func (r *ReservationRepository) Create(ctx context.Context, res *db.Reservation) error {
	query := `
		INSERT INTO reservations
		(id, building_id, space_id, user_id, start_time, end_time, status, reference_code,
		 payment_amount, payment_deadline, notes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $12)
		RETURNING version, created_at, updated_at`
	err := q(ctx, r.DB).QueryRowContext(ctx, query,
		res.ID,
		res.BuildingID,
		res.SpaceID,
		res.UserID,
		res.StartTime,
		res.EndTime,
		res.Status,
		res.ReferenceCode,
		res.PaymentAmount,
		res.PaymentDeadline,
		res.Notes,
		res.CreatedAt,
	).Scan(&res.Version, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		switch {
		case isExclusionViolation(err):
			return apperrors.NewValidationError(string(booking.ReasonConflict), "Time slot conflicts with an existing reservation")
		case isUniqueViolation(err):
			return fmt.Errorf("insert reservation %s: %w", res.ReferenceCode, apperrors.ErrStateChanged)
		case isInvalidText(err):
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (db.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	res, err := scanReservation(q(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return db.Reservation{}, apperrors.ErrNotFound
		}
		return db.Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return res, nil
}

// ListActiveInWindow returns the active reservations on a space that overlap [from, to).
func (r *ReservationRepository) ListActiveInWindow(ctx context.Context, spaceID string, from, to time.Time) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE space_id = $1 AND status = ANY($2) AND start_time < $4 AND end_time > $3
		ORDER BY start_time`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, spaceID, pq.Array(statusStrings(db.ActiveStatuses)), from, to)
	if err != nil {
		if isInvalidText(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	return scanReservations(rows)
}

// CountActiveForUser counts a renter's active reservations on a space starting in [from, to).
func (r *ReservationRepository) CountActiveForUser(ctx context.Context, spaceID, userID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM reservations
		WHERE space_id = $1 AND user_id = $2 AND status = ANY($3) AND start_time >= $4 AND start_time < $5`
	var n int
	err := q(ctx, r.DB).QueryRowContext(ctx, query, spaceID, userID, pq.Array(statusStrings(db.ActiveStatuses)), from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count monthly reservations: %w", err)
	}
	return n, nil
}

type UserFilter string

const (
	FilterUpcoming UserFilter = "upcoming"
	FilterPast     UserFilter = "past"
	FilterAll      UserFilter = "all"
)

// ListByUser pages through a renter's reservations.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string, filter UserFilter, now time.Time, limit, offset int) ([]db.Reservation, int, error) {
	where := `user_id = $1`
	order := `start_time DESC`
	args := []any{userID}
	switch filter {
	case FilterUpcoming:
		where += ` AND end_time >= $2`
		order = `start_time ASC`
		args = append(args, now)
	case FilterPast:
		where += ` AND end_time < $2`
		args = append(args, now)
	}

	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE `+where, args...).Scan(&total); err != nil {
		if isInvalidText(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("count user reservations: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		reservationColumns, where, order, len(args)+1, len(args)+2)
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list user reservations: %w", err)
	}
	out, err := scanReservations(rows)
	return out, total, err
}

// StatusUpdate is a guarded transition. The write only applies while the row
// still has status From and the given Version.
type StatusUpdate struct {
	ID                 string
	From               db.ReservationStatus
	Version            int
	To                 db.ReservationStatus
	PaymentProofURL    *string
	ClearProof         bool
	VerifiedBy         *string
	VerifiedAt         *time.Time
	RejectedReason     *string
	IncrementRejection bool
	CancellationReason *string
	CancelledBy        *string
	At                 time.Time
}

// UpdateStatus applies u atomically and returns the new row.
// It returns ErrStateChanged when the guard matched nothing.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, u StatusUpdate) (db.Reservation, error) {
	query := `
		UPDATE reservations SET
			status = $4,
			payment_proof_url = CASE WHEN $6 THEN NULL ELSE COALESCE($5, payment_proof_url) END,
			payment_verified_by = COALESCE($7, payment_verified_by),
			payment_verified_at = COALESCE($8, payment_verified_at),
			payment_rejected_reason = COALESCE($9, payment_rejected_reason),
			rejection_count = rejection_count + CASE WHEN $10 THEN 1 ELSE 0 END,
			cancellation_reason = COALESCE($11, cancellation_reason),
			cancelled_by = COALESCE($12, cancelled_by),
			version = version + 1,
			updated_at = $13
		WHERE id = $1 AND status = $2 AND version = $3
		RETURNING ` + reservationColumns
	res, err := scanReservation(q(ctx, r.DB).QueryRowContext(ctx, query,
		u.ID, u.From, u.Version, u.To,
		u.PaymentProofURL, u.ClearProof,
		u.VerifiedBy, u.VerifiedAt,
		u.RejectedReason, u.IncrementRejection,
		u.CancellationReason, u.CancelledBy,
		u.At,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Reservation{}, fmt.Errorf("update reservation %s from %s: %w", u.ID, u.From, apperrors.ErrStateChanged)
		}
		if isInvalidText(err) {
			return db.Reservation{}, apperrors.ErrNotFound
		}
		return db.Reservation{}, fmt.Errorf("update reservation %s: %w", u.ID, err)
	}
	return res, nil
}
