package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"residencehub/internal/db"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(conn *sql.DB) *AdminRepository {
	return &AdminRepository{DB: conn}
}

// AdminFilter narrows the building-wide reservation listing. Zero values are ignored.
type AdminFilter struct {
	BuildingID string
	Status     db.ReservationStatus
	SpaceID    string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *AdminRepository) ListReservations(ctx context.Context, f AdminFilter) ([]db.Reservation, int, error) {
	where := ` WHERE building_id = $1`
	args := []any{f.BuildingID}
	idx := 2

	if f.Status != "" {
		where += " AND status = $" + strconv.Itoa(idx)
		args = append(args, f.Status)
		idx++
	}
	if f.SpaceID != "" {
		where += " AND space_id = $" + strconv.Itoa(idx)
		args = append(args, f.SpaceID)
		idx++
	}
	if f.From != nil {
		where += " AND start_time >= $" + strconv.Itoa(idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		where += " AND start_time < $" + strconv.Itoa(idx)
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := q(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		if isInvalidText(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations` + where +
		" ORDER BY start_time DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	out, err := scanReservations(rows)
	return out, total, err
}

// ListPendingVerification is the review queue: submitted proofs, oldest first.
func (r *AdminRepository) ListPendingVerification(ctx context.Context, buildingID string) ([]db.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
		FROM reservations
		WHERE building_id = $1 AND status = $2
		ORDER BY updated_at ASC`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, buildingID, db.StatusPaymentSubmitted)
	if err != nil {
		if isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list pending verification: %w", err)
	}
	return scanReservations(rows)
}
