package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
)

type SpaceRepository struct {
	DB *sql.DB
}

func NewSpaceRepository(conn *sql.DB) *SpaceRepository {
	return &SpaceRepository{DB: conn}
}

const spaceColumns = `
	s.id, s.building_id, s.name, s.capacity, s.hourly_rate, s.deposit_amount, s.requires_approval,
	s.min_advance_hours, s.max_advance_days, s.max_duration_hours, s.max_monthly_per_owner,
	s.gap_minutes, s.quiet_hours_start, s.quiet_hours_end, s.cancellation_hours, s.is_active,
	b.timezone, s.created_at, s.updated_at`

func scanSpace(row rowScanner) (db.Space, error) {
	var (
		s        db.Space
		capacity sql.NullInt64
		qs, qe   sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.BuildingID, &s.Name, &capacity, &s.HourlyRate, &s.DepositAmount, &s.RequiresApproval,
		&s.MinAdvanceHours, &s.MaxAdvanceDays, &s.MaxDurationHours, &s.MaxMonthlyPerOwner,
		&s.GapMinutes, &qs, &qe, &s.CancellationHours, &s.IsActive,
		&s.Timezone, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return db.Space{}, err
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		s.Capacity = &c
	}
	s.QuietHoursStart = nullString(qs)
	s.QuietHoursEnd = nullString(qe)
	return s, nil
}

func (r *SpaceRepository) getSpace(ctx context.Context, id string, forUpdate bool) (db.Space, error) {
	query := `SELECT ` + spaceColumns + ` FROM spaces s JOIN buildings b ON b.id = s.building_id WHERE s.id = $1`
	if forUpdate {
		query += ` FOR UPDATE OF s`
	}
	s, err := scanSpace(q(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return db.Space{}, apperrors.ErrNotFound
		}
		return db.Space{}, fmt.Errorf("get space %s: %w", id, err)
	}
	return s, nil
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id string) (db.Space, error) {
	return r.getSpace(ctx, id, false)
}

// GetSpaceForUpdate locks the space row until the surrounding transaction
// ends, serializing bookings on the same space.
func (r *SpaceRepository) GetSpaceForUpdate(ctx context.Context, id string) (db.Space, error) {
	if txFromContext(ctx) == nil {
		return db.Space{}, fmt.Errorf("get space for update: no transaction in context")
	}
	return r.getSpace(ctx, id, true)
}

func (r *SpaceRepository) GetBuilding(ctx context.Context, id string) (db.Building, error) {
	query := `SELECT id, name, payment_deadline_hours, timezone, created_at, updated_at FROM buildings WHERE id = $1`
	var b db.Building
	err := q(ctx, r.DB).QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.PaymentDeadlineHours, &b.Timezone, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return db.Building{}, apperrors.ErrNotFound
		}
		return db.Building{}, fmt.Errorf("get building %s: %w", id, err)
	}
	return b, nil
}

func (r *SpaceRepository) ListSchedules(ctx context.Context, spaceID string) ([]db.AvailabilitySchedule, error) {
	query := `SELECT id, space_id, day_of_week, start_time, end_time FROM availability_schedules WHERE space_id = $1 ORDER BY day_of_week`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []db.AvailabilitySchedule
	for rows.Next() {
		var s db.AvailabilitySchedule
		if err := rows.Scan(&s.ID, &s.SpaceID, &s.DayOfWeek, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceSchedules swaps the whole weekly schedule of a space.
func (r *SpaceRepository) ReplaceSchedules(ctx context.Context, spaceID string, schedules []db.AvailabilitySchedule) ([]db.AvailabilitySchedule, error) {
	var out []db.AvailabilitySchedule
	err := withTx(ctx, r.DB, func(ctx context.Context) error {
		if _, err := q(ctx, r.DB).ExecContext(ctx, `DELETE FROM availability_schedules WHERE space_id = $1`, spaceID); err != nil {
			return fmt.Errorf("clear schedules: %w", err)
		}
		for _, s := range schedules {
			row := q(ctx, r.DB).QueryRowContext(ctx, `
				INSERT INTO availability_schedules (space_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, $4) RETURNING id`,
				spaceID, s.DayOfWeek, s.StartTime, s.EndTime)
			s.SpaceID = spaceID
			if err := row.Scan(&s.ID); err != nil {
				if isUniqueViolation(err) {
					return apperrors.BadRequest("duplicate schedule for day %d", s.DayOfWeek)
				}
				return fmt.Errorf("insert schedule: %w", err)
			}
			out = append(out, s)
		}
		return nil
	})
	return out, err
}

func (r *SpaceRepository) ListBlackouts(ctx context.Context, spaceID string) ([]db.BlackoutDate, error) {
	query := `SELECT id, space_id, to_char(date, 'YYYY-MM-DD'), reason FROM blackout_dates WHERE space_id = $1 ORDER BY date`
	rows, err := q(ctx, r.DB).QueryContext(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	defer rows.Close()

	var out []db.BlackoutDate
	for rows.Next() {
		var (
			b      db.BlackoutDate
			reason sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.SpaceID, &b.Date, &reason); err != nil {
			return nil, fmt.Errorf("scan blackout: %w", err)
		}
		b.Reason = nullString(reason)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SpaceRepository) AddBlackout(ctx context.Context, b db.BlackoutDate) (db.BlackoutDate, error) {
	err := q(ctx, r.DB).QueryRowContext(ctx,
		`INSERT INTO blackout_dates (space_id, date, reason) VALUES ($1, $2, $3) RETURNING id`,
		b.SpaceID, b.Date, b.Reason,
	).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return db.BlackoutDate{}, apperrors.BadRequest("date %s is already blacked out", b.Date)
		}
		return db.BlackoutDate{}, fmt.Errorf("insert blackout: %w", err)
	}
	return b, nil
}

func (r *SpaceRepository) DeleteBlackout(ctx context.Context, spaceID, id string) error {
	res, err := q(ctx, r.DB).ExecContext(ctx, `DELETE FROM blackout_dates WHERE id = $1 AND space_id = $2`, id, spaceID)
	if err != nil {
		if isInvalidText(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("delete blackout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
