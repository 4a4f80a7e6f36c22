package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
)

type ProfileRepository struct {
	DB *sql.DB
}

func NewProfileRepository(conn *sql.DB) *ProfileRepository {
	return &ProfileRepository{DB: conn}
}

// GetContact loads the notification details of a renter.
func (r *ProfileRepository) GetContact(ctx context.Context, userID string) (db.Contact, error) {
	var (
		c     db.Contact
		phone sql.NullString
	)
	err := q(ctx, r.DB).QueryRowContext(ctx,
		`SELECT id, full_name, email, phone, locale FROM profiles WHERE id = $1`, userID,
	).Scan(&c.UserID, &c.FullName, &c.Email, &phone, &c.Locale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return db.Contact{}, apperrors.ErrNotFound
		}
		return db.Contact{}, fmt.Errorf("get contact %s: %w", userID, err)
	}
	c.Phone = nullString(phone)
	return c, nil
}
