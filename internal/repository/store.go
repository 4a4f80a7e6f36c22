package repository

import (
	"context"
	"database/sql"
)

// Store groups the repositories that share one connection pool.
type Store struct {
	*ReservationRepository
	*SpaceRepository
	*AdminRepository
	*JobRepository
	*StripeRepository
	*ProfileRepository

	conn *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{
		ReservationRepository: NewReservationRepository(conn),
		SpaceRepository:       NewSpaceRepository(conn),
		AdminRepository:       NewAdminRepository(conn),
		JobRepository:         NewJobRepository(conn),
		StripeRepository:      NewStripeRepository(conn),
		ProfileRepository:     NewProfileRepository(conn),
		conn:                  conn,
	}
}

// WithTx runs fn in a transaction; repository calls made with the context
// passed to fn join it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.conn, fn)
}
