package service

import (
	"context"
	"time"

	"residencehub/internal/db"
	"residencehub/internal/repository"
)

// SpaceReader loads the catalog side of a booking.
type SpaceReader interface {
	GetSpace(ctx context.Context, id string) (db.Space, error)
	GetBuilding(ctx context.Context, id string) (db.Building, error)
	ListSchedules(ctx context.Context, spaceID string) ([]db.AvailabilitySchedule, error)
	ListBlackouts(ctx context.Context, spaceID string) ([]db.BlackoutDate, error)
}

// StatusWriter is the single write path for lifecycle transitions.
type StatusWriter interface {
	GetByID(ctx context.Context, id string) (db.Reservation, error)
	UpdateStatus(ctx context.Context, u repository.StatusUpdate) (db.Reservation, error)
}

type ReservationStore interface {
	SpaceReader
	StatusWriter
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSpaceForUpdate(ctx context.Context, id string) (db.Space, error)
	CountActiveForUser(ctx context.Context, spaceID, userID string, from, to time.Time) (int, error)
	ListActiveInWindow(ctx context.Context, spaceID string, from, to time.Time) ([]db.Reservation, error)
	Create(ctx context.Context, res *db.Reservation) error
	ListByUser(ctx context.Context, userID string, filter repository.UserFilter, now time.Time, limit, offset int) ([]db.Reservation, int, error)
	SetCheckoutSession(ctx context.Context, reservationID, sessionID string) error
	GetBySession(ctx context.Context, sessionID string) (db.Reservation, error)
	SetPaymentIntent(ctx context.Context, sessionID, paymentIntentID string) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (db.Reservation, error)
}

type AdminStore interface {
	StatusWriter
	GetSpace(ctx context.Context, id string) (db.Space, error)
	ListReservations(ctx context.Context, f repository.AdminFilter) ([]db.Reservation, int, error)
	ListPendingVerification(ctx context.Context, buildingID string) ([]db.Reservation, error)
	ReplaceSchedules(ctx context.Context, spaceID string, schedules []db.AvailabilitySchedule) ([]db.AvailabilitySchedule, error)
	ListBlackouts(ctx context.Context, spaceID string) ([]db.BlackoutDate, error)
	AddBlackout(ctx context.Context, b db.BlackoutDate) (db.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, spaceID, id string) error
}

type JobStore interface {
	ListOverduePending(ctx context.Context, now time.Time, limit int) ([]db.Reservation, error)
	CancelOverdue(ctx context.Context, id string, now time.Time, reason string) (bool, error)
	CompleteFinished(ctx context.Context, now time.Time) ([]db.Reservation, error)
}

// ContactStore resolves what notifications need to address a renter.
type ContactStore interface {
	GetContact(ctx context.Context, userID string) (db.Contact, error)
	GetSpace(ctx context.Context, id string) (db.Space, error)
}

var (
	_ ReservationStore = (*repository.Store)(nil)
	_ AdminStore       = (*repository.Store)(nil)
	_ JobStore         = (*repository.Store)(nil)
	_ ContactStore     = (*repository.Store)(nil)
)
