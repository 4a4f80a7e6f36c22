package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"residencehub/internal/booking"
	"residencehub/internal/clock"
	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/events"
	"residencehub/internal/repository"
)

// lifecycle applies guarded status transitions and fans out their side
// effects. It is shared by the renter, admin and job services.
type lifecycle struct {
	clock     clock.Clock
	publisher events.Publisher
	notifier  Notifier
	log       zerolog.Logger
}

func newLifecycle(clk clock.Clock, log zerolog.Logger) lifecycle {
	return lifecycle{
		clock:     clk,
		publisher: events.Noop(),
		notifier:  noopNotifier{},
		log:       log,
	}
}

// transition moves current to u.To. The in-memory status check only gives a
// friendlier error; the guarded UPDATE is what enforces it.
func (l *lifecycle) transition(ctx context.Context, store StatusWriter, current db.Reservation, u repository.StatusUpdate, kind NotificationKind, reason string) (db.Reservation, error) {
	if !booking.CanTransition(current.Status, u.To) {
		return db.Reservation{}, fmt.Errorf("%s -> %s: %w", current.Status, u.To, apperrors.ErrInvalidTransition)
	}
	u.ID = current.ID
	u.From = current.Status
	u.Version = current.Version
	u.At = l.clock.Now()

	updated, err := store.UpdateStatus(ctx, u)
	if err != nil {
		return db.Reservation{}, err
	}

	l.log.Info().
		Str("reservation_id", updated.ID).
		Str("space_id", updated.SpaceID).
		Str("from", string(current.Status)).
		Str("status", string(updated.Status)).
		Msg("reservation status changed")

	l.changed(ctx, events.StatusChanged(updated, current.Status, u.At), Notification{Kind: kind, Reservation: updated, Reason: reason})
	return updated, nil
}

// changed publishes the event and notifies. Failures are logged, never
// returned: the state change is already committed.
func (l *lifecycle) changed(ctx context.Context, e events.Event, n Notification) {
	if err := l.publisher.Publish(ctx, e); err != nil {
		l.log.Warn().Err(err).
			Str("reservation_id", e.ReservationID).
			Str("event", e.Type).
			Msg("failed to publish reservation event")
	}
	if n.Kind != "" {
		l.notifier.ReservationChanged(ctx, n)
	}
}
