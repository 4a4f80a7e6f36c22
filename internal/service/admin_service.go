package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"residencehub/internal/auth"
	"residencehub/internal/clock"
	"residencehub/internal/db"
	"residencehub/internal/entities"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/repository"
	"residencehub/internal/utils"
)

// AdminService holds the building administration operations. Every call
// is scoped to the buildings the actor administers.
type AdminService struct {
	lifecycle
	store   AdminStore
	gateway PaymentGateway
}

func NewAdminService(store AdminStore, clk clock.Clock, log zerolog.Logger, opts ...Option) *AdminService {
	o := buildOptions(opts)
	s := &AdminService{
		lifecycle: newLifecycle(clk, log.With().Str("component", "admin").Logger()),
		store:     store,
		gateway:   o.gateway,
	}
	s.apply(o)
	return s
}

func requireAdmin(actor auth.Actor) error {
	if actor.UserID == "" {
		return apperrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}

// scopeBuilding resolves which building a listing applies to.
func scopeBuilding(actor auth.Actor, buildingID string) (string, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	if buildingID == "" {
		buildingID = actor.BuildingID
	}
	if buildingID == "" {
		return "", apperrors.BadRequest("building_id is required")
	}
	if !actor.CanAdminister(buildingID) {
		return "", apperrors.ErrForbidden
	}
	return buildingID, nil
}

func (s *AdminService) reservation(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	if err := requireAdmin(actor); err != nil {
		return db.Reservation{}, err
	}
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return db.Reservation{}, err
	}
	if !actor.CanAdminister(r.BuildingID) {
		return db.Reservation{}, apperrors.ErrNotFound
	}
	return r, nil
}

func (s *AdminService) space(ctx context.Context, actor auth.Actor, id string) (db.Space, error) {
	if err := requireAdmin(actor); err != nil {
		return db.Space{}, err
	}
	space, err := s.store.GetSpace(ctx, id)
	if err != nil {
		return db.Space{}, err
	}
	if !actor.CanAdminister(space.BuildingID) {
		return db.Space{}, apperrors.ErrNotFound
	}
	return space, nil
}

func (s *AdminService) ListReservations(ctx context.Context, actor auth.Actor, f repository.AdminFilter) (entities.ReservationsList, error) {
	buildingID, err := scopeBuilding(actor, f.BuildingID)
	if err != nil {
		return entities.ReservationsList{}, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return entities.ReservationsList{}, apperrors.BadRequest("invalid status %q", f.Status)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return entities.ReservationsList{}, apperrors.BadRequest("date_to is before date_from")
	}
	f.BuildingID = buildingID
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)

	rs, total, err := s.store.ListReservations(ctx, f)
	if err != nil {
		return entities.ReservationsList{}, err
	}
	return entities.NewReservationsList(rs, total, f.Limit, f.Offset), nil
}

// ListPendingVerification is the queue of submitted payment proofs, oldest first.
func (s *AdminService) ListPendingVerification(ctx context.Context, actor auth.Actor, buildingID string) ([]db.Reservation, error) {
	buildingID, err := scopeBuilding(actor, buildingID)
	if err != nil {
		return nil, err
	}
	return s.store.ListPendingVerification(ctx, buildingID)
}

func (s *AdminService) VerifyPayment(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	r, err := s.reservation(ctx, actor, id)
	if err != nil {
		return db.Reservation{}, err
	}
	by, at := actor.UserID, s.clock.Now()
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:         db.StatusConfirmed,
		VerifiedBy: &by,
		VerifiedAt: &at,
	}, NotifyConfirmed, "")
}

// RejectPayment sends a submitted proof back to the renter, who may upload
// another one before the deadline.
func (s *AdminService) RejectPayment(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return db.Reservation{}, apperrors.ErrReasonRequired
	}
	r, err := s.reservation(ctx, actor, id)
	if err != nil {
		return db.Reservation{}, err
	}
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:                 db.StatusPendingPayment,
		ClearProof:         true,
		RejectedReason:     &reason,
		IncrementRejection: true,
	}, NotifyPaymentRejected, reason)
}

func (s *AdminService) CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return db.Reservation{}, apperrors.ErrReasonRequired
	}
	r, err := s.reservation(ctx, actor, id)
	if err != nil {
		return db.Reservation{}, err
	}
	by := actor.UserID
	updated, err := s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:                 db.StatusCancelled,
		CancellationReason: &reason,
		CancelledBy:        &by,
	}, NotifyCancelled, reason)
	if err != nil {
		return db.Reservation{}, err
	}
	s.refund(ctx, r)
	return updated, nil
}

// paidOnline reports whether Stripe collected the payment. A recorded payment
// intent is authoritative; older rows fall back to the Stripe proof marker.
func paidOnline(r db.Reservation) bool {
	if r.StripeSessionID == nil {
		return false
	}
	if r.StripePaymentIntentID != nil {
		return true
	}
	return r.PaymentProofURL != nil && strings.HasPrefix(*r.PaymentProofURL, stripeProofPrefix)
}

// refund returns an online payment. The cancellation stands even when the
// refund fails; the failure is left for manual follow-up.
func (s *AdminService) refund(ctx context.Context, r db.Reservation) {
	if s.gateway == nil || !paidOnline(r) {
		return
	}
	if err := s.gateway.RefundSession(ctx, *r.StripeSessionID); err != nil {
		s.log.Error().Err(err).
			Str("reservation_id", r.ID).
			Str("session_id", *r.StripeSessionID).
			Msg("refund failed")
		return
	}
	s.log.Info().Str("reservation_id", r.ID).Msg("payment refunded")
}

// ReplaceSchedules swaps the weekly schedule of a space. Days left out
// become unavailable.
func (s *AdminService) ReplaceSchedules(ctx context.Context, actor auth.Actor, spaceID string, entries []entities.ScheduleEntry) ([]db.AvailabilitySchedule, error) {
	space, err := s.space(ctx, actor, spaceID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(entries))
	schedules := make([]db.AvailabilitySchedule, 0, len(entries))
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return nil, apperrors.BadRequest("day_of_week %d out of range", e.DayOfWeek)
		}
		if seen[e.DayOfWeek] {
			return nil, apperrors.BadRequest("duplicate schedule for day %d", e.DayOfWeek)
		}
		seen[e.DayOfWeek] = true

		open, err := utils.ParseClock(e.StartTime)
		if err != nil {
			return nil, apperrors.BadRequest("%v", err)
		}
		closing, err := utils.ParseClock(e.EndTime)
		if err != nil {
			return nil, apperrors.BadRequest("%v", err)
		}
		if closing <= open {
			return nil, apperrors.BadRequest("schedule for day %d must end after it starts", e.DayOfWeek)
		}
		schedules = append(schedules, db.AvailabilitySchedule{
			SpaceID:   space.ID,
			DayOfWeek: e.DayOfWeek,
			StartTime: utils.FormatClock(open),
			EndTime:   utils.FormatClock(closing),
		})
	}

	out, err := s.store.ReplaceSchedules(ctx, space.ID, schedules)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("space_id", space.ID).Int("days", len(out)).Msg("schedules replaced")
	return out, nil
}

func (s *AdminService) ListBlackouts(ctx context.Context, actor auth.Actor, spaceID string) ([]db.BlackoutDate, error) {
	space, err := s.space(ctx, actor, spaceID)
	if err != nil {
		return nil, err
	}
	return s.store.ListBlackouts(ctx, space.ID)
}

// AddBlackout closes a space for a whole local date. Existing reservations
// on that date are left alone.
func (s *AdminService) AddBlackout(ctx context.Context, actor auth.Actor, spaceID string, req entities.BlackoutRequest) (db.BlackoutDate, error) {
	space, err := s.space(ctx, actor, spaceID)
	if err != nil {
		return db.BlackoutDate{}, err
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return db.BlackoutDate{}, apperrors.BadRequest("invalid date %q", req.Date)
	}
	b := db.BlackoutDate{SpaceID: space.ID, Date: req.Date}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		b.Reason = &reason
	}
	out, err := s.store.AddBlackout(ctx, b)
	if err != nil {
		return db.BlackoutDate{}, err
	}
	s.log.Info().Str("space_id", space.ID).Str("date", out.Date).Msg("blackout added")
	return out, nil
}

func (s *AdminService) RemoveBlackout(ctx context.Context, actor auth.Actor, spaceID, blackoutID string) error {
	space, err := s.space(ctx, actor, spaceID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBlackout(ctx, space.ID, blackoutID); err != nil {
		return fmt.Errorf("remove blackout %s: %w", blackoutID, err)
	}
	return nil
}
