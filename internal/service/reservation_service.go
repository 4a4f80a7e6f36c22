package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"residencehub/internal/auth"
	"residencehub/internal/booking"
	"residencehub/internal/clock"
	"residencehub/internal/db"
	"residencehub/internal/entities"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/events"
	"residencehub/internal/repository"
)

const (
	maxCreateAttempts   = 3
	maxOccupancyRange   = 31 * 24 * time.Hour
	defaultOwnerCancel  = "Cancelled by owner"
	refundedReason      = "refunded"
	stripeProofPrefix   = "stripe://checkout/"
	defaultPageLimit    = 20
	maxPageLimit        = 100
	referenceCodePrefix = "RH-"
)

// ReservationService holds the renter-facing operations.
type ReservationService struct {
	lifecycle
	store                ReservationStore
	gateway              PaymentGateway
	paymentDeadlineHours int
}

func NewReservationService(store ReservationStore, clk clock.Clock, log zerolog.Logger, opts ...Option) *ReservationService {
	o := buildOptions(opts)
	s := &ReservationService{
		lifecycle:            newLifecycle(clk, log.With().Str("component", "reservations").Logger()),
		store:                store,
		gateway:              o.gateway,
		paymentDeadlineHours: o.paymentDeadlineHours,
	}
	s.apply(o)
	return s
}

// spaceVisible hides spaces of other buildings behind ErrNotFound.
func spaceVisible(actor auth.Actor, space db.Space) error {
	if actor.Role == auth.RoleSuperAdmin || space.BuildingID == actor.BuildingID {
		return nil
	}
	return apperrors.ErrNotFound
}

// canView allows the renter and the building's admins.
func canView(actor auth.Actor, r db.Reservation) error {
	if r.UserID == actor.UserID || actor.CanAdminister(r.BuildingID) {
		return nil
	}
	if actor.Role != auth.RoleSuperAdmin && r.BuildingID != actor.BuildingID {
		return apperrors.ErrNotFound
	}
	return apperrors.ErrForbidden
}

func requireUser(actor auth.Actor) error {
	if actor.UserID == "" {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func newReferenceCode() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return referenceCodePrefix + hex[:8]
}

type bookingContext struct {
	params   booking.Params
	building db.Building
}

// loadBookingContext gathers everything Validate needs. With lock set the
// space row is locked first, so it must run inside a transaction.
func (s *ReservationService) loadBookingContext(ctx context.Context, actor auth.Actor, req entities.ReservationRequest, lock bool) (bookingContext, error) {
	var (
		space db.Space
		err   error
	)
	if lock {
		space, err = s.store.GetSpaceForUpdate(ctx, req.SpaceID)
	} else {
		space, err = s.store.GetSpace(ctx, req.SpaceID)
	}
	if err != nil {
		return bookingContext{}, err
	}
	if err := spaceVisible(actor, space); err != nil {
		return bookingContext{}, err
	}

	building, err := s.store.GetBuilding(ctx, space.BuildingID)
	if err != nil {
		return bookingContext{}, err
	}
	schedules, err := s.store.ListSchedules(ctx, space.ID)
	if err != nil {
		return bookingContext{}, err
	}
	blackouts, err := s.store.ListBlackouts(ctx, space.ID)
	if err != nil {
		return bookingContext{}, err
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	monthFrom, monthTo := booking.MonthBounds(start, space.Location())
	count, err := s.store.CountActiveForUser(ctx, space.ID, actor.UserID, monthFrom, monthTo)
	if err != nil {
		return bookingContext{}, err
	}
	winFrom, winTo := booking.ConflictWindow(start, end, space.GapMinutes)
	existing, err := s.store.ListActiveInWindow(ctx, space.ID, winFrom, winTo)
	if err != nil {
		return bookingContext{}, err
	}

	return bookingContext{
		params: booking.Params{
			Space:              space,
			Schedules:          schedules,
			Blackouts:          blackouts,
			Start:              start,
			End:                end,
			Now:                s.clock.Now(),
			RenterMonthlyCount: count,
			Existing:           existing,
		},
		building: building,
	}, nil
}

func quoteResponse(q booking.Quote) *entities.QuoteResponse {
	return &entities.QuoteResponse{
		DurationMinutes: q.DurationMinutes,
		Cost:            q.Cost,
		Deposit:         q.Deposit,
		Total:           q.Total,
		PaymentRequired: q.PaymentAmount != nil,
		PaymentDeadline: q.PaymentDeadline,
	}
}

// ValidateReservation is a dry run of CreateReservation. Nothing is locked,
// so a valid answer is advisory.
func (s *ReservationService) ValidateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (entities.ValidationResponse, error) {
	if err := requireUser(actor); err != nil {
		return entities.ValidationResponse{}, err
	}
	bc, err := s.loadBookingContext(ctx, actor, req, false)
	if err != nil {
		return entities.ValidationResponse{}, err
	}
	result := booking.Validate(bc.params)
	if !result.Valid {
		return entities.ValidationResponse{Valid: false, Reason: string(result.Reason), Message: result.Message}, nil
	}
	policy := booking.PolicyFor(&bc.building, s.paymentDeadlineHours)
	quote := booking.NewQuote(bc.params.Space, policy, bc.params.Start, bc.params.End, bc.params.Now)
	return entities.ValidationResponse{Valid: true, Quote: quoteResponse(quote)}, nil
}

// CreateReservation validates and stores a booking while holding the space
// lock, so two renters racing for one slot cannot both succeed.
func (s *ReservationService) CreateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (db.Reservation, error) {
	if err := requireUser(actor); err != nil {
		return db.Reservation{}, err
	}

	var (
		res db.Reservation
		err error
	)
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		res, err = s.createOnce(ctx, actor, req)
		// A reference code collision is the only way Create reports a state change.
		if !errors.Is(err, apperrors.ErrStateChanged) {
			break
		}
	}
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.log.Info().
				Str("space_id", req.SpaceID).
				Str("user_id", actor.UserID).
				Str("reason", verr.Reason).
				Msg("reservation rejected")
		}
		return db.Reservation{}, err
	}

	s.log.Info().
		Str("reservation_id", res.ID).
		Str("space_id", res.SpaceID).
		Str("status", string(res.Status)).
		Str("reference_code", res.ReferenceCode).
		Msg("reservation created")

	kind := NotifyCreated
	if res.Status == db.StatusConfirmed {
		kind = NotifyConfirmed
	}
	s.changed(ctx, events.Created(res, res.CreatedAt), Notification{Kind: kind, Reservation: res})
	return res, nil
}

func (s *ReservationService) createOnce(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (db.Reservation, error) {
	var res db.Reservation
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		bc, err := s.loadBookingContext(ctx, actor, req, true)
		if err != nil {
			return err
		}
		p := bc.params
		if result := booking.Validate(p); !result.Valid {
			return apperrors.NewValidationError(string(result.Reason), result.Message)
		}

		quote := booking.NewQuote(p.Space, booking.PolicyFor(&bc.building, s.paymentDeadlineHours), p.Start, p.End, p.Now)
		res = db.Reservation{
			ID:              uuid.NewString(),
			BuildingID:      p.Space.BuildingID,
			SpaceID:         p.Space.ID,
			UserID:          actor.UserID,
			StartTime:       p.Start,
			EndTime:         p.End,
			Status:          booking.InitialStatus(quote.PaymentAmount),
			ReferenceCode:   newReferenceCode(),
			PaymentAmount:   quote.PaymentAmount,
			PaymentDeadline: quote.PaymentDeadline,
			CreatedAt:       p.Now,
		}
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			res.Notes = &notes
		}
		return s.store.Create(ctx, &res)
	})
	if err != nil {
		return db.Reservation{}, err
	}
	return res, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return db.Reservation{}, err
	}
	if err := canView(actor, r); err != nil {
		return db.Reservation{}, err
	}
	return r, nil
}

// ownReservation loads a reservation the actor booked.
func (s *ReservationService) ownReservation(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	if err := requireUser(actor); err != nil {
		return db.Reservation{}, err
	}
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return db.Reservation{}, err
	}
	if r.UserID == actor.UserID {
		return r, nil
	}
	if actor.Role != auth.RoleSuperAdmin && r.BuildingID != actor.BuildingID {
		return db.Reservation{}, apperrors.ErrNotFound
	}
	return db.Reservation{}, apperrors.ErrForbidden
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParseUserFilter maps the query value to a filter; empty means upcoming.
func ParseUserFilter(v string) (repository.UserFilter, error) {
	switch repository.UserFilter(v) {
	case "", repository.FilterUpcoming:
		return repository.FilterUpcoming, nil
	case repository.FilterPast, repository.FilterAll:
		return repository.UserFilter(v), nil
	}
	return "", apperrors.BadRequest("invalid filter %q", v)
}

func (s *ReservationService) ListMyReservations(ctx context.Context, actor auth.Actor, filter repository.UserFilter, limit, offset int) (entities.ReservationsList, error) {
	if err := requireUser(actor); err != nil {
		return entities.ReservationsList{}, err
	}
	limit, offset = normalizePage(limit, offset)
	rs, total, err := s.store.ListByUser(ctx, actor.UserID, filter, s.clock.Now(), limit, offset)
	if err != nil {
		return entities.ReservationsList{}, err
	}
	return entities.NewReservationsList(rs, total, limit, offset), nil
}

func (s *ReservationService) SubmitPaymentProof(ctx context.Context, actor auth.Actor, id, proofURL string) (db.Reservation, error) {
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return db.Reservation{}, apperrors.BadRequest("payment_proof_url is required")
	}
	r, err := s.ownReservation(ctx, actor, id)
	if err != nil {
		return db.Reservation{}, err
	}
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:              db.StatusPaymentSubmitted,
		PaymentProofURL: &proofURL,
	}, NotifyPaymentSubmitted, "")
}

// CancelReservation lets a renter withdraw a booking that is not yet
// confirmed, as long as the space's cancellation notice is respected.
func (s *ReservationService) CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	r, err := s.ownReservation(ctx, actor, id)
	if err != nil {
		return db.Reservation{}, err
	}
	if !booking.OwnerCanCancel(r.Status) {
		return db.Reservation{}, fmt.Errorf("owner cancel from %s: %w", r.Status, apperrors.ErrInvalidTransition)
	}
	space, err := s.store.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return db.Reservation{}, err
	}
	notice := time.Duration(space.CancellationHours) * time.Hour
	if r.StartTime.Sub(s.clock.Now()) < notice {
		return db.Reservation{}, apperrors.ErrCancellationWindow
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultOwnerCancel
	}
	by := actor.UserID
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:                 db.StatusCancelled,
		CancellationReason: &reason,
		CancelledBy:        &by,
	}, NotifyCancelled, reason)
}

// AuthorizeSpace returns the space when the actor may see its calendar.
func (s *ReservationService) AuthorizeSpace(ctx context.Context, actor auth.Actor, spaceID string) (db.Space, error) {
	if err := requireUser(actor); err != nil {
		return db.Space{}, err
	}
	space, err := s.store.GetSpace(ctx, spaceID)
	if err != nil {
		return db.Space{}, err
	}
	if err := spaceVisible(actor, space); err != nil {
		return db.Space{}, err
	}
	return space, nil
}

// Occupancy lists the busy intervals of a space in [from, to), without renter details.
func (s *ReservationService) Occupancy(ctx context.Context, actor auth.Actor, spaceID string, from, to time.Time) (entities.OccupancyResponse, error) {
	if !to.After(from) {
		return entities.OccupancyResponse{}, apperrors.BadRequest("to must be after from")
	}
	if to.Sub(from) > maxOccupancyRange {
		return entities.OccupancyResponse{}, apperrors.BadRequest("range may not exceed 31 days")
	}
	space, err := s.AuthorizeSpace(ctx, actor, spaceID)
	if err != nil {
		return entities.OccupancyResponse{}, err
	}
	winFrom, winTo := booking.ConflictWindow(from.UTC(), to.UTC(), space.GapMinutes)
	rs, err := s.store.ListActiveInWindow(ctx, space.ID, winFrom, winTo)
	if err != nil {
		return entities.OccupancyResponse{}, err
	}

	out := entities.OccupancyResponse{
		SpaceID: space.ID,
		From:    from.UTC(),
		To:      to.UTC(),
		Slots:   make([]entities.OccupiedSlot, 0, len(rs)),
	}
	for _, r := range rs {
		blockedFrom, blockedUntil := booking.BlockedWindow(r, space.GapMinutes)
		if !blockedFrom.Before(out.To) || !blockedUntil.After(out.From) {
			continue
		}
		out.Slots = append(out.Slots, entities.OccupiedSlot{
			ReservationID: r.ID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			BlockedFrom:   blockedFrom,
			BlockedUntil:  blockedUntil,
			Status:        string(r.Status),
		})
	}
	return out, nil
}

// CalendarICS exports a reservation as an iCalendar file.
func (s *ReservationService) CalendarICS(ctx context.Context, actor auth.Actor, id string) ([]byte, db.Reservation, error) {
	r, err := s.GetReservation(ctx, actor, id)
	if err != nil {
		return nil, db.Reservation{}, err
	}
	space, err := s.store.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return nil, db.Reservation{}, err
	}
	building, err := s.store.GetBuilding(ctx, r.BuildingID)
	if err != nil {
		return nil, db.Reservation{}, err
	}
	return BuildICS(r, space, building.Name, s.clock.Now()), r, nil
}

// StartCheckout opens a Stripe checkout session for a reservation awaiting payment.
func (s *ReservationService) StartCheckout(ctx context.Context, actor auth.Actor, id string) (entities.CheckoutResponse, error) {
	if s.gateway == nil {
		return entities.CheckoutResponse{}, apperrors.ErrNotConfigured
	}
	r, err := s.ownReservation(ctx, actor, id)
	if err != nil {
		return entities.CheckoutResponse{}, err
	}
	if r.Status != db.StatusPendingPayment {
		return entities.CheckoutResponse{}, fmt.Errorf("checkout from %s: %w", r.Status, apperrors.ErrInvalidTransition)
	}
	if r.IsFree() {
		return entities.CheckoutResponse{}, apperrors.BadRequest("reservation %s has nothing to pay", r.ReferenceCode)
	}
	space, err := s.store.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return entities.CheckoutResponse{}, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		ReservationID: r.ID,
		ReferenceCode: r.ReferenceCode,
		Description:   fmt.Sprintf("%s reservation %s", space.Name, r.ReferenceCode),
		Amount:        *r.PaymentAmount,
	})
	if err != nil {
		return entities.CheckoutResponse{}, err
	}
	if err := s.store.SetCheckoutSession(ctx, r.ID, sess.ID); err != nil {
		return entities.CheckoutResponse{}, err
	}
	s.log.Info().
		Str("reservation_id", r.ID).
		Str("session_id", sess.ID).
		Msg("checkout session created")
	return entities.CheckoutResponse{SessionID: sess.ID, URL: sess.URL}, nil
}

// ApplyOnlinePayment confirms the reservation paid through a completed
// checkout session. Replayed webhooks are no-ops. A payment that lands on a
// reservation which can no longer take it is refunded and reported with
// ErrPaymentRefunded.
func (s *ReservationService) ApplyOnlinePayment(ctx context.Context, sessionID, paymentIntentID string) (db.Reservation, error) {
	r, err := s.store.GetBySession(ctx, sessionID)
	if err != nil {
		return db.Reservation{}, err
	}

	proof := stripeProofPrefix + sessionID
	switch r.Status {
	case db.StatusConfirmed, db.StatusCompleted:
		if r.PaymentProofURL != nil && *r.PaymentProofURL == proof {
			return r, s.recordPaymentIntent(ctx, &r, paymentIntentID)
		}
		// Already settled by a verified transfer, so this is a second payment.
		return r, s.refundLatePayment(ctx, r, sessionID)
	case db.StatusCancelled, db.StatusRejected:
		return r, s.refundLatePayment(ctx, r, sessionID)
	}
	if err := s.recordPaymentIntent(ctx, &r, paymentIntentID); err != nil {
		return db.Reservation{}, err
	}

	switch r.Status {
	case db.StatusPendingPayment:
		r, err = s.transition(ctx, s.store, r, repository.StatusUpdate{
			To:              db.StatusPaymentSubmitted,
			PaymentProofURL: &proof,
		}, "", "")
		if err != nil {
			return db.Reservation{}, err
		}
	case db.StatusPaymentSubmitted:
	default:
		return db.Reservation{}, fmt.Errorf("online payment for %s reservation: %w", r.Status, apperrors.ErrInvalidTransition)
	}

	// The Stripe proof replaces any uploaded receipt so refunds can find it.
	at := s.clock.Now()
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:              db.StatusConfirmed,
		PaymentProofURL: &proof,
		VerifiedAt:      &at,
	}, NotifyConfirmed, "")
}

// recordPaymentIntent keeps the intent behind an accepted payment so a later
// charge.refunded event can find the reservation. Refunded payments are never
// recorded.
func (s *ReservationService) recordPaymentIntent(ctx context.Context, r *db.Reservation, paymentIntentID string) error {
	if paymentIntentID == "" || r.StripePaymentIntentID != nil {
		return nil
	}
	if err := s.store.SetPaymentIntent(ctx, *r.StripeSessionID, paymentIntentID); err != nil {
		return fmt.Errorf("record payment intent: %w", err)
	}
	r.StripePaymentIntentID = &paymentIntentID
	return nil
}

func (s *ReservationService) refundLatePayment(ctx context.Context, r db.Reservation, sessionID string) error {
	if s.gateway == nil {
		return fmt.Errorf("refund session %s: %w", sessionID, apperrors.ErrNotConfigured)
	}
	if err := s.gateway.RefundSession(ctx, sessionID); err != nil {
		return fmt.Errorf("refund late payment for reservation %s: %w", r.ID, err)
	}
	s.log.Warn().
		Str("reservation_id", r.ID).
		Str("session_id", sessionID).
		Str("status", string(r.Status)).
		Msg("online payment arrived after the reservation closed, refunded")
	return fmt.Errorf("online payment for %s reservation: %w", r.Status, apperrors.ErrPaymentRefunded)
}

// ApplyRefund cancels a reservation whose online payment was fully refunded
// outside this service, for example from the Stripe dashboard.
func (s *ReservationService) ApplyRefund(ctx context.Context, paymentIntentID string) (db.Reservation, error) {
	r, err := s.store.GetByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return db.Reservation{}, err
	}
	if booking.IsTerminal(r.Status) {
		return r, nil
	}
	reason := refundedReason
	return s.transition(ctx, s.store, r, repository.StatusUpdate{
		To:                 db.StatusCancelled,
		CancellationReason: &reason,
	}, NotifyCancelled, reason)
}
