package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"residencehub/internal/booking"
	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/repository"
)

type fakeTxKey struct{}

// fakeStore is an in-memory stand-in for repository.Store that keeps the
// same guard semantics as the SQL it replaces.
type fakeStore struct {
	mu           sync.Mutex
	buildings    map[string]db.Building
	spaces       map[string]db.Space
	schedules    map[string][]db.AvailabilitySchedule
	blackouts    map[string][]db.BlackoutDate
	reservations map[string]db.Reservation
	contacts     map[string]db.Contact

	// createErrs are returned by successive Create calls before any real insert.
	createErrs  []error
	cancelErrs  map[string]error
	creates     int
	txs         int
	nextID      int
	lockedSpace []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		buildings:    map[string]db.Building{},
		spaces:       map[string]db.Space{},
		schedules:    map[string][]db.AvailabilitySchedule{},
		blackouts:    map[string][]db.BlackoutDate{},
		reservations: map[string]db.Reservation{},
		contacts:     map[string]db.Contact{},
		cancelErrs:   map[string]error{},
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return prefix + "-" + strconv.Itoa(f.nextID)
}

func (f *fakeStore) put(r db.Reservation) db.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = f.id("res")
	}
	if r.Version == 0 {
		r.Version = 1
	}
	if r.ReferenceCode == "" {
		r.ReferenceCode = "RH-" + r.ID
	}
	f.reservations[r.ID] = r
	return r
}

func (f *fakeStore) get(id string) db.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.txs++
	f.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

func (f *fakeStore) GetSpace(_ context.Context, id string) (db.Space, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.spaces[id]
	if !ok {
		return db.Space{}, apperrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetSpaceForUpdate(ctx context.Context, id string) (db.Space, error) {
	if ctx.Value(fakeTxKey{}) == nil {
		return db.Space{}, errors.New("get space for update: no transaction in context")
	}
	f.mu.Lock()
	f.lockedSpace = append(f.lockedSpace, id)
	f.mu.Unlock()
	return f.GetSpace(ctx, id)
}

func (f *fakeStore) GetBuilding(_ context.Context, id string) (db.Building, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buildings[id]
	if !ok {
		return db.Building{}, apperrors.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListSchedules(_ context.Context, spaceID string) ([]db.AvailabilitySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.AvailabilitySchedule(nil), f.schedules[spaceID]...), nil
}

func (f *fakeStore) ListBlackouts(_ context.Context, spaceID string) ([]db.BlackoutDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]db.BlackoutDate(nil), f.blackouts[spaceID]...), nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return db.Reservation{}, apperrors.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) sorted(keep func(db.Reservation) bool) []db.Reservation {
	var out []db.Reservation
	for _, r := range f.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (f *fakeStore) ListActiveInWindow(_ context.Context, spaceID string, from, to time.Time) ([]db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r db.Reservation) bool {
		return r.SpaceID == spaceID && r.Status.IsActive() && r.StartTime.Before(to) && r.EndTime.After(from)
	}), nil
}

func (f *fakeStore) CountActiveForUser(_ context.Context, spaceID, userID string, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sorted(func(r db.Reservation) bool {
		return r.SpaceID == spaceID && r.UserID == userID && r.Status.IsActive() &&
			!r.StartTime.Before(from) && r.StartTime.Before(to)
	})), nil
}

func (f *fakeStore) Create(_ context.Context, res *db.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	for _, r := range f.reservations {
		if r.SpaceID == res.SpaceID && r.Status.IsActive() &&
			r.StartTime.Before(res.EndTime) && r.EndTime.After(res.StartTime) {
			return apperrors.NewValidationError(string(booking.ReasonConflict), "Time slot conflicts with an existing reservation")
		}
		if r.ReferenceCode == res.ReferenceCode {
			return apperrors.ErrStateChanged
		}
	}
	res.Version = 1
	res.UpdatedAt = res.CreatedAt
	f.reservations[res.ID] = *res
	return nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string, filter repository.UserFilter, now time.Time, limit, offset int) ([]db.Reservation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(r db.Reservation) bool {
		if r.UserID != userID {
			return false
		}
		switch filter {
		case repository.FilterUpcoming:
			return !r.EndTime.Before(now)
		case repository.FilterPast:
			return r.EndTime.Before(now)
		}
		return true
	})
	return page(all, limit, offset), len(all), nil
}

func page(rs []db.Reservation, limit, offset int) []db.Reservation {
	if offset >= len(rs) {
		return nil
	}
	rs = rs[offset:]
	if limit < len(rs) {
		rs = rs[:limit]
	}
	return rs
}

func (f *fakeStore) UpdateStatus(_ context.Context, u repository.StatusUpdate) (db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[u.ID]
	if !ok || r.Status != u.From || r.Version != u.Version {
		return db.Reservation{}, apperrors.ErrStateChanged
	}
	r.Status = u.To
	switch {
	case u.ClearProof:
		r.PaymentProofURL = nil
	case u.PaymentProofURL != nil:
		r.PaymentProofURL = u.PaymentProofURL
	}
	if u.VerifiedBy != nil {
		r.PaymentVerifiedBy = u.VerifiedBy
	}
	if u.VerifiedAt != nil {
		r.PaymentVerifiedAt = u.VerifiedAt
	}
	if u.RejectedReason != nil {
		r.PaymentRejectedReason = u.RejectedReason
	}
	if u.IncrementRejection {
		r.RejectionCount++
	}
	if u.CancellationReason != nil {
		r.CancellationReason = u.CancellationReason
	}
	if u.CancelledBy != nil {
		r.CancelledBy = u.CancelledBy
	}
	r.Version++
	r.UpdatedAt = u.At
	f.reservations[r.ID] = r
	return r, nil
}

func (f *fakeStore) SetCheckoutSession(_ context.Context, reservationID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok || r.Status != db.StatusPendingPayment {
		return apperrors.ErrStateChanged
	}
	r.StripeSessionID = &sessionID
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeStore) GetBySession(_ context.Context, sessionID string) (db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.StripeSessionID != nil && *r.StripeSessionID == sessionID {
			return r, nil
		}
	}
	return db.Reservation{}, apperrors.ErrNotFound
}

func (f *fakeStore) SetPaymentIntent(_ context.Context, sessionID, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.reservations {
		if r.StripeSessionID != nil && *r.StripeSessionID == sessionID {
			r.StripePaymentIntentID = &paymentIntentID
			f.reservations[id] = r
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) GetByPaymentIntent(_ context.Context, paymentIntentID string) (db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.StripePaymentIntentID != nil && *r.StripePaymentIntentID == paymentIntentID {
			return r, nil
		}
	}
	return db.Reservation{}, apperrors.ErrNotFound
}

func (f *fakeStore) ListReservations(_ context.Context, flt repository.AdminFilter) ([]db.Reservation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(r db.Reservation) bool {
		return r.BuildingID == flt.BuildingID &&
			(flt.Status == "" || r.Status == flt.Status) &&
			(flt.SpaceID == "" || r.SpaceID == flt.SpaceID) &&
			(flt.From == nil || !r.StartTime.Before(*flt.From)) &&
			(flt.To == nil || r.StartTime.Before(*flt.To))
	})
	return page(all, flt.Limit, flt.Offset), len(all), nil
}

func (f *fakeStore) ListPendingVerification(_ context.Context, buildingID string) ([]db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r db.Reservation) bool {
		return r.BuildingID == buildingID && r.Status == db.StatusPaymentSubmitted
	}), nil
}

func (f *fakeStore) ReplaceSchedules(_ context.Context, spaceID string, schedules []db.AvailabilitySchedule) ([]db.AvailabilitySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.AvailabilitySchedule, len(schedules))
	for i, s := range schedules {
		s.ID = f.id("sched")
		s.SpaceID = spaceID
		out[i] = s
	}
	f.schedules[spaceID] = out
	return out, nil
}

func (f *fakeStore) AddBlackout(_ context.Context, b db.BlackoutDate) (db.BlackoutDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.blackouts[b.SpaceID] {
		if existing.Date == b.Date {
			return db.BlackoutDate{}, apperrors.BadRequest("date %s is already blacked out", b.Date)
		}
	}
	b.ID = f.id("blackout")
	f.blackouts[b.SpaceID] = append(f.blackouts[b.SpaceID], b)
	return b, nil
}

func (f *fakeStore) DeleteBlackout(_ context.Context, spaceID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.blackouts[spaceID]
	for i, b := range list {
		if b.ID == id {
			f.blackouts[spaceID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) ListOverduePending(_ context.Context, now time.Time, limit int) ([]db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(r db.Reservation) bool {
		return r.Status == db.StatusPendingPayment && r.PaymentDeadline != nil && r.PaymentDeadline.Before(now)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CancelOverdue(_ context.Context, id string, now time.Time, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cancelErrs[id]; err != nil {
		return false, err
	}
	r, ok := f.reservations[id]
	if !ok || r.Status != db.StatusPendingPayment || r.PaymentDeadline == nil || !r.PaymentDeadline.Before(now) {
		return false, nil
	}
	r.Status = db.StatusCancelled
	r.CancellationReason = &reason
	r.Version++
	r.UpdatedAt = now
	f.reservations[id] = r
	return true, nil
}

func (f *fakeStore) CompleteFinished(_ context.Context, now time.Time) ([]db.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Reservation
	for id, r := range f.reservations {
		if r.Status == db.StatusConfirmed && r.EndTime.Before(now) {
			r.Status = db.StatusCompleted
			r.Version++
			r.UpdatedAt = now
			f.reservations[id] = r
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetContact(_ context.Context, userID string) (db.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[userID]
	if !ok {
		return db.Contact{}, apperrors.ErrNotFound
	}
	return c, nil
}

var (
	_ ReservationStore = (*fakeStore)(nil)
	_ AdminStore       = (*fakeStore)(nil)
	_ JobStore         = (*fakeStore)(nil)
	_ ContactStore     = (*fakeStore)(nil)
)
