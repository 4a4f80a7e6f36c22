package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"residencehub/internal/db"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/testutil"
)

func newReservation(f testutil.Fixture, start time.Time, d time.Duration, status db.ReservationStatus) *db.Reservation {
	amount := int64(1000)
	deadline := start.Add(-24 * time.Hour)
	return &db.Reservation{
		ID:              uuid.NewString(),
		BuildingID:      f.BuildingID,
		SpaceID:         f.SpaceID,
		UserID:          f.UserID,
		StartTime:       start,
		EndTime:         start.Add(d),
		Status:          status,
		ReferenceCode:   "RH-" + uuid.NewString()[:8],
		PaymentAmount:   &amount,
		PaymentDeadline: &deadline,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestRepositories(t *testing.T) {
	conn := testutil.NewTestDB(t)
	store := NewStore(conn)
	base := time.Now().UTC().Truncate(time.Hour).Add(72 * time.Hour)

	t.Run("create and get", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		res := newReservation(f, base, 2*time.Hour, db.StatusPendingPayment)
		require.NoError(t, store.Create(ctx, res))
		assert.Equal(t, 1, res.Version)

		got, err := store.GetByID(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, res.ReferenceCode, got.ReferenceCode)
		assert.Equal(t, db.StatusPendingPayment, got.Status)
		require.NotNil(t, got.PaymentAmount)
		assert.Equal(t, int64(1000), *got.PaymentAmount)

		_, err = store.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		_, err = store.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("exclusion constraint rejects overlapping active bookings", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		require.NoError(t, store.Create(ctx, newReservation(f, base, 2*time.Hour, db.StatusConfirmed)))
		err := store.Create(ctx, newReservation(f, base.Add(time.Hour), 2*time.Hour, db.StatusPendingPayment))
		var vErr *apperrors.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "conflict", vErr.Reason)

		// Cancelled rows do not block.
		require.NoError(t, store.Create(ctx, newReservation(f, base.Add(time.Hour), 2*time.Hour, db.StatusCancelled)))
	})

	t.Run("space lock requires a transaction", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 0, 15)

		_, err := store.GetSpaceForUpdate(ctx, f.SpaceID)
		require.Error(t, err)

		err = store.WithTx(ctx, func(txCtx context.Context) error {
			space, err := store.GetSpaceForUpdate(txCtx, f.SpaceID)
			require.NoError(t, err)
			assert.Equal(t, 15, space.GapMinutes)
			assert.Equal(t, "UTC", space.Timezone)

			schedules, err := store.ListSchedules(txCtx, f.SpaceID)
			require.NoError(t, err)
			assert.Len(t, schedules, 7)
			return nil
		})
		require.NoError(t, err)

		_, err = store.GetSpace(ctx, uuid.NewString())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("window and monthly count only see active rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		require.NoError(t, store.Create(ctx, newReservation(f, base, time.Hour, db.StatusConfirmed)))
		require.NoError(t, store.Create(ctx, newReservation(f, base.Add(3*time.Hour), time.Hour, db.StatusPendingPayment)))
		require.NoError(t, store.Create(ctx, newReservation(f, base.Add(5*time.Hour), time.Hour, db.StatusCancelled)))

		got, err := store.ListActiveInWindow(ctx, f.SpaceID, base, base.Add(6*time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.ListActiveInWindow(ctx, f.SpaceID, base.Add(time.Hour), base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, got, "touching intervals are not returned")

		n, err := store.CountActiveForUser(ctx, f.SpaceID, f.UserID, base.Add(-time.Hour), base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("guarded status update", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		res := newReservation(f, base, time.Hour, db.StatusPendingPayment)
		require.NoError(t, store.Create(ctx, res))

		proof := "https://files.example.com/proof.png"
		updated, err := store.UpdateStatus(ctx, StatusUpdate{
			ID: res.ID, From: db.StatusPendingPayment, Version: 1, To: db.StatusPaymentSubmitted,
			PaymentProofURL: &proof, At: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Equal(t, db.StatusPaymentSubmitted, updated.Status)
		assert.Equal(t, 2, updated.Version)
		require.NotNil(t, updated.PaymentProofURL)

		// The same write replayed with the stale version loses.
		_, err = store.UpdateStatus(ctx, StatusUpdate{
			ID: res.ID, From: db.StatusPendingPayment, Version: 1, To: db.StatusPaymentSubmitted, At: time.Now().UTC(),
		})
		assert.ErrorIs(t, err, apperrors.ErrStateChanged)

		reason := "blurry receipt"
		rejected, err := store.UpdateStatus(ctx, StatusUpdate{
			ID: res.ID, From: db.StatusPaymentSubmitted, Version: 2, To: db.StatusPendingPayment,
			ClearProof: true, RejectedReason: &reason, IncrementRejection: true, At: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Nil(t, rejected.PaymentProofURL)
		assert.Equal(t, 1, rejected.RejectionCount)
		require.NotNil(t, rejected.PaymentRejectedReason)
		assert.Equal(t, reason, *rejected.PaymentRejectedReason)
	})

	t.Run("sweep cancels only overdue pending rows", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)
		now := time.Now().UTC()

		overdue := newReservation(f, base, time.Hour, db.StatusPendingPayment)
		past := now.Add(-time.Minute)
		overdue.PaymentDeadline = &past
		require.NoError(t, store.Create(ctx, overdue))

		fresh := newReservation(f, base.Add(2*time.Hour), time.Hour, db.StatusPendingPayment)
		future := now.Add(time.Hour)
		fresh.PaymentDeadline = &future
		require.NoError(t, store.Create(ctx, fresh))

		list, err := store.ListOverduePending(ctx, now, 100)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, overdue.ID, list[0].ID)

		ok, err := store.CancelOverdue(ctx, overdue.ID, now, "payment deadline exceeded")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.CancelOverdue(ctx, overdue.ID, now, "payment deadline exceeded")
		require.NoError(t, err)
		assert.False(t, ok, "second sweep is a no-op")

		ok, err = store.CancelOverdue(ctx, fresh.ID, now, "payment deadline exceeded")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("complete finished", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 0, 0)

		res := newReservation(f, base, time.Hour, db.StatusConfirmed)
		require.NoError(t, store.Create(ctx, res))

		done, err := store.CompleteFinished(ctx, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, db.StatusCompleted, done[0].Status)
	})

	t.Run("schedules and blackouts", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 0, 0)

		saved, err := store.ReplaceSchedules(ctx, f.SpaceID, []db.AvailabilitySchedule{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
			{DayOfWeek: 6, StartTime: "10:00", EndTime: "14:00"},
		})
		require.NoError(t, err)
		assert.Len(t, saved, 2)

		schedules, err := store.ListSchedules(ctx, f.SpaceID)
		require.NoError(t, err)
		assert.Len(t, schedules, 2)

		b, err := store.AddBlackout(ctx, db.BlackoutDate{SpaceID: f.SpaceID, Date: "2026-12-25"})
		require.NoError(t, err)
		_, err = store.AddBlackout(ctx, db.BlackoutDate{SpaceID: f.SpaceID, Date: "2026-12-25"})
		assert.ErrorIs(t, err, apperrors.ErrBadRequest)

		list, err := store.ListBlackouts(ctx, f.SpaceID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "2026-12-25", list[0].Date)

		require.NoError(t, store.DeleteBlackout(ctx, f.SpaceID, b.ID))
		assert.ErrorIs(t, store.DeleteBlackout(ctx, f.SpaceID, b.ID), apperrors.ErrNotFound)
	})

	t.Run("contacts and stripe session", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		c, err := store.GetContact(ctx, f.UserID)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", c.Email)
		require.NotNil(t, c.Phone)

		res := newReservation(f, base, time.Hour, db.StatusPendingPayment)
		require.NoError(t, store.Create(ctx, res))
		require.NoError(t, store.SetCheckoutSession(ctx, res.ID, "cs_test_123"))

		got, err := store.GetBySession(ctx, "cs_test_123")
		require.NoError(t, err)
		assert.Equal(t, res.ID, got.ID)
		assert.Nil(t, got.StripePaymentIntentID)

		require.NoError(t, store.SetPaymentIntent(ctx, "cs_test_123", "pi_test_123"))
		got, err = store.GetByPaymentIntent(ctx, "pi_test_123")
		require.NoError(t, err)
		assert.Equal(t, res.ID, got.ID)
		require.NotNil(t, got.StripePaymentIntentID)
		assert.Equal(t, "pi_test_123", *got.StripePaymentIntentID)

		assert.ErrorIs(t, store.SetPaymentIntent(ctx, "cs_unknown", "pi_other"), apperrors.ErrNotFound)
		_, err = store.GetByPaymentIntent(ctx, "pi_other")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("admin listing filters", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, conn)
		f := testutil.InsertFixture(t, ctx, conn, 1000, 0)

		require.NoError(t, store.Create(ctx, newReservation(f, base, time.Hour, db.StatusConfirmed)))
		require.NoError(t, store.Create(ctx, newReservation(f, base.Add(2*time.Hour), time.Hour, db.StatusPaymentSubmitted)))

		all, total, err := store.ListReservations(ctx, AdminFilter{BuildingID: f.BuildingID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, all, 2)

		confirmed, total, err := store.ListReservations(ctx, AdminFilter{BuildingID: f.BuildingID, Status: db.StatusConfirmed, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, confirmed, 1)

		pending, err := store.ListPendingVerification(ctx, f.BuildingID)
		require.NoError(t, err)
		assert.Len(t, pending, 1)

		mine, total, err := store.ListByUser(ctx, f.UserID, FilterUpcoming, time.Now().UTC(), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.True(t, mine[0].StartTime.Before(mine[1].StartTime))
	})
}
