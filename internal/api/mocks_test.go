package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"residencehub/internal/auth"
	"residencehub/internal/db"
	"residencehub/internal/entities"
	"residencehub/internal/repository"
	"residencehub/internal/service"
)

type mockReservations struct {
	mock.Mock
}

func (m *mockReservations) ValidateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (entities.ValidationResponse, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(entities.ValidationResponse), args.Error(1)
}

func (m *mockReservations) CreateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (db.Reservation, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockReservations) GetReservation(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockReservations) ListMyReservations(ctx context.Context, actor auth.Actor, filter repository.UserFilter, limit, offset int) (entities.ReservationsList, error) {
	args := m.Called(ctx, actor, filter, limit, offset)
	return args.Get(0).(entities.ReservationsList), args.Error(1)
}

func (m *mockReservations) SubmitPaymentProof(ctx context.Context, actor auth.Actor, id, proofURL string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id, proofURL)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockReservations) CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id, reason)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockReservations) StartCheckout(ctx context.Context, actor auth.Actor, id string) (entities.CheckoutResponse, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(entities.CheckoutResponse), args.Error(1)
}

func (m *mockReservations) CalendarICS(ctx context.Context, actor auth.Actor, id string) ([]byte, db.Reservation, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).([]byte), args.Get(1).(db.Reservation), args.Error(2)
}

func (m *mockReservations) AuthorizeSpace(ctx context.Context, actor auth.Actor, spaceID string) (db.Space, error) {
	args := m.Called(ctx, actor, spaceID)
	return args.Get(0).(db.Space), args.Error(1)
}

func (m *mockReservations) Occupancy(ctx context.Context, actor auth.Actor, spaceID string, from, to time.Time) (entities.OccupancyResponse, error) {
	args := m.Called(ctx, actor, spaceID, from, to)
	return args.Get(0).(entities.OccupancyResponse), args.Error(1)
}

func (m *mockReservations) ApplyOnlinePayment(ctx context.Context, sessionID, paymentIntentID string) (db.Reservation, error) {
	args := m.Called(ctx, sessionID, paymentIntentID)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockReservations) ApplyRefund(ctx context.Context, paymentIntentID string) (db.Reservation, error) {
	args := m.Called(ctx, paymentIntentID)
	return args.Get(0).(db.Reservation), args.Error(1)
}

type mockAdmin struct {
	mock.Mock
}

func (m *mockAdmin) ListReservations(ctx context.Context, actor auth.Actor, f repository.AdminFilter) (entities.ReservationsList, error) {
	args := m.Called(ctx, actor, f)
	return args.Get(0).(entities.ReservationsList), args.Error(1)
}

func (m *mockAdmin) ListPendingVerification(ctx context.Context, actor auth.Actor, buildingID string) ([]db.Reservation, error) {
	args := m.Called(ctx, actor, buildingID)
	return args.Get(0).([]db.Reservation), args.Error(1)
}

func (m *mockAdmin) VerifyPayment(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockAdmin) RejectPayment(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id, reason)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockAdmin) CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error) {
	args := m.Called(ctx, actor, id, reason)
	return args.Get(0).(db.Reservation), args.Error(1)
}

func (m *mockAdmin) ReplaceSchedules(ctx context.Context, actor auth.Actor, spaceID string, entries []entities.ScheduleEntry) ([]db.AvailabilitySchedule, error) {
	args := m.Called(ctx, actor, spaceID, entries)
	return args.Get(0).([]db.AvailabilitySchedule), args.Error(1)
}

func (m *mockAdmin) ListBlackouts(ctx context.Context, actor auth.Actor, spaceID string) ([]db.BlackoutDate, error) {
	args := m.Called(ctx, actor, spaceID)
	return args.Get(0).([]db.BlackoutDate), args.Error(1)
}

func (m *mockAdmin) AddBlackout(ctx context.Context, actor auth.Actor, spaceID string, req entities.BlackoutRequest) (db.BlackoutDate, error) {
	args := m.Called(ctx, actor, spaceID, req)
	return args.Get(0).(db.BlackoutDate), args.Error(1)
}

func (m *mockAdmin) RemoveBlackout(ctx context.Context, actor auth.Actor, spaceID, blackoutID string) error {
	return m.Called(ctx, actor, spaceID, blackoutID).Error(0)
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) ExpireOverduePending(ctx context.Context) (service.SweepResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.SweepResult), args.Error(1)
}

func (m *mockJobs) CompleteFinished(ctx context.Context) (service.CompleteResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.CompleteResult), args.Error(1)
}
