package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"residencehub/internal/auth"
	"residencehub/internal/db"
	"residencehub/internal/events"
)

var testNow = time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)

// nextMonday is a week after testNow.
var nextMonday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

const (
	buildingID      = "building-1"
	otherBuildingID = "building-2"
	spaceID         = "space-1"
	freeSpaceID     = "space-free"
	otherSpaceID    = "space-other"
	renterID        = "user-1"
	neighbourID     = "user-2"
	adminID         = "admin-1"
)

var (
	renter     = auth.Actor{UserID: renterID, Role: auth.RoleOwner, BuildingID: buildingID}
	neighbour  = auth.Actor{UserID: neighbourID, Role: auth.RoleResident, BuildingID: buildingID}
	admin      = auth.Actor{UserID: adminID, Role: auth.RoleAdmin, BuildingID: buildingID}
	otherAdmin = auth.Actor{UserID: "admin-2", Role: auth.RoleAdmin, BuildingID: otherBuildingID}
	superAdmin = auth.Actor{UserID: "root", Role: auth.RoleSuperAdmin, BuildingID: otherBuildingID}
)

func onDay(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func everyDay(space string) []db.AvailabilitySchedule {
	out := make([]db.AvailabilitySchedule, 0, 7)
	for d := 0; d < 7; d++ {
		out = append(out, db.AvailabilitySchedule{SpaceID: space, DayOfWeek: d, StartTime: "08:00", EndTime: "22:00"})
	}
	return out
}

func seededStore() *fakeStore {
	f := newFakeStore()
	f.buildings[buildingID] = db.Building{ID: buildingID, Name: "Torre Norte", PaymentDeadlineHours: 48, Timezone: "UTC"}
	f.buildings[otherBuildingID] = db.Building{ID: otherBuildingID, Name: "Torre Sur", PaymentDeadlineHours: 24, Timezone: "UTC"}

	paid := db.Space{
		ID:                 spaceID,
		BuildingID:         buildingID,
		Name:               "Rooftop Grill",
		HourlyRate:         1000,
		DepositAmount:      500,
		MinAdvanceHours:    2,
		MaxAdvanceDays:     60,
		MaxDurationHours:   4,
		MaxMonthlyPerOwner: 3,
		GapMinutes:         30,
		CancellationHours:  24,
		IsActive:           true,
		Timezone:           "UTC",
	}
	free := paid
	free.ID, free.Name, free.HourlyRate, free.DepositAmount = freeSpaceID, "Reading Room", 0, 0
	other := paid
	other.ID, other.BuildingID = otherSpaceID, otherBuildingID

	for _, s := range []db.Space{paid, free, other} {
		f.spaces[s.ID] = s
		f.schedules[s.ID] = everyDay(s.ID)
	}

	phone := "+5491100000000"
	f.contacts[renterID] = db.Contact{UserID: renterID, FullName: "Ana Pérez", Email: "ana@example.com", Phone: &phone, Locale: "en"}
	return f
}

// pending returns a reservation awaiting payment on the paid space.
func pending(start time.Time, hours int) db.Reservation {
	amount := int64(hours)*1000 + 500
	deadline := testNow.Add(48 * time.Hour)
	return db.Reservation{
		BuildingID:      buildingID,
		SpaceID:         spaceID,
		UserID:          renterID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(hours) * time.Hour),
		Status:          db.StatusPendingPayment,
		PaymentAmount:   &amount,
		PaymentDeadline: &deadline,
		CreatedAt:       testNow,
	}
}

func withStatus(r db.Reservation, s db.ReservationStatus) db.Reservation {
	r.Status = s
	return r
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	return m.Called(ctx, e).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) ReservationChanged(ctx context.Context, n Notification) {
	m.Called(ctx, n)
}

func kindIs(kind NotificationKind) any {
	return mock.MatchedBy(func(n Notification) bool { return n.Kind == kind })
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(CheckoutSession), args.Error(1)
}

func (m *mockGateway) RefundSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, e Email) error {
	return m.Called(ctx, e).Error(0)
}

type mockSMS struct {
	mock.Mock
}

func (m *mockSMS) SendSMS(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}
