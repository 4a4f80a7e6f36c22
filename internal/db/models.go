package db

import (
	"sync"
	"time"
)

type ReservationStatus string

const (
	StatusPendingPayment   ReservationStatus = "pending_payment"
	StatusPaymentSubmitted ReservationStatus = "payment_submitted"
	StatusConfirmed        ReservationStatus = "confirmed"
	StatusCancelled        ReservationStatus = "cancelled"
	StatusCompleted        ReservationStatus = "completed"
	StatusRejected         ReservationStatus = "rejected"
)

// ActiveStatuses are the statuses that occupy a space's calendar.
var ActiveStatuses = []ReservationStatus{StatusPendingPayment, StatusPaymentSubmitted, StatusConfirmed}

// IsActive reports whether the status blocks the space for other renters.
func (s ReservationStatus) IsActive() bool {
	for _, a := range ActiveStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusPaymentSubmitted, StatusConfirmed,
		StatusCancelled, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

type Building struct {
	ID                   string
	Name                 string
	PaymentDeadlineHours int
	Timezone             string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Space is a bookable amenity. Money amounts are in minor currency units.
type Space struct {
	ID                 string
	BuildingID         string
	Name               string
	Capacity           *int
	HourlyRate         int64
	DepositAmount      int64
	RequiresApproval   bool
	MinAdvanceHours    int
	MaxAdvanceDays     int
	MaxDurationHours   int
	MaxMonthlyPerOwner int
	GapMinutes         int
	QuietHoursStart    *string
	QuietHoursEnd      *string
	CancellationHours  int
	IsActive           bool
	// Timezone is the owning building's IANA zone.
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var locations sync.Map

// Location resolves the building time zone, falling back to UTC.
func (s Space) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	if loc, ok := locations.Load(s.Timezone); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	locations.Store(s.Timezone, loc)
	return loc
}

type AvailabilitySchedule struct {
	ID        string
	SpaceID   string
	DayOfWeek int    // 0-6 (Sunday-Saturday)
	StartTime string // "09:00"
	EndTime   string // "17:00"
}

type BlackoutDate struct {
	ID      string
	SpaceID string
	Date    string // "2006-01-02"
	Reason  *string
}

type Reservation struct {
	ID                    string
	BuildingID            string
	SpaceID               string
	UserID                string
	StartTime             time.Time
	EndTime               time.Time
	Status                ReservationStatus
	ReferenceCode         string
	PaymentAmount         *int64
	PaymentProofURL       *string
	PaymentDeadline       *time.Time
	PaymentVerifiedBy     *string
	PaymentVerifiedAt     *time.Time
	PaymentRejectedReason *string
	RejectionCount        int
	CancellationReason    *string
	CancelledBy           *string
	StripeSessionID       *string
	StripePaymentIntentID *string
	Notes                 *string
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsFree reports whether the booking carries no payment.
func (r Reservation) IsFree() bool {
	return r.PaymentAmount == nil
}

// Contact is the subset of a renter profile used for notifications.
type Contact struct {
	UserID   string
	FullName string
	Email    string
	Phone    *string
	Locale   string
}
