package booking

import (
	"time"

	"residencehub/internal/db"
)

// DefaultPaymentDeadlineHours applies when a building sets no policy.
const DefaultPaymentDeadlineHours = 48

// Policy is the building-level configuration that affects pricing.
type Policy struct {
	PaymentDeadlineHours int
}

// PolicyFor derives the pricing policy of a building.
func PolicyFor(b *db.Building, fallbackHours int) Policy {
	hours := fallbackHours
	if hours <= 0 {
		hours = DefaultPaymentDeadlineHours
	}
	if b != nil && b.PaymentDeadlineHours > 0 {
		hours = b.PaymentDeadlineHours
	}
	return Policy{PaymentDeadlineHours: hours}
}

type Quote struct {
	DurationMinutes int64
	Cost            int64
	Deposit         int64
	Total           int64
	// PaymentAmount is nil when the booking is free.
	PaymentAmount   *int64
	PaymentDeadline *time.Time
}

// NewQuote prices [start, end) for the space. Cost is rounded half up to the
// nearest minor unit.
func NewQuote(space db.Space, policy Policy, start, end, now time.Time) Quote {
	minutes := int64(end.Sub(start) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	cost := (minutes*space.HourlyRate + 30) / 60
	q := Quote{
		DurationMinutes: minutes,
		Cost:            cost,
		Deposit:         space.DepositAmount,
		Total:           cost + space.DepositAmount,
	}
	if q.Total > 0 {
		total := q.Total
		deadline := now.Add(time.Duration(policy.PaymentDeadlineHours) * time.Hour)
		q.PaymentAmount = &total
		q.PaymentDeadline = &deadline
	}
	return q
}
