package booking

import (
	"time"

	"residencehub/internal/db"
)

// Params carries everything the validator needs; the caller loads it from storage.
type Params struct {
	Space     db.Space
	Schedules []db.AvailabilitySchedule
	Blackouts []db.BlackoutDate
	Start     time.Time
	End       time.Time
	Now       time.Time
	// RenterMonthlyCount is the renter's active reservations on the space
	// starting in the calendar month of Start.
	RenterMonthlyCount int
	// Existing are the other active reservations on the space near the window.
	Existing []db.Reservation
}

// Validate runs the ordered admission checks and returns the first failure.
func Validate(p Params) Result {
	if !p.Start.After(p.Now) {
		return reject(ReasonFutureOnly, "Reservation must be in the future")
	}
	if !p.End.After(p.Start) {
		return reject(ReasonInvalidRange, "End time must be after start time")
	}

	lead := p.Start.Sub(p.Now)
	if lead < time.Duration(p.Space.MinAdvanceHours)*time.Hour {
		return reject(ReasonMinAdvance, "Must book at least %d hours in advance", p.Space.MinAdvanceHours)
	}
	if lead > time.Duration(p.Space.MaxAdvanceDays)*24*time.Hour {
		return reject(ReasonMaxAdvance, "Cannot book more than %d days in advance", p.Space.MaxAdvanceDays)
	}
	if p.End.Sub(p.Start) > time.Duration(p.Space.MaxDurationHours)*time.Hour {
		return reject(ReasonMaxDuration, "Maximum duration is %d hours", p.Space.MaxDurationHours)
	}
	if p.RenterMonthlyCount >= p.Space.MaxMonthlyPerOwner {
		return reject(ReasonMonthlyQuota, "Maximum %d reservations per month", p.Space.MaxMonthlyPerOwner)
	}

	if r := CheckCalendar(p.Space, p.Schedules, p.Blackouts, p.Start, p.End); !r.Valid {
		return r
	}

	if HasConflict(p.Start, p.End, p.Space.GapMinutes, p.Existing) {
		return reject(ReasonConflict, "Time slot conflicts with an existing reservation")
	}
	return accept()
}

// MonthBounds returns the calendar month containing t in loc as [from, to).
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}

// ConflictWindow is the range of existing reservations that may conflict with [start, end).
func ConflictWindow(start, end time.Time, gapMinutes int) (time.Time, time.Time) {
	gap := GapDuration(gapMinutes)
	return start.Add(-gap), end.Add(gap)
}
