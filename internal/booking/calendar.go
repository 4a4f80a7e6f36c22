package booking

import (
	"time"

	"residencehub/internal/db"
	"residencehub/internal/utils"
)

// CheckCalendar decides whether [start, end) is structurally bookable for the
// space, ignoring other reservations. Weekday, time of day and calendar date
// are all read in the building's time zone.
func CheckCalendar(space db.Space, schedules []db.AvailabilitySchedule, blackouts []db.BlackoutDate, start, end time.Time) Result {
	if !space.IsActive {
		return reject(ReasonSpaceInactive, "Space is not available")
	}

	loc := space.Location()
	localStart, localEnd := start.In(loc), end.In(loc)

	schedule, ok := scheduleFor(schedules, int(localStart.Weekday()))
	if !ok {
		return reject(ReasonDayUnavailable, "Space is not available on this day")
	}
	opens, errOpen := utils.ParseClock(schedule.StartTime)
	closes, errClose := utils.ParseClock(schedule.EndTime)
	if errOpen != nil || errClose != nil || opens >= closes {
		return reject(ReasonDayUnavailable, "Space is not available on this day")
	}

	startMin := utils.MinutesOfDay(localStart)
	endMin, sameDay := endMinutes(localStart, localEnd)
	if !sameDay || startMin < opens || endMin > closes {
		return reject(ReasonOutsideHours, "Space is available from %s to %s",
			utils.FormatClock(opens), utils.FormatClock(closes))
	}

	date := utils.DateString(localStart)
	for _, b := range blackouts {
		if b.Date == date {
			return reject(ReasonBlackout, "Space is not available on this date (blackout)")
		}
	}

	if qs, qe, ok := quietWindow(space); ok && overlapsQuietHours(startMin, endMin, qs, qe) {
		return reject(ReasonQuietHours, "Bookings may not overlap quiet hours (%s to %s)",
			utils.FormatClock(qs), utils.FormatClock(qe))
	}

	return accept()
}

func scheduleFor(schedules []db.AvailabilitySchedule, day int) (db.AvailabilitySchedule, bool) {
	for _, s := range schedules {
		if s.DayOfWeek == day {
			return s, true
		}
	}
	return db.AvailabilitySchedule{}, false
}

// endMinutes returns the end time of day and whether the booking stays on the
// start's calendar date. Midnight of the following day counts as 24:00.
func endMinutes(localStart, localEnd time.Time) (int, bool) {
	if utils.SameDate(localStart, localEnd) {
		return utils.MinutesOfDay(localEnd), true
	}
	next := localStart.AddDate(0, 0, 1)
	if utils.SameDate(next, localEnd) && utils.MinutesOfDay(localEnd) == 0 && localEnd.Second() == 0 {
		return utils.MinutesPerDay, true
	}
	return 0, false
}

func quietWindow(space db.Space) (int, int, bool) {
	if space.QuietHoursStart == nil || space.QuietHoursEnd == nil {
		return 0, 0, false
	}
	qs, err := utils.ParseClock(*space.QuietHoursStart)
	if err != nil {
		return 0, 0, false
	}
	qe, err := utils.ParseClock(*space.QuietHoursEnd)
	if err != nil || qs == qe {
		return 0, 0, false
	}
	return qs, qe, true
}

// overlapsQuietHours tests [startMin, endMin) against the quiet window.
// A window whose start is after its end wraps midnight.
func overlapsQuietHours(startMin, endMin, qs, qe int) bool {
	if qs < qe {
		return startMin < qe && endMin > qs
	}
	return endMin > qs || startMin < qe
}
