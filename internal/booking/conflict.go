package booking

import (
	"time"

	"residencehub/internal/db"
)

// GapDuration converts a space's buffer setting into a duration.
func GapDuration(gapMinutes int) time.Duration {
	if gapMinutes <= 0 {
		return 0
	}
	return time.Duration(gapMinutes) * time.Minute
}

// BlockedWindow is the interval an existing reservation keeps the space busy,
// including the setup/cleanup buffer on both sides.
func BlockedWindow(r db.Reservation, gapMinutes int) (time.Time, time.Time) {
	gap := GapDuration(gapMinutes)
	return r.StartTime.Add(-gap), r.EndTime.Add(gap)
}

// FindConflicts returns the active reservations whose gap-expanded window
// overlaps [start, end). Inactive reservations are ignored.
func FindConflicts(start, end time.Time, gapMinutes int, existing []db.Reservation) []db.Reservation {
	var conflicts []db.Reservation
	for _, r := range existing {
		if !r.Status.IsActive() {
			continue
		}
		blockedFrom, blockedUntil := BlockedWindow(r, gapMinutes)
		if start.Before(blockedUntil) && end.After(blockedFrom) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// HasConflict reports whether any active reservation blocks [start, end).
func HasConflict(start, end time.Time, gapMinutes int, existing []db.Reservation) bool {
	return len(FindConflicts(start, end, gapMinutes, existing)) > 0
}
