// Package booking holds the rules that decide whether a reservation can be
// made and how its status may change. Nothing in here performs I/O.
package booking

import "fmt"

// Reason is a machine-distinguishable rejection code.
type Reason string

const (
	ReasonFutureOnly     Reason = "future_only"
	ReasonInvalidRange   Reason = "invalid_range"
	ReasonMinAdvance     Reason = "min_advance"
	ReasonMaxAdvance     Reason = "max_advance"
	ReasonMaxDuration    Reason = "max_duration"
	ReasonMonthlyQuota   Reason = "monthly_quota"
	ReasonSpaceInactive  Reason = "space_inactive"
	ReasonDayUnavailable Reason = "day_unavailable"
	ReasonOutsideHours   Reason = "outside_hours"
	ReasonBlackout       Reason = "blackout"
	ReasonQuietHours     Reason = "quiet_hours"
	ReasonConflict       Reason = "conflict"
)

// Result is the outcome of a rule evaluation. Message is meant for end users.
type Result struct {
	Valid   bool
	Reason  Reason
	Message string
}

func accept() Result {
	return Result{Valid: true}
}

func reject(reason Reason, format string, args ...any) Result {
	return Result{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
