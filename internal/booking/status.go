package booking

import "residencehub/internal/db"

// transitions is the full lifecycle graph. Statuses without an entry are terminal.
var transitions = map[db.ReservationStatus][]db.ReservationStatus{
	db.StatusPendingPayment:   {db.StatusPaymentSubmitted, db.StatusCancelled},
	db.StatusPaymentSubmitted: {db.StatusConfirmed, db.StatusPendingPayment, db.StatusCancelled},
	db.StatusConfirmed:        {db.StatusCancelled, db.StatusCompleted},
}

// OwnerCancellable lists the statuses a renter may cancel from.
var OwnerCancellable = []db.ReservationStatus{db.StatusPendingPayment, db.StatusPaymentSubmitted}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to db.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s db.ReservationStatus) bool {
	return len(transitions[s]) == 0
}

// InitialStatus is the status a new reservation is stored with.
// Free bookings skip payment and are confirmed immediately.
func InitialStatus(paymentAmount *int64) db.ReservationStatus {
	if paymentAmount == nil {
		return db.StatusConfirmed
	}
	return db.StatusPendingPayment
}

func containsStatus(list []db.ReservationStatus, s db.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OwnerCanCancel reports whether a renter may cancel a reservation in status s.
func OwnerCanCancel(s db.ReservationStatus) bool {
	return containsStatus(OwnerCancellable, s)
}
