package service

import (
	"context"

	"residencehub/internal/db"
)

type NotificationKind string

const (
	NotifyCreated          NotificationKind = "created"
	NotifyPaymentSubmitted NotificationKind = "payment_submitted"
	NotifyConfirmed        NotificationKind = "confirmed"
	NotifyPaymentRejected  NotificationKind = "payment_rejected"
	NotifyCancelled        NotificationKind = "cancelled"
	NotifyExpired          NotificationKind = "expired"
	NotifyCompleted        NotificationKind = "completed"
)

type Notification struct {
	Kind        NotificationKind
	Reservation db.Reservation
	Reason      string
}

// Notifier is told about every lifecycle change after it is committed.
// Implementations must not block the caller on delivery.
type Notifier interface {
	ReservationChanged(ctx context.Context, n Notification)
}

type noopNotifier struct{}

func (noopNotifier) ReservationChanged(context.Context, Notification) {}
