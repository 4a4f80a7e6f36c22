package entities

import "time"

type ReservationRequest struct {
	SpaceID   string    `json:"space_id" validate:"required,uuid"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Notes     string    `json:"notes,omitempty" validate:"max=500"`
}

type PaymentProofRequest struct {
	PaymentProofURL string `json:"payment_proof_url" validate:"required,url"`
}

// ReasonRequest is the body of cancel and reject calls.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ScheduleEntry struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type ScheduleRequest struct {
	Schedules []ScheduleEntry `json:"schedules" validate:"dive"`
}

type BlackoutRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
