package entities

import (
	"time"

	"residencehub/internal/db"
)

type ReservationsList struct {
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	Reservations []ReservationResponse `json:"reservations"`
}

type ReservationResponse struct {
	ID                    string     `json:"id"`
	BuildingID            string     `json:"building_id"`
	SpaceID               string     `json:"space_id"`
	UserID                string     `json:"user_id"`
	ReferenceCode         string     `json:"reference_code"`
	StartTime             time.Time  `json:"start_time"`
	EndTime               time.Time  `json:"end_time"`
	Status                string     `json:"status"`
	PaymentAmount         *int64     `json:"payment_amount"`
	PaymentDeadline       *time.Time `json:"payment_deadline,omitempty"`
	PaymentProofURL       *string    `json:"payment_proof_url,omitempty"`
	PaymentVerifiedAt     *time.Time `json:"payment_verified_at,omitempty"`
	PaymentRejectedReason *string    `json:"payment_rejected_reason,omitempty"`
	RejectionCount        int        `json:"rejection_count"`
	CancellationReason    *string    `json:"cancellation_reason,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
	Version               int        `json:"version"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func NewReservationResponse(r db.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                    r.ID,
		BuildingID:            r.BuildingID,
		SpaceID:               r.SpaceID,
		UserID:                r.UserID,
		ReferenceCode:         r.ReferenceCode,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		Status:                string(r.Status),
		PaymentAmount:         r.PaymentAmount,
		PaymentDeadline:       r.PaymentDeadline,
		PaymentProofURL:       r.PaymentProofURL,
		PaymentVerifiedAt:     r.PaymentVerifiedAt,
		PaymentRejectedReason: r.PaymentRejectedReason,
		RejectionCount:        r.RejectionCount,
		CancellationReason:    r.CancellationReason,
		Notes:                 r.Notes,
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func NewReservationsList(rs []db.Reservation, total, limit, offset int) ReservationsList {
	out := ReservationsList{
		Total:        total,
		Limit:        limit,
		Offset:       offset,
		Reservations: make([]ReservationResponse, 0, len(rs)),
	}
	for _, r := range rs {
		out.Reservations = append(out.Reservations, NewReservationResponse(r))
	}
	return out
}
