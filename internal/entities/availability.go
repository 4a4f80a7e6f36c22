package entities

import "time"

// ValidationResponse is the dry-run answer for a proposed booking.
type ValidationResponse struct {
	Valid   bool           `json:"valid"`
	Reason  string         `json:"reason,omitempty"`
	Message string         `json:"message,omitempty"`
	Quote   *QuoteResponse `json:"quote,omitempty"`
}

// OccupiedSlot is a busy interval on a space's calendar. It carries no
// renter data since every resident of the building may see it.
type OccupiedSlot struct {
	ReservationID string    `json:"reservation_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	// BlockedFrom and BlockedUntil include the space's setup/cleanup gap.
	BlockedFrom  time.Time `json:"blocked_from"`
	BlockedUntil time.Time `json:"blocked_until"`
	Status       string    `json:"status"`
}

type OccupancyResponse struct {
	SpaceID string         `json:"space_id"`
	From    time.Time      `json:"from"`
	To      time.Time      `json:"to"`
	Slots   []OccupiedSlot `json:"slots"`
}
