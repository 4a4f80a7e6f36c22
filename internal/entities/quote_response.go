package entities

import "time"

type QuoteResponse struct {
	DurationMinutes int64      `json:"duration_minutes"`
	Cost            int64      `json:"cost"`
	Deposit         int64      `json:"deposit"`
	Total           int64      `json:"total"`
	PaymentRequired bool       `json:"payment_required"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
}
