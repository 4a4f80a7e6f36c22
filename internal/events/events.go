// Package events carries reservation changes to realtime consumers. The feed
// is advisory: it drives calendar previews, never admission decisions.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"residencehub/internal/db"
)

const (
	TypeCreated       = "reservation.created"
	TypeStatusChanged = "reservation.status_changed"
)

type Event struct {
	Type           string    `json:"type"`
	ReservationID  string    `json:"reservation_id"`
	SpaceID        string    `json:"space_id"`
	BuildingID     string    `json:"building_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Channel is the per-space topic name.
func Channel(spaceID string) string {
	return "reservations:" + spaceID
}

// Created describes a newly inserted reservation.
func Created(r db.Reservation, at time.Time) Event {
	return Event{
		Type:          TypeCreated,
		ReservationID: r.ID,
		SpaceID:       r.SpaceID,
		BuildingID:    r.BuildingID,
		Status:        string(r.Status),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		OccurredAt:    at,
	}
}

// StatusChanged describes a transition from "from" to the reservation's current status.
func StatusChanged(r db.Reservation, from db.ReservationStatus, at time.Time) Event {
	e := Created(r, at)
	e.Type = TypeStatusChanged
	e.PreviousStatus = string(from)
	return e
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return e, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Subscriber streams the events of one space until cancel is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, spaceID string) (events <-chan Event, cancel func(), err error)
}

type noop struct{}

// Noop discards every event.
func Noop() Publisher { return noop{} }

func (noop) Publish(context.Context, Event) error { return nil }
func (noop) Close() error                         { return nil }

type multi []Publisher

// Multi publishes to every publisher and joins their errors.
func Multi(pubs ...Publisher) Publisher {
	if len(pubs) == 1 {
		return pubs[0]
	}
	return multi(pubs)
}

func (m multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
