package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"residencehub/internal/clock"
	"residencehub/internal/db"
	"residencehub/internal/events"
)

const expiredReason = "payment deadline exceeded"

type SweepResult struct {
	Found     int `json:"found"`
	Cancelled int `json:"cancelled"`
	// Skipped rows changed state between listing and cancelling.
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type CompleteResult struct {
	Completed int `json:"completed"`
}

// JobService runs the periodic maintenance of reservations.
type JobService struct {
	lifecycle
	store     JobStore
	batchSize int
}

func NewJobService(store JobStore, clk clock.Clock, log zerolog.Logger, opts ...Option) *JobService {
	o := buildOptions(opts)
	s := &JobService{
		lifecycle: newLifecycle(clk, log.With().Str("component", "jobs").Logger()),
		store:     store,
		batchSize: o.sweepBatchSize,
	}
	s.apply(o)
	return s
}

// ExpireOverduePending cancels reservations whose payment deadline passed.
// Each row is cancelled on its own, so one failure does not stop the rest.
// Running it twice in a row cancels nothing the second time.
func (s *JobService) ExpireOverduePending(ctx context.Context) (SweepResult, error) {
	now := s.clock.Now()
	overdue, err := s.store.ListOverduePending(ctx, now, s.batchSize)
	if err != nil {
		return SweepResult{}, fmt.Errorf("expire sweep: %w", err)
	}

	result := SweepResult{Found: len(overdue)}
	var errs []error
	for _, r := range overdue {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := s.store.CancelOverdue(ctx, r.ID, now, expiredReason)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("expire reservation %s: %w", r.ID, err))
			s.log.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to expire reservation")
			continue
		}
		if !ok {
			result.Skipped++
			continue
		}
		result.Cancelled++

		previous := r.Status
		reason := expiredReason
		r.Status = db.StatusCancelled
		r.CancellationReason = &reason
		r.Version++
		r.UpdatedAt = now
		s.changed(ctx, events.StatusChanged(r, previous, now), Notification{Kind: NotifyExpired, Reservation: r, Reason: reason})
	}

	s.log.Info().
		Int("found", result.Found).
		Int("cancelled", result.Cancelled).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("expire sweep finished")
	return result, errors.Join(errs...)
}

// CompleteFinished marks confirmed reservations that already ended as completed.
func (s *JobService) CompleteFinished(ctx context.Context) (CompleteResult, error) {
	now := s.clock.Now()
	done, err := s.store.CompleteFinished(ctx, now)
	if err != nil {
		return CompleteResult{}, fmt.Errorf("complete finished: %w", err)
	}
	for _, r := range done {
		s.changed(ctx, events.StatusChanged(r, db.StatusConfirmed, now), Notification{Kind: NotifyCompleted, Reservation: r})
	}
	if len(done) > 0 {
		s.log.Info().Int("completed", len(done)).Msg("reservations completed")
	}
	return CompleteResult{Completed: len(done)}, nil
}
