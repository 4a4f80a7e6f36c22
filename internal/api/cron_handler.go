package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"residencehub/internal/service"
)

type JobRunner interface {
	ExpireOverduePending(ctx context.Context) (service.SweepResult, error)
	CompleteFinished(ctx context.Context) (service.CompleteResult, error)
}

var _ JobRunner = (*service.JobService)(nil)

// CronHandler lets an external scheduler trigger the maintenance jobs.
type CronHandler struct {
	Jobs JobRunner
	log  zerolog.Logger
}

func NewCronHandler(jobs JobRunner, log zerolog.Logger) *CronHandler {
	return &CronHandler{Jobs: jobs, log: log}
}

// Expire reports partial failures with 500 along with the counts, so the
// scheduler can alert while the cancelled rows stay cancelled.
func (h *CronHandler) Expire(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.ExpireOverduePending(r.Context())
	if err != nil {
		h.log.Error().Err(err).Int("failed", result.Failed).Msg("expire sweep had failures")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  "some reservations could not be expired",
			"code":   "internal_error",
			"result": result,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CronHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.Jobs.CompleteFinished(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
