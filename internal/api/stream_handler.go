package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"residencehub/internal/events"
)

const streamHeartbeat = 25 * time.Second

// OccupancyStreamHandler pushes reservation changes of one space as
// server-sent events. Clients use it to refresh a calendar preview and must
// still go through CreateReservation for the authoritative answer.
type OccupancyStreamHandler struct {
	Service    ReservationAPI
	Subscriber events.Subscriber
	log        zerolog.Logger
	heartbeat  time.Duration
}

func NewOccupancyStreamHandler(svc ReservationAPI, sub events.Subscriber, log zerolog.Logger) *OccupancyStreamHandler {
	return &OccupancyStreamHandler{Service: svc, Subscriber: sub, log: log, heartbeat: streamHeartbeat}
}

func (h *OccupancyStreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	space, err := h.Service.AuthorizeSpace(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx := r.Context()
	feed, cancel, err := h.Subscriber.Subscribe(ctx, space.ID)
	if err != nil {
		writeError(w, r, h.log, fmt.Errorf("subscribe to %s: %w", events.Channel(space.ID), err))
		return
	}
	defer cancel()

	// The server WriteTimeout would otherwise cut every stream off.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn().Err(err).Msg("could not clear write deadline for stream")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: ready\ndata: {\"space_id\":%q}\n\n", space.ID)
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-feed:
			if !ok {
				return
			}
			body, err := json.Marshal(e)
			if err != nil {
				h.log.Warn().Err(err).Msg("failed to encode stream event")
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ReservationID, e.Type, body)
			flusher.Flush()
		}
	}
}
