package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"residencehub/internal/auth"
	"residencehub/internal/db"
	"residencehub/internal/entities"
	apperrors "residencehub/internal/errors"
	"residencehub/internal/repository"
	"residencehub/internal/service"
)

// ReservationAPI is the renter side of service.ReservationService.
type ReservationAPI interface {
	ValidateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (entities.ValidationResponse, error)
	CreateReservation(ctx context.Context, actor auth.Actor, req entities.ReservationRequest) (db.Reservation, error)
	GetReservation(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error)
	ListMyReservations(ctx context.Context, actor auth.Actor, filter repository.UserFilter, limit, offset int) (entities.ReservationsList, error)
	SubmitPaymentProof(ctx context.Context, actor auth.Actor, id, proofURL string) (db.Reservation, error)
	CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error)
	StartCheckout(ctx context.Context, actor auth.Actor, id string) (entities.CheckoutResponse, error)
	CalendarICS(ctx context.Context, actor auth.Actor, id string) ([]byte, db.Reservation, error)
	AuthorizeSpace(ctx context.Context, actor auth.Actor, spaceID string) (db.Space, error)
	Occupancy(ctx context.Context, actor auth.Actor, spaceID string, from, to time.Time) (entities.OccupancyResponse, error)
}

var _ ReservationAPI = (*service.ReservationService)(nil)

type UserReservationHandler struct {
	Service ReservationAPI
	log     zerolog.Logger
}

func NewUserReservationHandler(svc ReservationAPI, log zerolog.Logger) *UserReservationHandler {
	return &UserReservationHandler{Service: svc, log: log}
}

func (h *UserReservationHandler) ValidateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp, err := h.Service.ValidateReservation(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.Service.CreateReservation(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.NewReservationResponse(res))
}

func (h *UserReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	filter, err := service.ParseUserFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	list, err := h.Service.ListMyReservations(r.Context(), actorFrom(r), filter, limit, offset)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UserReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetReservation(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *UserReservationHandler) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	var req entities.PaymentProofRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.Service.SubmitPaymentProof(r.Context(), actorFrom(r), mux.Vars(r)["id"], req.PaymentProofURL)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *UserReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReasonRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.Service.CancelReservation(r.Context(), actorFrom(r), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *UserReservationHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.StartCheckout(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *UserReservationHandler) CalendarICS(w http.ResponseWriter, r *http.Request) {
	body, res, err := h.Service.CalendarICS(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, res.ReferenceCode))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// occupancyRange reads from/to, defaulting to the next seven days.
func occupancyRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from, err := queryTime(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryTime(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := now
	if from != nil {
		start = *from
	}
	end := start.Add(7 * 24 * time.Hour)
	if to != nil {
		end = *to
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.BadRequest("to must be after from")
	}
	return start, end, nil
}

func (h *UserReservationHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	from, to, err := occupancyRange(r, time.Now().UTC())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	occ, err := h.Service.Occupancy(r.Context(), actorFrom(r), mux.Vars(r)["id"], from, to)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}
