package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"residencehub/internal/auth"
	"residencehub/internal/db"
	"residencehub/internal/entities"
	"residencehub/internal/repository"
	"residencehub/internal/service"
)

type AdminAPI interface {
	ListReservations(ctx context.Context, actor auth.Actor, f repository.AdminFilter) (entities.ReservationsList, error)
	ListPendingVerification(ctx context.Context, actor auth.Actor, buildingID string) ([]db.Reservation, error)
	VerifyPayment(ctx context.Context, actor auth.Actor, id string) (db.Reservation, error)
	RejectPayment(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error)
	CancelReservation(ctx context.Context, actor auth.Actor, id, reason string) (db.Reservation, error)
	ReplaceSchedules(ctx context.Context, actor auth.Actor, spaceID string, entries []entities.ScheduleEntry) ([]db.AvailabilitySchedule, error)
	ListBlackouts(ctx context.Context, actor auth.Actor, spaceID string) ([]db.BlackoutDate, error)
	AddBlackout(ctx context.Context, actor auth.Actor, spaceID string, req entities.BlackoutRequest) (db.BlackoutDate, error)
	RemoveBlackout(ctx context.Context, actor auth.Actor, spaceID, blackoutID string) error
}

var _ AdminAPI = (*service.AdminService)(nil)

type AdminHandler struct {
	Service AdminAPI
	log     zerolog.Logger
}

func NewAdminHandler(svc AdminAPI, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, log: log}
}

type scheduleResponse struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type blackoutResponse struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}

func toBlackoutResponse(b db.BlackoutDate) blackoutResponse {
	return blackoutResponse{ID: b.ID, Date: b.Date, Reason: b.Reason}
}

func (h *AdminHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.AdminFilter{
		BuildingID: q.Get("building_id"),
		Status:     db.ReservationStatus(q.Get("status")),
		SpaceID:    q.Get("space_id"),
	}
	var err error
	if f.From, err = queryTime(r, "date_from"); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if f.To, err = queryTime(r, "date_to"); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	list, err := h.Service.ListReservations(r.Context(), actorFrom(r), f)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) ListPendingVerification(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Service.ListPendingVerification(r.Context(), actorFrom(r), r.URL.Query().Get("building_id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationsList(rs, len(rs), len(rs), 0))
}

func (h *AdminHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.VerifyPayment(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *AdminHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	var req entities.ReasonRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.Service.RejectPayment(r.Context(), actorFrom(r), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *AdminHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
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

func (h *AdminHandler) ReplaceSchedules(w http.ResponseWriter, r *http.Request) {
	var req entities.ScheduleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.Service.ReplaceSchedules(r.Context(), actorFrom(r), mux.Vars(r)["id"], req.Schedules)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp := make([]scheduleResponse, 0, len(out))
	for _, s := range out {
		resp = append(resp, scheduleResponse{ID: s.ID, DayOfWeek: s.DayOfWeek, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) ListBlackouts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListBlackouts(r.Context(), actorFrom(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	resp := make([]blackoutResponse, 0, len(list))
	for _, b := range list {
		resp = append(resp, toBlackoutResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) AddBlackout(w http.ResponseWriter, r *http.Request) {
	var req entities.BlackoutRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	b, err := h.Service.AddBlackout(r.Context(), actorFrom(r), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlackoutResponse(b))
}

func (h *AdminHandler) RemoveBlackout(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Service.RemoveBlackout(r.Context(), actorFrom(r), vars["id"], vars["blackoutID"]); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
