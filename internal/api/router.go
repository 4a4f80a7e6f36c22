package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"residencehub/internal/auth"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps lists the handlers behind the router. Stripe and Stream may be nil
// when the feature is disabled.
type Deps struct {
	JWTSecret      string
	CronSecretHash string
	DB             Pinger
	Users          *UserReservationHandler
	Stream         *OccupancyStreamHandler
	Admin          *AdminHandler
	Cron           *CronHandler
	Stripe         *StripeWebhookHandler
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", health(d.DB)).Methods(http.MethodGet)

	authenticated := auth.Authenticate(d.JWTSecret)

	// User endpoints
	user := r.PathPrefix("/api").Subrouter()
	user.Use(authenticated)
	user.HandleFunc("/reservations/validate", d.Users.ValidateReservation).Methods(http.MethodPost)
	user.HandleFunc("/reservations", d.Users.CreateReservation).Methods(http.MethodPost)
	user.HandleFunc("/reservations", d.Users.ListReservations).Methods(http.MethodGet)
	user.HandleFunc("/reservations/{id}", d.Users.GetReservation).Methods(http.MethodGet)
	user.HandleFunc("/reservations/{id}/calendar.ics", d.Users.CalendarICS).Methods(http.MethodGet)
	user.HandleFunc("/reservations/{id}/payment-proof", d.Users.SubmitPaymentProof).Methods(http.MethodPost)
	user.HandleFunc("/reservations/{id}/checkout", d.Users.StartCheckout).Methods(http.MethodPost)
	user.HandleFunc("/reservations/{id}/cancel", d.Users.CancelReservation).Methods(http.MethodPost)
	user.HandleFunc("/spaces/{id}/occupancy", d.Users.Occupancy).Methods(http.MethodGet)
	if d.Stream != nil {
		user.HandleFunc("/spaces/{id}/occupancy/stream", d.Stream.Stream).Methods(http.MethodGet)
	}

	// Admin endpoints
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(authenticated, auth.RequireAdmin)
	admin.HandleFunc("/reservations", d.Admin.ListReservations).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/pending", d.Admin.ListPendingVerification).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/{id}/verify", d.Admin.VerifyPayment).Methods(http.MethodPost)
	admin.HandleFunc("/reservations/{id}/reject", d.Admin.RejectPayment).Methods(http.MethodPost)
	admin.HandleFunc("/reservations/{id}/cancel", d.Admin.CancelReservation).Methods(http.MethodPost)
	admin.HandleFunc("/spaces/{id}/schedules", d.Admin.ReplaceSchedules).Methods(http.MethodPut)
	admin.HandleFunc("/spaces/{id}/blackouts", d.Admin.ListBlackouts).Methods(http.MethodGet)
	admin.HandleFunc("/spaces/{id}/blackouts", d.Admin.AddBlackout).Methods(http.MethodPost)
	admin.HandleFunc("/spaces/{id}/blackouts/{blackoutID}", d.Admin.RemoveBlackout).Methods(http.MethodDelete)

	// Scheduler endpoints
	cron := r.PathPrefix("/internal/cron").Subrouter()
	cron.Use(auth.CronAuth(d.CronSecretHash))
	cron.HandleFunc("/expire", d.Cron.Expire).Methods(http.MethodPost)
	cron.HandleFunc("/complete", d.Cron.Complete).Methods(http.MethodPost)

	if d.Stripe != nil {
		r.HandleFunc("/webhooks/stripe", d.Stripe.HandleWebhook).Methods(http.MethodPost)
	}
	return r
}
