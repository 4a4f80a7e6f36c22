package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"residencehub/internal/api"
	"residencehub/internal/app"
	"residencehub/internal/clock"
	"residencehub/internal/config"
	"residencehub/internal/logging"
	"residencehub/internal/repository"
	"residencehub/internal/service"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Logger, "residencehub-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := app.OpenDB(ctx, cfg.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	feed, err := app.OpenFeed(ctx, cfg.Events, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open change feed")
	}
	defer feed.Publisher.Close()

	store := repository.NewStore(db)
	clk := clock.NewSystem()
	gateway := app.PaymentGateway(cfg.Stripe)
	notifier := app.Notifier(cfg, store, clk, log)
	opts := app.ServiceOptions(cfg, feed, notifier, gateway)

	reservations := service.NewReservationService(store, clk, log, opts...)
	admin := service.NewAdminService(store, clk, log, opts...)
	jobs := service.NewJobService(store, clk, log, opts...)

	deps := api.Deps{
		JWTSecret:      cfg.Auth.JWTSecret,
		CronSecretHash: cfg.Auth.CronSecretHash,
		DB:             db,
		Users:          api.NewUserReservationHandler(reservations, log),
		Admin:          api.NewAdminHandler(admin, log),
		Cron:           api.NewCronHandler(jobs, log),
	}
	if feed.Subscriber != nil {
		deps.Stream = api.NewOccupancyStreamHandler(reservations, feed.Subscriber, log)
	}
	if cfg.Stripe.Enabled() && cfg.Stripe.WebhookSecret != "" {
		deps.Stripe = api.NewStripeWebhookHandler(cfg.Stripe.WebhookSecret, reservations, log)
	}
	if cfg.Auth.CronSecretHash == "" {
		log.Warn().Msg("CRON_SECRET_HASH not set, /internal/cron endpoints are disabled")
	}

	router := api.NewRouter(deps)
	var handler http.Handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(router)
	handler = handlers.CombinedLoggingHandler(logging.Writer(log), handler)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
