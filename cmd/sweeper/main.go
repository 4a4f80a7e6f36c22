package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"residencehub/internal/app"
	"residencehub/internal/clock"
	"residencehub/internal/config"
	"residencehub/internal/logging"
	"residencehub/internal/repository"
	"residencehub/internal/service"
)

const jobTimeout = 2 * time.Minute

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Logger, "residencehub-sweeper")

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
	notifier := app.Notifier(cfg, store, clk, log)
	jobs := service.NewJobService(store, clk, log, app.ServiceOptions(cfg, feed, notifier, nil)...)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(cfg.Sweeper.ExpireSpec, func() { expire(ctx, jobs, log) }); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Sweeper.ExpireSpec).Msg("invalid expire schedule")
	}
	if _, err := c.AddFunc(cfg.Sweeper.CompleteSpec, func() { complete(ctx, jobs, log) }); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.Sweeper.CompleteSpec).Msg("invalid complete schedule")
	}

	c.Start()
	log.Info().
		Str("expire", cfg.Sweeper.ExpireSpec).
		Str("complete", cfg.Sweeper.CompleteSpec).
		Msg("sweeper started")

	<-ctx.Done()
	log.Info().Msg("stopping sweeper")
	<-c.Stop().Done()
}

func expire(ctx context.Context, jobs *service.JobService, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	result, err := jobs.ExpireOverduePending(ctx)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("found", result.Found).
		Int("cancelled", result.Cancelled).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("expire sweep finished")
}

func complete(ctx context.Context, jobs *service.JobService, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	result, err := jobs.CompleteFinished(ctx)
	if err != nil {
		log.Error().Err(err).Msg("complete sweep failed")
		return
	}
	log.Info().Int("completed", result.Completed).Msg("complete sweep finished")
}
