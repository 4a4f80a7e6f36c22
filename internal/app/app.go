// Package app wires configuration into the concrete stores, feeds and
// senders shared by the server and sweeper binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"residencehub/internal/clock"
	"residencehub/internal/config"
	"residencehub/internal/events"
	"residencehub/internal/service"
	"residencehub/migrations"
)

// OpenDB connects to Postgres, checks the connection and applies pending
// migrations when enabled.
func OpenDB(ctx context.Context, cfg config.PostgresConfig, log zerolog.Logger) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migrations.Apply(conn); err != nil {
			conn.Close()
			return nil, err
		}
		log.Info().Msg("database migrations applied")
	}
	return conn, nil
}

// Feed is the change feed: every configured driver receives published
// events, and Subscriber is the one the occupancy stream listens on.
type Feed struct {
	Publisher  events.Publisher
	Subscriber events.Subscriber
}

// OpenFeed connects the configured event drivers. Subscriber is nil when
// neither memory nor redis is enabled.
func OpenFeed(ctx context.Context, cfg config.EventsConfig, log zerolog.Logger) (*Feed, error) {
	var (
		pubs []events.Publisher
		sub  events.Subscriber
	)
	closeAll := func() {
		for _, p := range pubs {
			p.Close()
		}
	}
	for _, driver := range cfg.Drivers {
		switch driver {
		case "memory":
			m := events.NewMemory(16)
			pubs = append(pubs, m)
			if sub == nil {
				sub = m
			}
		case "redis":
			r, err := events.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix, log)
			if err != nil {
				closeAll()
				return nil, err
			}
			pubs = append(pubs, r)
			// Redis fans out across replicas, so it wins over memory.
			sub = r
		case "amqp":
			a, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
			if err != nil {
				closeAll()
				return nil, err
			}
			log.Info().Str("exchange", cfg.AMQPExchange).Msg("amqp change feed connected")
			pubs = append(pubs, a)
		}
	}
	if len(pubs) == 0 {
		return &Feed{Publisher: events.Noop()}, nil
	}
	return &Feed{Publisher: events.Multi(pubs...), Subscriber: sub}, nil
}

// Notifier builds the email/SMS notifier, or nil when no channel is configured.
func Notifier(cfg *config.Config, contacts service.ContactStore, clk clock.Clock, log zerolog.Logger) service.Notifier {
	var (
		mailer service.Mailer
		sms    service.SMSSender
	)
	if cfg.SendGrid.APIKey != "" {
		mailer = service.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		log.Warn().Msg("SENDGRID_API_KEY not set, email notifications disabled")
	}
	if cfg.Twilio.Enabled() {
		sms = service.NewTwilioSMS(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, log)
	}
	if mailer == nil && sms == nil {
		return nil
	}
	return service.NewNotifyService(contacts, mailer, sms, clk, log)
}

// PaymentGateway returns the Stripe gateway, or nil when Stripe is not configured.
func PaymentGateway(cfg config.StripeConfig) service.PaymentGateway {
	if !cfg.Enabled() {
		return nil
	}
	return service.NewStripeService(cfg.SecretKey, cfg.Currency, cfg.SuccessURL, cfg.CancelURL)
}

// ServiceOptions collects the options shared by every service.
func ServiceOptions(cfg *config.Config, feed *Feed, notifier service.Notifier, gateway service.PaymentGateway) []service.Option {
	opts := []service.Option{
		service.WithPublisher(feed.Publisher),
		service.WithDefaultPaymentDeadline(cfg.Booking.PaymentDeadlineHours),
		service.WithSweepBatchSize(cfg.Sweeper.BatchSize),
	}
	if notifier != nil {
		opts = append(opts, service.WithNotifier(notifier))
	}
	if gateway != nil {
		opts = append(opts, service.WithPaymentGateway(gateway))
	}
	return opts
}
