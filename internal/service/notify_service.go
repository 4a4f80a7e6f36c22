package service

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rs/zerolog"

	"residencehub/internal/clock"
	"residencehub/internal/db"
	"residencehub/internal/entities"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplate = template.Must(template.ParseFS(templateFS, "templates/reservation_email.html"))

const (
	emailTimeFormat = "Mon 02 Jan 2006 15:04 MST"
	smsTimeFormat   = "02/01 15:04"
)

type message struct {
	subject string
	intro   string
	sms     string // empty means no SMS for this kind
}

var messages = map[NotificationKind]message{
	NotifyCreated: {
		subject: "Reservation %s is awaiting payment",
		intro:   "Your reservation was received. Please pay before the deadline or it will be released.",
	},
	NotifyPaymentSubmitted: {
		subject: "Payment received for reservation %s",
		intro:   "We received your payment proof. An administrator will verify it shortly.",
	},
	NotifyConfirmed: {
		subject: "Reservation %s is confirmed",
		intro:   "Your reservation is confirmed. The calendar invite is attached.",
		sms:     "ResidenceHub: reservation %s for %s on %s is confirmed.",
	},
	NotifyPaymentRejected: {
		subject: "Payment for reservation %s was rejected",
		intro:   "Your payment proof could not be verified. Please submit it again before the deadline.",
		sms:     "ResidenceHub: payment for reservation %s (%s, %s) was rejected. Check your email.",
	},
	NotifyCancelled: {
		subject: "Reservation %s was cancelled",
		intro:   "Your reservation has been cancelled.",
		sms:     "ResidenceHub: reservation %s for %s on %s was cancelled.",
	},
	NotifyExpired: {
		subject: "Reservation %s expired",
		intro:   "The payment deadline passed, so the reservation was released.",
		sms:     "ResidenceHub: reservation %s for %s on %s expired without payment.",
	},
}

// NotifyService emails and texts renters when their reservations change.
type NotifyService struct {
	contacts ContactStore
	mailer   Mailer
	sms      SMSSender
	clock    clock.Clock
	log      zerolog.Logger
	sync     bool
}

type NotifyOption func(*NotifyService)

// WithSyncDelivery delivers inside ReservationChanged instead of in the background.
func WithSyncDelivery() NotifyOption {
	return func(s *NotifyService) { s.sync = true }
}

// NewNotifyService builds a notifier. mailer and sms may be nil to disable a channel.
func NewNotifyService(contacts ContactStore, mailer Mailer, sms SMSSender, clk clock.Clock, log zerolog.Logger, opts ...NotifyOption) *NotifyService {
	s := &NotifyService{
		contacts: contacts,
		mailer:   mailer,
		sms:      sms,
		clock:    clk,
		log:      log.With().Str("component", "notify").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NotifyService) ReservationChanged(ctx context.Context, n Notification) {
	if _, ok := messages[n.Kind]; !ok {
		return
	}
	if s.mailer == nil && s.sms == nil {
		return
	}
	if s.sync {
		s.deliver(ctx, n)
		return
	}
	go s.deliver(context.WithoutCancel(ctx), n)
}

func (s *NotifyService) deliver(ctx context.Context, n Notification) {
	r := n.Reservation
	log := s.log.With().Str("reservation_id", r.ID).Str("kind", string(n.Kind)).Logger()

	contact, err := s.contacts.GetContact(ctx, r.UserID)
	if err != nil {
		log.Warn().Err(err).Msg("no contact for reservation owner, skipping notification")
		return
	}
	space, err := s.contacts.GetSpace(ctx, r.SpaceID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load space for notification")
		return
	}
	msg := messages[n.Kind]
	data := s.emailData(contact, space, r, n.Reason)

	if s.mailer != nil && contact.Email != "" {
		email, err := s.buildEmail(n.Kind, msg, data, contact, r, space)
		if err != nil {
			log.Error().Err(err).Msg("failed to render email")
		} else if err := s.mailer.Send(ctx, email); err != nil {
			log.Error().Err(err).Msg("failed to send email")
		}
	}

	if s.sms != nil && msg.sms != "" && contact.Phone != nil && *contact.Phone != "" {
		body := fmt.Sprintf(msg.sms, r.ReferenceCode, space.Name, r.StartTime.In(space.Location()).Format(smsTimeFormat))
		if err := s.sms.SendSMS(ctx, *contact.Phone, body); err != nil {
			log.Error().Err(err).Msg("failed to send sms")
		}
	}
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}

func (s *NotifyService) emailData(contact db.Contact, space db.Space, r db.Reservation, reason string) entities.ReservationEmailData {
	loc := space.Location()
	data := entities.ReservationEmailData{
		UserName:           contact.FullName,
		ReferenceCode:      r.ReferenceCode,
		SpaceName:          space.Name,
		Status:             strings.ReplaceAll(string(r.Status), "_", " "),
		StartTimeFormatted: r.StartTime.In(loc).Format(emailTimeFormat),
		EndTimeFormatted:   r.EndTime.In(loc).Format(emailTimeFormat),
		Reason:             reason,
		CurrentYear:        s.clock.Now().In(loc).Year(),
	}
	if r.PaymentAmount != nil {
		data.AmountFormatted = formatAmount(*r.PaymentAmount)
	}
	if r.PaymentDeadline != nil && r.Status == db.StatusPendingPayment {
		data.DeadlineFormatted = r.PaymentDeadline.In(loc).Format(emailTimeFormat)
	}
	return data
}

func (s *NotifyService) buildEmail(kind NotificationKind, msg message, data entities.ReservationEmailData, contact db.Contact, r db.Reservation, space db.Space) (Email, error) {
	subject := fmt.Sprintf(msg.subject, r.ReferenceCode)

	var html bytes.Buffer
	err := emailTemplate.Execute(&html, struct {
		Headline string
		Intro    string
		Data     entities.ReservationEmailData
	}{subject, msg.intro, data})
	if err != nil {
		return Email{}, fmt.Errorf("execute email template: %w", err)
	}

	var plain strings.Builder
	fmt.Fprintf(&plain, "Hello %s,\n\n%s\n\n", data.UserName, msg.intro)
	fmt.Fprintf(&plain, "Reference: %s\nSpace: %s\nFrom: %s\nTo: %s\nStatus: %s\n",
		data.ReferenceCode, data.SpaceName, data.StartTimeFormatted, data.EndTimeFormatted, data.Status)
	if data.AmountFormatted != "" {
		fmt.Fprintf(&plain, "Amount: %s\n", data.AmountFormatted)
	}
	if data.DeadlineFormatted != "" {
		fmt.Fprintf(&plain, "Pay before: %s\n", data.DeadlineFormatted)
	}
	if data.Reason != "" {
		fmt.Fprintf(&plain, "Reason: %s\n", data.Reason)
	}

	email := Email{
		ToName:    contact.FullName,
		ToAddress: contact.Email,
		Subject:   subject,
		PlainText: plain.String(),
		HTML:      html.String(),
	}
	if kind == NotifyConfirmed {
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    r.ReferenceCode + ".ics",
			ContentType: "text/calendar",
			Content:     BuildICS(r, space, "", s.clock.Now()),
		})
	}
	return email, nil
}
