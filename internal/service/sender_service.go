package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Email struct {
	ToName      string
	ToAddress   string
	Subject     string
	PlainText   string
	HTML        string
	Attachments []Attachment
}

type Mailer interface {
	Send(ctx context.Context, e Email) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SendGridMailer delivers email through the SendGrid v3 API.
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, e Email) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(e.ToName, e.ToAddress)
	message := mail.NewSingleEmail(from, e.Subject, to, e.PlainText, e.HTML)
	for _, a := range e.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", e.ToAddress, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// TwilioSMS sends text messages from a single Twilio number.
type TwilioSMS struct {
	client     *twilio.RestClient
	fromNumber string
	log        zerolog.Logger
}

func NewTwilioSMS(accountSID, authToken, fromNumber string, log zerolog.Logger) *TwilioSMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSMS{client: client, fromNumber: fromNumber, log: log}
}

func (t *TwilioSMS) SendSMS(_ context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		t.log.Warn().Str("to", to).Msg("phone number is not in E.164 format, SMS may fail")
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		t.log.Debug().Str("sid", *resp.Sid).Msg("sms sent")
	}
	return nil
}
