package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
)

type CheckoutRequest struct {
	ReservationID string
	ReferenceCode string
	Description   string
	Amount        int64
	CustomerEmail string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway is the online alternative to uploading a transfer receipt.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
	RefundSession(ctx context.Context, sessionID string) error
}

type StripeService struct {
	currency   string
	successURL string
	cancelURL  string
}

// NewStripeService configures the package-level Stripe key.
func NewStripeService(secretKey, currency, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{currency: currency, successURL: successURL, cancelURL: cancelURL}
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.cancelURL + "?session_id={CHECKOUT_SESSION_ID}"),
		ClientReferenceID: stripe.String(req.ReservationID),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata("reservation_id", req.ReservationID)
	params.AddMetadata("reference_code", req.ReferenceCode)

	sess, err := session.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// RefundSession refunds the payment behind a checkout session. Refunding an
// already refunded charge succeeds without a second refund.
func (s *StripeService) RefundSession(ctx context.Context, sessionID string) error {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx
	getParams.AddExpand("payment_intent.latest_charge")
	sess, err := session.Get(sessionID, getParams)
	if err != nil {
		return fmt.Errorf("get checkout session %s: %w", sessionID, err)
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("no payment intent found for session %s", sessionID)
	}
	if charge := sess.PaymentIntent.LatestCharge; charge != nil && charge.Refunded {
		return nil
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + sessionID)
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("refund session %s: %w", sessionID, err)
	}
	return nil
}
