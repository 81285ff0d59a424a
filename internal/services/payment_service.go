package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/aw226929-cmd/iturnin-backend/internal/domain"
	"github.com/aw226929-cmd/iturnin-backend/internal/domain/models"
)

// PaymentGateway is the payment processor as seen by the booking workflow.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, bookingID, receiptEmail string) (models.PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) error
	ParseEvent(payload []byte, signature string) (models.PaymentEvent, error)
}

// StripeGateway implements PaymentGateway on top of stripe-go.
type StripeGateway struct {
	API           *client.API
	Currency      string
	WebhookSecret string
}

// NewStripeGateway builds a gateway with its own API client. backends may be nil.
func NewStripeGateway(secretKey, webhookSecret, currency string, backends *stripe.Backends) StripeGateway {
	return StripeGateway{
		API:           client.New(secretKey, backends),
		Currency:      strings.ToLower(currency),
		WebhookSecret: webhookSecret,
	}
}

func (g StripeGateway) CreateIntent(ctx context.Context, amountCents int64, bookingID, receiptEmail string) (models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(g.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	params.Context = ctx
	params.AddMetadata(models.MetadataBookingID, bookingID)

	pi, err := g.API.PaymentIntents.New(params)
	if err != nil {
		return models.PaymentIntent{}, domain.UpstreamError{Service: "payments", Err: err}
	}
	return models.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, AmountCents: pi.Amount}, nil
}

func (g StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.API.PaymentIntents.Cancel(intentID, params); err != nil {
		return domain.UpstreamError{Service: "payments", Err: err}
	}
	return nil
}

// ParseEvent verifies the Stripe-Signature header and reduces the event. An empty webhook
// secret rejects everything.
func (g StripeGateway) ParseEvent(payload []byte, signature string) (models.PaymentEvent, error) {
	if g.WebhookSecret == "" {
		return models.PaymentEvent{}, domain.SignatureError{Err: errors.New("webhook secret is not configured")}
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return models.PaymentEvent{}, domain.SignatureError{Err: err}
	}

	out := models.PaymentEvent{ID: ev.ID, Type: string(ev.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") || ev.Data == nil {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return models.PaymentEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	out.Metadata = pi.Metadata
	return out, nil
}
