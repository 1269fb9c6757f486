package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// StripeGateway implements both sides of the provider boundary: checkout
// session creation and webhook signature verification. No provider crypto is
// reimplemented here; webhook.ConstructEvent does the signature check.
type StripeGateway struct {
	api *client.API
	cfg Config
}

func NewStripeGateway(cfg Config) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &StripeGateway{api: api, cfg: cfg}
}

func (g *StripeGateway) CreateSession(ctx context.Context, orderID uuid.UUID, lines []usecase.SessionLine) (usecase.CheckoutSession, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	for _, l := range lines {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(l.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.cfg.Currency),
				UnitAmount: stripe.Int64(toMinorUnits(l.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Description),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(orderID.String()),
		LineItems:         items,
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return usecase.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}

	return usecase.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent checks the Stripe-Signature header over the raw payload and
// maps the event type to a payment outcome. Event types outside the checkout
// session lifecycle come back as OutcomeIgnored.
func (g *StripeGateway) VerifyEvent(payload []byte, signature string) (usecase.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.cfg.WebhookSecret)
	if err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("webhook.ConstructEvent: %w", err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded",
		"checkout.session.expired", "checkout.session.async_payment_failed":
	default:
		return usecase.PaymentEvent{ID: event.ID, Outcome: usecase.OutcomeIgnored}, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return usecase.PaymentEvent{}, fmt.Errorf("unmarshal session: %w", err)
	}

	var outcome usecase.PaymentOutcome
	switch event.Type {
	case "checkout.session.completed":
		// Async payment methods complete the session before the money
		// settles; the async_payment_* events carry the real outcome then.
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return usecase.PaymentEvent{ID: event.ID, SessionID: sess.ID, Outcome: usecase.OutcomeIgnored}, nil
		}
		outcome = usecase.OutcomeSucceeded
	case "checkout.session.async_payment_succeeded":
		outcome = usecase.OutcomeSucceeded
	default:
		outcome = usecase.OutcomeFailed
	}

	return usecase.PaymentEvent{
		ID:        event.ID,
		SessionID: sess.ID,
		Outcome:   outcome,
	}, nil
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var (
	_ usecase.PaymentGateway  = (*StripeGateway)(nil)
	_ usecase.WebhookVerifier = (*StripeGateway)(nil)
)
