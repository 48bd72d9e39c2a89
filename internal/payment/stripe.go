package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds the credentials and transport settings for Stripe.
type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
	APIURL        string // empty means the public Stripe API
}

// StripeGateway creates checkout sessions and payment intents through stripe-go.
type StripeGateway struct {
	sessions      session.Client
	intents       paymentintent.Client
	webhookSecret string
	logger        zerolog.Logger
}

// NewStripeGateway creates a Stripe gateway. Requests are bounded by cfg.Timeout
// and are never retried.
func NewStripeGateway(cfg StripeConfig, logger zerolog.Logger) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		EnableTelemetry:   stripe.Bool(false),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &StripeGateway{
		sessions:      session.Client{B: backend, Key: cfg.APIKey},
		intents:       paymentintent.Client{B: backend, Key: cfg.APIKey},
		webhookSecret: cfg.WebhookSecret,
		logger:        logger.With().Str("component", "payment").Str("provider", ProviderStripe).Logger(),
	}
}

// Provider implements Gateway.
func (g *StripeGateway) Provider() string {
	return ProviderStripe
}

// CreatePayment implements Gateway.
func (g *StripeGateway) CreatePayment(ctx context.Context, req Request) Result {
	currency := NormalizeCurrency(req.Currency)

	if req.isCheckout() {
		return g.createCheckoutSession(ctx, req, currency)
	}
	return g.createPaymentIntent(ctx, req, currency)
}

func (g *StripeGateway) createCheckoutSession(ctx context.Context, req Request, currency string) Result {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(ToMinorUnits(item.Price)),
				ProductData: product,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		msg := errorMessage(err)
		g.logger.Error().Err(err).Str("type", "checkout").Msg("failed to create checkout session")
		return failed(msg)
	}

	g.logger.Info().Str("session_id", s.ID).Int("line_items", len(req.Items)).Msg("checkout session created")

	return Result{
		Success:   true,
		Reference: s.ID,
		GatewayResponse: map[string]any{
			"provider":   ProviderStripe,
			"type":       "checkout",
			"session_id": s.ID,
			"url":        s.URL,
		},
	}
}

func (g *StripeGateway) createPaymentIntent(ctx context.Context, req Request, currency string) Result {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(ToMinorUnits(req.Amount)),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		msg := errorMessage(err)
		g.logger.Error().Err(err).Str("type", "intent").Msg("failed to create payment intent")
		return failed(msg)
	}

	g.logger.Info().Str("intent_id", pi.ID).Int64("amount", pi.Amount).Msg("payment intent created")

	return Result{
		Success:      true,
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		GatewayResponse: map[string]any{
			"provider": ProviderStripe,
			"type":     "intent",
			"amount":   pi.Amount,
			"currency": string(pi.Currency),
			"status":   string(pi.Status),
		},
	}
}

// VerifyWebhook implements Gateway using Stripe's signed payload scheme.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) bool {
	if g.webhookSecret == "" {
		g.logger.Warn().Msg("webhook received but no webhook secret is configured")
		return false
	}

	if err := webhook.ValidatePayload(payload, signature, g.webhookSecret); err != nil {
		g.logger.Warn().Err(err).Msg("webhook signature rejected")
		return false
	}
	return true
}

// errorMessage extracts the provider's message from a stripe-go error.
func errorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}

// Webhook event types acted on at checkout.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// WebhookEvent is the part of a verified provider event the checkout flow needs.
type WebhookEvent struct {
	ID        string
	Type      string
	OrderID   string
	Reference string
}

// ParseWebhookEvent decodes a Stripe event payload. Only checkout session
// events carry an order id; other types are returned with it empty.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}

	ev := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	if ev.Type != EventCheckoutCompleted && ev.Type != EventCheckoutExpired {
		return ev, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("webhook event %s has no data", event.ID)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	ev.Reference = s.ID
	ev.OrderID = s.Metadata["order_id"]
	return ev, nil
}
