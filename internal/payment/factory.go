package payment

import (
	"errors"
	"strings"

	"annies-bakery/internal/config"
	"annies-bakery/internal/model"

	"github.com/rs/zerolog"
)

// NewGateway builds the gateway named by cfg.Provider (case-insensitive).
// An empty or unknown provider yields a nil gateway and no error: checkout
// then reports the gateway as unconfigured. Stripe without an API key is a
// configuration error.
func NewGateway(cfg config.PaymentConfig, logger zerolog.Logger) (Gateway, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch provider {
	case ProviderStripe:
		if cfg.StripeAPIKey == "" {
			return nil, model.ErrGatewayUnconfigured.WithCause("STRIPE_API_KEY is required for the stripe provider", nil)
		}
		return NewStripeGateway(StripeConfig{
			APIKey:        cfg.StripeAPIKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			Timeout:       cfg.Timeout,
			APIURL:        cfg.StripeAPIURL,
		}, logger), nil
	case ProviderPaystack:
		return NewPaystackGateway(cfg.PaystackSecretKey, logger), nil
	case ProviderYoco:
		return NewYocoGateway(cfg.YocoPrivateKey, logger), nil
	default:
		if provider != "" {
			logger.Warn().Str("provider", cfg.Provider).Msg("unknown payment provider, checkout disabled")
		}
		return nil, nil
	}
}

// OpenGateway is NewGateway for the server: a provider that is selected but
// missing its credentials is logged and leaves checkout disabled instead of
// failing startup.
func OpenGateway(cfg config.PaymentConfig, logger zerolog.Logger) (Gateway, error) {
	gateway, err := NewGateway(cfg, logger)
	if errors.Is(err, model.ErrGatewayUnconfigured) {
		logger.Warn().Err(err).Str("provider", cfg.Provider).Msg("payment provider is missing credentials, checkout is disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if gateway == nil {
		logger.Warn().Msg("no payment provider configured, checkout is disabled")
	}
	return gateway, nil
}
