package payment

import (
	"context"

	"github.com/rs/zerolog"
)

// stubGateway accepts configuration for a provider whose protocol is not
// integrated yet. Every payment fails and no webhook verifies.
type stubGateway struct {
	provider string
	label    string
	apiKey   string
	logger   zerolog.Logger
}

// NewPaystackGateway returns the Paystack placeholder gateway.
func NewPaystackGateway(secretKey string, logger zerolog.Logger) Gateway {
	return newStubGateway(ProviderPaystack, "Paystack", secretKey, logger)
}

// NewYocoGateway returns the Yoco placeholder gateway.
func NewYocoGateway(privateKey string, logger zerolog.Logger) Gateway {
	return newStubGateway(ProviderYoco, "Yoco", privateKey, logger)
}

func newStubGateway(provider, label, apiKey string, logger zerolog.Logger) *stubGateway {
	return &stubGateway{
		provider: provider,
		label:    label,
		apiKey:   apiKey,
		logger:   logger.With().Str("component", "payment").Str("provider", provider).Logger(),
	}
}

func (g *stubGateway) Provider() string {
	return g.provider
}

func (g *stubGateway) CreatePayment(_ context.Context, _ Request) Result {
	g.logger.Warn().Msg("payment requested from provider without an integration")
	return failed(g.label + " integration not implemented")
}

func (g *stubGateway) VerifyWebhook(_ []byte, _ string) bool {
	return false
}
