// Package payment abstracts the hosted payment providers used at checkout.
package payment

import "context"

// DefaultCurrency is used when a request does not name one.
const DefaultCurrency = "ZAR"

// Provider names accepted by NewGateway.
const (
	ProviderStripe   = "stripe"
	ProviderPaystack = "paystack"
	ProviderYoco     = "yoco"
)

// Gateway creates payments with one provider and verifies its webhooks.
type Gateway interface {
	// CreatePayment never returns a Go error. Provider failures, timeouts
	// and unimplemented providers all come back as an unsuccessful Result.
	CreatePayment(ctx context.Context, req Request) Result

	// VerifyWebhook reports whether payload carries a valid provider signature.
	VerifyWebhook(payload []byte, signature string) bool

	// Provider returns the provider name.
	Provider() string
}

// Request describes one payment. A hosted checkout session is used when
// Items, SuccessURL and CancelURL are all present; otherwise a direct
// payment intent for Amount is created.
type Request struct {
	Amount        float64
	Currency      string
	Metadata      map[string]string
	Items         []LineItem
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
}

// LineItem is one cart line shown on the hosted checkout page.
type LineItem struct {
	Name     string
	Price    float64
	Quantity int
	Image    string
}

// Result is the outcome of CreatePayment.
type Result struct {
	Success         bool           `json:"success"`
	Reference       string         `json:"reference"`
	ClientSecret    string         `json:"client_secret,omitempty"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	GatewayResponse map[string]any `json:"gateway_response,omitempty"`
}

// CheckoutURL returns the hosted payment page, if the result carries one.
func (r Result) CheckoutURL() string {
	if r.GatewayResponse == nil {
		return ""
	}
	url, _ := r.GatewayResponse["url"].(string)
	return url
}

func (r Request) isCheckout() bool {
	return len(r.Items) > 0 && r.SuccessURL != "" && r.CancelURL != ""
}

func failed(message string) Result {
	return Result{Success: false, Reference: "", ErrorMessage: message}
}
