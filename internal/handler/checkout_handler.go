package handler

import (
	"errors"
	"io"
	"net/http"

	"annies-bakery/internal/model"
	"annies-bakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Redirect targets for the provider return pages.
const (
	OrderNotFoundRedirect  = "/?flash=order-not-found"
	OrderCancelledRedirect = "/products?flash=order-cancelled"
)

// maxWebhookBytes bounds provider webhook payloads.
const maxWebhookBytes = 64 << 10

// CheckoutHandler handles cart checkout and the payment provider callbacks.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /cart/checkout.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Success handles GET /cart/success/{orderID}, where the provider returns the
// customer after payment.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.service.HandleSuccess(r.Context(), orderID)
	if errors.Is(err, model.ErrOrderNotFound) {
		http.Redirect(w, r, OrderNotFoundRedirect, http.StatusSeeOther)
		return
	}
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   order,
	})
}

// Cancel handles GET /cart/cancel/{orderID}. The customer is sent back to
// the catalogue whether or not the order exists.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	if _, err := h.service.HandleCancel(r.Context(), orderID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	http.Redirect(w, r, OrderCancelledRedirect, http.StatusSeeOther)
}

// Webhook handles POST /webhooks/payment.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable webhook body", h.logger)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
