package handler

import (
	"context"
	"net/http"
	"strings"

	"annies-bakery/internal/export"
	"annies-bakery/internal/model"
	"annies-bakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Exporter renders the order CSV.
type Exporter interface {
	Render(ctx context.Context) ([]byte, error)
}

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service  service.OrderService
	exporter Exporter
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, exporter Exporter, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		exporter: exporter,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Status handles GET /order/status/{orderID}.
func (h *OrderHandler) Status(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CreateCustom handles POST /api/custom-orders.
func (h *OrderHandler) CreateCustom(w http.ResponseWriter, r *http.Request) {
	var req model.CustomOrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.CreateCustomOrder(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Contact handles POST /api/contact.
func (h *OrderHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	sent, err := h.service.SubmitContact(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"sent": sent})
}

// List handles GET /admin/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.OrderFilter{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Type:          q.Get("type"),
		Query:         q.Get("q"),
	}

	list, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// Export handles GET /admin/orders/export.
func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.Render(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=orders_export.csv")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write export")
	}
}

// Batch handles POST /admin/orders/batch.
func (h *OrderHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req model.BatchStatusUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	n, err := h.service.BatchUpdate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// UpdateStatus handles POST /admin/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.StatusUpdate
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	view, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

type noteRequest struct {
	Text string `json:"text"`
	By   string `json:"by,omitempty"`
}

// AddNote handles POST /admin/orders/{id}/notes.
func (h *OrderHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	view, err := h.service.AddNote(r.Context(), chi.URLParam(r, "id"), req.Text, strings.TrimSpace(req.By))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /admin/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var _ Exporter = (*export.Exporter)(nil)
