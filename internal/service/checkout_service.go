package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"annies-bakery/internal/live"
	"annies-bakery/internal/metrics"
	"annies-bakery/internal/model"
	"annies-bakery/internal/notify"
	"annies-bakery/internal/payment"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// totalTolerance is the largest accepted gap between a client-sent total and
// the server-computed one.
var totalTolerance = decimal.RequireFromString("0.005")

const notifyTimeout = 30 * time.Second

// CheckoutConfig holds the settings checkout needs beyond its collaborators.
type CheckoutConfig struct {
	BaseURL  string
	Currency string
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo repository.OrderRepository
	gateway   payment.Gateway
	notifier  notify.Sender
	events    EventPublisher
	metrics   *metrics.Metrics
	cfg       CheckoutConfig
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCheckoutService creates a checkout service. gateway may be nil, in which
// case checkout fails with model.ErrGatewayUnconfigured.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	notifier notify.Sender,
	events EventPublisher,
	m *metrics.Metrics,
	cfg CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	if events == nil {
		events = nopPublisher{}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &checkoutService{
		orderRepo: orderRepo,
		gateway:   gateway,
		notifier:  notifier,
		events:    events,
		metrics:   m,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout creates a provider payment session and persists a pending order.
func (s *checkoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	total, err := s.validateCheckoutRequest(req)
	if err != nil {
		s.metrics.Checkout("invalid")
		return nil, err
	}

	if s.gateway == nil {
		s.logger.Warn().Msg("checkout attempted without a payment gateway")
		s.metrics.Checkout("unconfigured")
		return nil, model.ErrGatewayUnconfigured
	}

	orderID := newID(model.OrderIDPrefix)

	items := make([]payment.LineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = payment.LineItem{
			Name:     item.Title,
			Price:    item.Price,
			Quantity: item.Quantity,
			Image:    item.Image,
		}
	}

	start := time.Now()
	result := s.gateway.CreatePayment(ctx, payment.Request{
		Amount:        total,
		Currency:      s.cfg.Currency,
		Metadata:      map[string]string{"order_id": orderID},
		Items:         items,
		SuccessURL:    s.cfg.BaseURL + "/cart/success/" + orderID,
		CancelURL:     s.cfg.BaseURL + "/cart/cancel/" + orderID,
		CustomerEmail: req.Customer.Email,
	})
	s.metrics.GatewayCall(s.gateway.Provider(), result.Success, time.Since(start))

	if !result.Success {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("provider", s.gateway.Provider()).
			Str("error", result.ErrorMessage).
			Msg("payment provider rejected checkout")
		s.metrics.Checkout("gateway_error")

		msg := result.ErrorMessage
		if msg == "" {
			msg = model.ErrGatewayError.Message
		}
		return nil, model.ErrGatewayError.WithCause(msg, nil)
	}

	checkoutURL := result.CheckoutURL()
	if checkoutURL == "" {
		s.logger.Error().Str("order_id", orderID).Str("reference", result.Reference).Msg("payment provider returned no checkout URL")
		s.metrics.Checkout("gateway_error")
		return nil, model.ErrGatewayError.WithCause("Payment provider returned no checkout page", nil)
	}

	order := &model.Order{
		ID:            orderID,
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		Items:         req.Items,
		Total:         total,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     model.Timestamp(s.now()),
		SessionID:     result.Reference,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Str("session_id", result.Reference).
			Msg("payment session created but order could not be stored")
		s.metrics.Checkout("error")
		return nil, err
	}

	s.events.Publish(orderEvent(live.EventOrderCreated, order.ID, order.Status, order.PaymentStatus, order.CreatedAt))
	s.metrics.Checkout("created")

	s.logger.Info().
		Str("order_id", orderID).
		Str("session_id", result.Reference).
		Float64("total", total).
		Int("item_count", len(order.Items)).
		Msg("checkout session created")

	return &model.CheckoutResponse{
		Success:     true,
		OrderID:     orderID,
		CheckoutURL: checkoutURL,
	}, nil
}

// HandleSuccess marks the order confirmed and paid. Repeating it only
// refreshes updated_at; the confirmation is sent on the first transition.
func (s *checkoutService) HandleSuccess(ctx context.Context, orderID string) (*model.Order, error) {
	transitioned := false
	order, err := s.orderRepo.Modify(ctx, orderID, func(o *model.Order) bool {
		transitioned = o.Status != model.StatusConfirmed || o.PaymentStatus != model.PaymentPaid
		o.Status = model.StatusConfirmed
		o.PaymentStatus = model.PaymentPaid
		o.UpdatedAt = model.Timestamp(s.now())
		return true
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		s.logger.Warn().Str("order_id", orderID).Msg("payment success for unknown order")
		return nil, model.ErrOrderNotFound
	}

	s.events.Publish(orderEvent(live.EventOrderUpdated, order.ID, order.Status, order.PaymentStatus, order.UpdatedAt))

	if transitioned {
		s.metrics.OrderTransition(model.StatusConfirmed)
		s.logger.Info().Str("order_id", orderID).Msg("order paid")

		msg := notify.OrderConfirmation(order, s.cfg.BaseURL+"/order/status/"+order.ID)
		go sendAsync(s.notifier, msg, s.metrics, s.logger)
	}

	return order, nil
}

// HandleCancel cancels an order that is still pending/pending. Orders in any
// other state, cancelled ones included, are left unchanged: once paid, only
// an operator can cancel.
func (s *checkoutService) HandleCancel(ctx context.Context, orderID string) (bool, error) {
	changed := false
	order, err := s.orderRepo.Modify(ctx, orderID, func(o *model.Order) bool {
		if o.Status != model.StatusPending || o.PaymentStatus != model.PaymentPending {
			return false
		}
		o.Status = model.StatusCancelled
		o.PaymentStatus = model.PaymentCancelled
		o.UpdatedAt = model.Timestamp(s.now())
		changed = true
		return true
	})
	if err != nil {
		return false, err
	}
	if order == nil {
		s.logger.Debug().Str("order_id", orderID).Msg("cancel for unknown order ignored")
		return false, nil
	}

	if !changed {
		s.logger.Debug().
			Str("order_id", orderID).
			Str("status", order.Status).
			Str("payment_status", order.PaymentStatus).
			Msg("cancel ignored for order that is no longer pending")
		return true, nil
	}

	s.events.Publish(orderEvent(live.EventOrderUpdated, order.ID, order.Status, order.PaymentStatus, order.UpdatedAt))
	s.metrics.OrderTransition(model.StatusCancelled)
	s.logger.Info().Str("order_id", orderID).Msg("order cancelled")

	return true, nil
}

// HandleWebhook verifies the provider signature before decoding anything.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return model.ErrGatewayUnconfigured
	}

	if !s.gateway.VerifyWebhook(payload, signature) {
		return model.ErrWebhookUnverified
	}

	event, err := payment.ParseWebhookEvent(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("verified webhook could not be decoded")
		return model.InvalidInput("malformed webhook event")
	}

	log := s.logger.With().Str("event_id", event.ID).Str("event_type", event.Type).Str("order_id", event.OrderID).Logger()

	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventCheckoutExpired:
	default:
		log.Debug().Msg("webhook event ignored")
		return nil
	}

	if event.OrderID == "" {
		log.Warn().Msg("checkout event without order id ignored")
		return nil
	}

	if event.Type == payment.EventCheckoutExpired {
		_, err := s.HandleCancel(ctx, event.OrderID)
		return err
	}

	if _, err := s.HandleSuccess(ctx, event.OrderID); err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			// Acknowledged: retries cannot create the order.
			log.Warn().Msg("checkout completed for unknown order")
			return nil
		}
		return err
	}

	log.Info().Msg("webhook applied")
	return nil
}

// validateCheckoutRequest checks the cart and returns its server-side total.
func (s *checkoutService) validateCheckoutRequest(req *model.CheckoutRequest) (float64, error) {
	if req == nil {
		return 0, model.InvalidInput("checkout request is required")
	}

	if len(req.Items) == 0 {
		return 0, model.InvalidInput("cart is empty")
	}

	if strings.TrimSpace(req.Customer.Email) == "" {
		return 0, model.InvalidInput("customer email is required")
	}

	total := decimal.Zero
	for i, item := range req.Items {
		if strings.TrimSpace(item.Title) == "" {
			return 0, model.InvalidInput("every item needs a title")
		}
		if item.Price < 0 {
			s.logger.Warn().Int("item_index", i).Float64("price", item.Price).Msg("negative price")
			return 0, model.InvalidInput("item price cannot be negative")
		}
		if item.Quantity < 1 {
			s.logger.Warn().Int("item_index", i).Int("quantity", item.Quantity).Msg("invalid quantity")
			return 0, model.InvalidInput("item quantity must be at least 1")
		}
		total = total.Add(payment.LineTotal(item.Price, item.Quantity))
	}
	total = total.Round(2)

	if req.Total != nil {
		sent := decimal.NewFromFloat(*req.Total)
		if sent.Sub(total).Abs().GreaterThan(totalTolerance) {
			s.logger.Warn().
				Float64("sent_total", *req.Total).
				Str("computed_total", total.StringFixed(2)).
				Msg("cart total mismatch")
			return 0, model.InvalidInput("cart total does not match items")
		}
	}

	return total.InexactFloat64(), nil
}

func orderEvent(kind, id, status, paymentStatus, at string) live.Event {
	return live.Event{
		Type:          kind,
		OrderID:       id,
		Status:        status,
		PaymentStatus: paymentStatus,
		UpdatedAt:     at,
	}
}

// sendAsync delivers msg outside the request. Failures are logged and
// counted, never returned.
func sendAsync(sender notify.Sender, msg notify.Message, m *metrics.Metrics, logger zerolog.Logger) {
	if sender == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("kind", msg.Kind).Msg("notification panicked")
			m.Notification(msg.Kind, false)
		}
	}()

	ok := sender.Notify(ctx, msg)
	m.Notification(msg.Kind, ok)
	if !ok {
		logger.Warn().Str("kind", msg.Kind).Msg("notification was not delivered")
	}
}
