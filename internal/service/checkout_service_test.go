package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"annies-bakery/internal/live"
	"annies-bakery/internal/model"
	"annies-bakery/internal/notify"
	"annies-bakery/internal/payment"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCheckout(stores *testStores, gw payment.Gateway, n notify.Sender, ev EventPublisher) *checkoutService {
	svc := NewCheckoutService(stores.orders, gw, n, ev, nil, CheckoutConfig{
		BaseURL:  "http://shop.test/",
		Currency: "ZAR",
	}, zerolog.Nop()).(*checkoutService)
	svc.now = fixedClock
	return svc
}

func cakeCart() *model.CheckoutRequest {
	return &model.CheckoutRequest{
		Items: []model.OrderItem{
			{ProductID: "p1", Title: "Cake", Price: 29.99, Quantity: 2},
		},
		Customer: model.CustomerInfo{Name: "Jane", Email: "jane@example.com"},
	}
}

func TestCheckoutService_Checkout_Success(t *testing.T) {
	stores := newTestStores(t)
	gw := new(MockGateway)
	events := &recordingEvents{}
	svc := newTestCheckout(stores, gw, nil, events)

	var sent payment.Request
	gw.On("CreatePayment", mock.Anything, mock.AnythingOfType("payment.Request")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(payment.Request) }).
		Return(payment.Result{
			Success:         true,
			Reference:       "cs_test_1",
			GatewayResponse: map[string]any{"url": "https://pay.example.com/cs_test_1"},
		})

	resp, err := svc.Checkout(context.Background(), cakeCart())

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "https://pay.example.com/cs_test_1", resp.CheckoutURL)
	assert.Regexp(t, `^ord-[0-9a-f]{12}$`, resp.OrderID)

	assert.Equal(t, 59.98, sent.Amount)
	assert.Equal(t, "ZAR", sent.Currency)
	assert.Equal(t, resp.OrderID, sent.Metadata["order_id"])
	assert.Equal(t, "http://shop.test/cart/success/"+resp.OrderID, sent.SuccessURL)
	assert.Equal(t, "http://shop.test/cart/cancel/"+resp.OrderID, sent.CancelURL)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, 2, sent.Items[0].Quantity)

	order, err := stores.orders.GetByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, 59.98, order.Total)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "cs_test_1", order.SessionID)
	assert.Equal(t, "2025-03-14T09:30:00Z", order.CreatedAt)

	evs := events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, live.EventOrderCreated, evs[0].Type)
	gw.AssertExpectations(t)
}

func TestCheckoutService_Checkout_GatewayFailurePersistsNothing(t *testing.T) {
	orderRepo := new(MockRepository[model.Order])
	gw := new(MockGateway)
	svc := NewCheckoutService(orderRepo, gw, nil, nil, nil, CheckoutConfig{BaseURL: "http://shop.test"}, zerolog.Nop())

	gw.On("CreatePayment", mock.Anything, mock.Anything).
		Return(payment.Result{Success: false, ErrorMessage: "Your card was declined."})

	resp, err := svc.Checkout(context.Background(), cakeCart())

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrGatewayError))
	assert.Contains(t, err.Error(), "Your card was declined.")
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_MissingCheckoutURL(t *testing.T) {
	orderRepo := new(MockRepository[model.Order])
	gw := new(MockGateway)
	svc := NewCheckoutService(orderRepo, gw, nil, nil, nil, CheckoutConfig{}, zerolog.Nop())

	gw.On("CreatePayment", mock.Anything, mock.Anything).
		Return(payment.Result{Success: true, Reference: "pi_1", ClientSecret: "secret"})

	_, err := svc.Checkout(context.Background(), cakeCart())

	assert.ErrorIs(t, err, model.ErrGatewayError)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_StoreFailure(t *testing.T) {
	orderRepo := new(MockRepository[model.Order])
	gw := new(MockGateway)
	svc := NewCheckoutService(orderRepo, gw, nil, nil, nil, CheckoutConfig{}, zerolog.Nop())

	gw.On("CreatePayment", mock.Anything, mock.Anything).
		Return(payment.Result{Success: true, Reference: "cs_1", GatewayResponse: map[string]any{"url": "https://pay"}})
	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Order")).Return(model.ErrStorageCorruption)

	_, err := svc.Checkout(context.Background(), cakeCart())

	assert.ErrorIs(t, err, model.ErrStorageCorruption)
}

func TestCheckoutService_Checkout_Validation(t *testing.T) {
	total := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(r *model.CheckoutRequest)
		wantErr bool
	}{
		{name: "Valid cart"},
		{
			name:    "Empty cart",
			mutate:  func(r *model.CheckoutRequest) { r.Items = nil },
			wantErr: true,
		},
		{
			name:    "Missing email",
			mutate:  func(r *model.CheckoutRequest) { r.Customer.Email = " " },
			wantErr: true,
		},
		{
			name:    "Zero quantity",
			mutate:  func(r *model.CheckoutRequest) { r.Items[0].Quantity = 0 },
			wantErr: true,
		},
		{
			name:    "Negative price",
			mutate:  func(r *model.CheckoutRequest) { r.Items[0].Price = -1 },
			wantErr: true,
		},
		{
			name:    "Missing title",
			mutate:  func(r *model.CheckoutRequest) { r.Items[0].Title = "" },
			wantErr: true,
		},
		{
			name:   "Matching client total",
			mutate: func(r *model.CheckoutRequest) { r.Total = total(59.98) },
		},
		{
			name:   "Client total within tolerance",
			mutate: func(r *model.CheckoutRequest) { r.Total = total(59.984) },
		},
		{
			name:    "Client total mismatch",
			mutate:  func(r *model.CheckoutRequest) { r.Total = total(10) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCheckoutService(nil, nil, nil, nil, nil, CheckoutConfig{}, zerolog.Nop()).(*checkoutService)
			req := cakeCart()
			if tt.mutate != nil {
				tt.mutate(req)
			}

			total, err := svc.validateCheckoutRequest(req)

			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 59.98, total)
		})
	}
}

func TestCheckoutService_Checkout_NoGateway(t *testing.T) {
	orderRepo := new(MockRepository[model.Order])
	svc := NewCheckoutService(orderRepo, nil, nil, nil, nil, CheckoutConfig{}, zerolog.Nop())

	_, err := svc.Checkout(context.Background(), cakeCart())

	assert.ErrorIs(t, err, model.ErrGatewayUnconfigured)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func seedPendingOrder(t *testing.T, stores *testStores, id string) {
	t.Helper()
	require.NoError(t, stores.orders.Create(context.Background(), &model.Order{
		ID:            id,
		CustomerName:  "Jane",
		CustomerEmail: "jane@example.com",
		Items:         []model.OrderItem{{ProductID: "p1", Title: "Cake", Price: 29.99, Quantity: 2}},
		Total:         59.98,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     "2025-03-14T09:00:00Z",
	}))
}

func TestCheckoutService_HandleSuccess(t *testing.T) {
	stores := newTestStores(t)
	notifier := newCaptureNotifier(true)
	events := &recordingEvents{}
	svc := newTestCheckout(stores, nil, notifier, events)
	ctx := context.Background()

	seedPendingOrder(t, stores, "ord-aaa")

	order, err := svc.HandleSuccess(ctx, "ord-aaa")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, order.Status)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "2025-03-14T09:30:00Z", order.UpdatedAt)

	msg, ok := notifier.next(t)
	require.True(t, ok, "confirmation not sent")
	assert.Equal(t, notify.KindOrderConfirmation, msg.Kind)
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Contains(t, msg.Body, "http://shop.test/order/status/ord-aaa")

	t.Run("Repeat is idempotent", func(t *testing.T) {
		order, err := svc.HandleSuccess(ctx, "ord-aaa")
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, order.Status)
		assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
		assert.True(t, notifier.none(t), "confirmation sent twice")
	})

	t.Run("Unknown order", func(t *testing.T) {
		_, err := svc.HandleSuccess(ctx, "ord-missing")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	assert.NotEmpty(t, events.all())
}

func TestCheckoutService_HandleSuccess_NotifierFailureKeepsOrderPaid(t *testing.T) {
	stores := newTestStores(t)
	notifier := newCaptureNotifier(false)
	svc := newTestCheckout(stores, nil, notifier, nil)

	seedPendingOrder(t, stores, "ord-bbb")

	order, err := svc.HandleSuccess(context.Background(), "ord-bbb")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)

	_, ok := notifier.next(t)
	assert.True(t, ok)
}

func TestCheckoutService_HandleCancel(t *testing.T) {
	stores := newTestStores(t)
	events := &recordingEvents{}
	svc := newTestCheckout(stores, nil, nil, events)
	ctx := context.Background()

	seedPendingOrder(t, stores, "ord-ccc")

	found, err := svc.HandleCancel(ctx, "ord-ccc")
	require.NoError(t, err)
	assert.True(t, found)

	order, err := stores.orders.GetByID(ctx, "ord-ccc")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.Equal(t, model.PaymentCancelled, order.PaymentStatus)

	before, err := os.ReadFile(filepath.Join(stores.dir, "orders.json"))
	require.NoError(t, err)

	found, err = svc.HandleCancel(ctx, "ord-ccc")
	require.NoError(t, err)
	assert.True(t, found)

	after, err := os.ReadFile(filepath.Join(stores.dir, "orders.json"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "second cancel must not rewrite the collection")
	assert.Len(t, events.all(), 1)

	found, err = svc.HandleCancel(ctx, "ord-missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCheckoutService_HandleCancel_OnlyFromPending(t *testing.T) {
	stores := newTestStores(t)
	events := &recordingEvents{}
	svc := newTestCheckout(stores, nil, nil, events)
	ctx := context.Background()

	tests := []struct {
		name          string
		status        string
		paymentStatus string
	}{
		{name: "Paid order", status: model.StatusConfirmed, paymentStatus: model.PaymentPaid},
		{name: "Paid but not yet confirmed", status: model.StatusPending, paymentStatus: model.PaymentPaid},
		{name: "In progress", status: model.StatusInProgress, paymentStatus: model.PaymentPaid},
		{name: "Refunded", status: model.StatusCompleted, paymentStatus: model.PaymentRefunded},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := fmt.Sprintf("ord-keep%d", i)
			require.NoError(t, stores.orders.Create(ctx, &model.Order{ID: id, Status: tt.status, PaymentStatus: tt.paymentStatus}))

			found, err := svc.HandleCancel(ctx, id)
			require.NoError(t, err)
			assert.True(t, found)

			order, err := stores.orders.GetByID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tt.status, order.Status)
			assert.Equal(t, tt.paymentStatus, order.PaymentStatus)
		})
	}

	assert.Empty(t, events.all())
}

func TestCheckoutService_HandleWebhook(t *testing.T) {
	completed := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "metadata": {"order_id": "ord-ddd"}}}
	}`)
	expired := []byte(`{
		"id": "evt_2",
		"object": "event",
		"type": "checkout.session.expired",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "metadata": {"order_id": "ord-ddd"}}}
	}`)
	unknownOrder := []byte(`{
		"id": "evt_3",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_9", "object": "checkout.session", "metadata": {"order_id": "ord-zzz"}}}
	}`)
	other := []byte(`{"id": "evt_4", "object": "event", "type": "charge.refunded", "data": {"object": {"id": "ch_1"}}}`)

	tests := []struct {
		name       string
		payload    []byte
		verified   bool
		wantErr    error
		wantStatus string
	}{
		{
			name:       "Completed marks paid",
			payload:    completed,
			verified:   true,
			wantStatus: model.StatusConfirmed,
		},
		{
			name:       "Expired cancels",
			payload:    expired,
			verified:   true,
			wantStatus: model.StatusCancelled,
		},
		{
			name:       "Unverified rejected before parsing",
			payload:    []byte(`{not json`),
			verified:   false,
			wantErr:    model.ErrWebhookUnverified,
			wantStatus: model.StatusPending,
		},
		{
			name:       "Unknown order acknowledged",
			payload:    unknownOrder,
			verified:   true,
			wantStatus: model.StatusPending,
		},
		{
			name:       "Other event ignored",
			payload:    other,
			verified:   true,
			wantStatus: model.StatusPending,
		},
		{
			name:       "Malformed verified payload",
			payload:    []byte(`{`),
			verified:   true,
			wantErr:    model.ErrInvalidInput,
			wantStatus: model.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores(t)
			gw := new(MockGateway)
			svc := newTestCheckout(stores, gw, nil, nil)
			ctx := context.Background()

			seedPendingOrder(t, stores, "ord-ddd")
			gw.On("VerifyWebhook", tt.payload, "sig").Return(tt.verified)

			err := svc.HandleWebhook(ctx, tt.payload, "sig")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			order, err := stores.orders.GetByID(ctx, "ord-ddd")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, order.Status)
			gw.AssertExpectations(t)
		})
	}
}

func TestCheckoutService_HandleWebhook_NoGateway(t *testing.T) {
	svc := NewCheckoutService(nil, nil, nil, nil, nil, CheckoutConfig{}, zerolog.Nop())

	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")

	assert.ErrorIs(t, err, model.ErrGatewayUnconfigured)
}
