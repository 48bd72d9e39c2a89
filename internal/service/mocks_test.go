package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"annies-bakery/internal/docstore"
	"annies-bakery/internal/live"
	"annies-bakery/internal/notify"
	"annies-bakery/internal/payment"
	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of repository.Repository.
type MockRepository[T docstore.Document] struct {
	mock.Mock
}

func (m *MockRepository[T]) GetAll(ctx context.Context) ([]T, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) Create(ctx context.Context, item *T) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository[T]) Save(ctx context.Context, item *T) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository[T]) Modify(ctx context.Context, id string, fn repository.ModifyFunc[T]) (*T, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) ModifyMany(ctx context.Context, ids []string, fn repository.ModifyFunc[T]) (int, error) {
	args := m.Called(ctx, ids, fn)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository[T]) ModifyAll(ctx context.Context, fn repository.ModifyFunc[T]) (int, error) {
	args := m.Called(ctx, fn)
	return args.Int(0), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePayment(ctx context.Context, req payment.Request) payment.Result {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Result)
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

func (m *MockGateway) Provider() string {
	return payment.ProviderStripe
}

// captureNotifier records delivered messages on a channel.
type captureNotifier struct {
	sent chan notify.Message
	ok   bool
}

func newCaptureNotifier(ok bool) *captureNotifier {
	return &captureNotifier{sent: make(chan notify.Message, 16), ok: ok}
}

func (n *captureNotifier) Notify(_ context.Context, msg notify.Message) bool {
	n.sent <- msg
	return n.ok
}

// next waits briefly for one asynchronous delivery.
func (n *captureNotifier) next(t *testing.T) (notify.Message, bool) {
	t.Helper()
	select {
	case msg := <-n.sent:
		return msg, true
	case <-time.After(time.Second):
		return notify.Message{}, false
	}
}

// none asserts no delivery happens within a short window.
func (n *captureNotifier) none(t *testing.T) bool {
	t.Helper()
	select {
	case <-n.sent:
		return false
	case <-time.After(100 * time.Millisecond):
		return true
	}
}

// recordingEvents collects published live events.
type recordingEvents struct {
	mu     sync.Mutex
	events []live.Event
}

func (r *recordingEvents) Publish(ev live.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEvents) all() []live.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]live.Event(nil), r.events...)
}

// testStores holds file-backed repositories over a temporary directory.
type testStores struct {
	dir      string
	orders   repository.OrderRepository
	custom   repository.CustomOrderRepository
	products repository.ProductRepository
	posts    repository.PostRepository
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	dir := t.TempDir()
	store := docstore.New(docstore.NewFileBackend(dir), zerolog.Nop())
	logger := zerolog.Nop()

	return &testStores{
		dir:      dir,
		orders:   repository.NewOrderRepository(store, logger),
		custom:   repository.NewCustomOrderRepository(store, logger),
		products: repository.NewProductRepository(store, logger),
		posts:    repository.NewPostRepository(store, logger),
	}
}

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
