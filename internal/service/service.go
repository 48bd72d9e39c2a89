package service

import (
	"context"
	"strings"

	"annies-bakery/internal/live"
	"annies-bakery/internal/model"

	"github.com/google/uuid"
)

// CheckoutService drives an order from cart submission through payment.
type CheckoutService interface {
	// Checkout creates a provider payment session and persists a pending order.
	// Nothing is persisted unless the provider accepted the session.
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// HandleSuccess marks the order confirmed and paid.
	HandleSuccess(ctx context.Context, orderID string) (*model.Order, error)

	// HandleCancel marks the order cancelled. It reports false, without
	// error, when the order does not exist.
	HandleCancel(ctx context.Context, orderID string) (bool, error)

	// HandleWebhook verifies and applies a provider event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// OrderService covers order lookup, administration and custom order intake.
type OrderService interface {
	// GetOrder looks up standard orders first, then custom orders.
	GetOrder(ctx context.Context, id string) (*model.OrderView, error)

	// ListOrders returns both kinds of orders matching filter, newest first.
	ListOrders(ctx context.Context, filter model.OrderFilter) (*model.OrderList, error)

	// UpdateStatus overrides the status and/or payment status of one order.
	UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.OrderView, error)

	// BatchUpdate applies one override to many orders of either kind and
	// returns how many changed.
	BatchUpdate(ctx context.Context, req model.BatchStatusUpdate) (int, error)

	// AddNote appends an operator note to an order.
	AddNote(ctx context.Context, id, text, by string) (*model.OrderView, error)

	// DeleteOrder removes an order of either kind.
	DeleteOrder(ctx context.Context, id string) error

	// CreateCustomOrder records a custom cake order and notifies the operator.
	CreateCustomOrder(ctx context.Context, req *model.CustomOrderRequest) (*model.CustomOrder, error)

	// SubmitContact forwards a contact form; the result reports delivery.
	SubmitContact(ctx context.Context, req *model.ContactRequest) (bool, error)
}

// CatalogService serves products and blog posts.
type CatalogService interface {
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListPosts(ctx context.Context, page int) (*model.PostPage, error)
	GetPost(ctx context.Context, id string) (*model.BlogPost, error)

	// Admin operations see hidden records.
	AllProducts(ctx context.Context) ([]model.Product, error)
	SaveProduct(ctx context.Context, product *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AllPosts(ctx context.Context) ([]model.BlogPost, error)
	SavePost(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error)
	DeletePost(ctx context.Context, id string) error
}

// EventPublisher receives order changes for the admin live feed.
type EventPublisher interface {
	Publish(ev live.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(live.Event) {}

// newID returns prefix followed by twelve random hex digits.
func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
