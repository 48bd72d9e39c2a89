package repository

import (
	"context"

	"annies-bakery/internal/docstore"
	"annies-bakery/internal/model"
)

// Collection names. Each maps to one persisted document.
const (
	OrdersCollection       = "orders"
	CustomOrdersCollection = "custom_orders"
	ProductsCollection     = "products"
	PostsCollection        = "blog"
)

// ModifyFunc edits a record in place and reports whether it changed.
type ModifyFunc[T any] func(item *T) bool

// Repository is the data access contract shared by every collection.
type Repository[T docstore.Document] interface {
	// GetAll retrieves every record in stored order.
	GetAll(ctx context.Context) ([]T, error)

	// GetByID retrieves the first record with id, or nil when absent.
	GetByID(ctx context.Context, id string) (*T, error)

	// Create appends a new record.
	Create(ctx context.Context, item *T) error

	// Save replaces the record with the same id, or appends it when absent.
	Save(ctx context.Context, item *T) error

	// Delete removes the record with id, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Modify applies fn to the record with id inside one locked
	// read-modify-write cycle. It returns the record as stored afterwards,
	// or nil when id is absent.
	Modify(ctx context.Context, id string, fn ModifyFunc[T]) (*T, error)

	// ModifyMany applies fn to every record whose id is in ids and returns
	// how many changed.
	ModifyMany(ctx context.Context, ids []string, fn ModifyFunc[T]) (int, error)

	// ModifyAll applies fn to every record and returns how many changed.
	ModifyAll(ctx context.Context, fn ModifyFunc[T]) (int, error)
}

// OrderRepository stores standard cart orders.
type OrderRepository = Repository[model.Order]

// CustomOrderRepository stores custom cake orders.
type CustomOrderRepository = Repository[model.CustomOrder]

// ProductRepository stores catalogue products.
type ProductRepository = Repository[model.Product]

// PostRepository stores blog posts.
type PostRepository = Repository[model.BlogPost]
