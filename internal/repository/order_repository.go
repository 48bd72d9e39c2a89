package repository

import (
	"annies-bakery/internal/docstore"
	"annies-bakery/internal/model"

	"github.com/rs/zerolog"
)

// NewOrderRepository creates a repository over the orders collection.
func NewOrderRepository(store *docstore.Store, logger zerolog.Logger) OrderRepository {
	return newDocumentRepository[model.Order](store, OrdersCollection, logger)
}

// NewCustomOrderRepository creates a repository over the custom_orders collection.
func NewCustomOrderRepository(store *docstore.Store, logger zerolog.Logger) CustomOrderRepository {
	return newDocumentRepository[model.CustomOrder](store, CustomOrdersCollection, logger)
}
