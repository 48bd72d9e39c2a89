package repository

import (
	"annies-bakery/internal/docstore"
	"annies-bakery/internal/model"

	"github.com/rs/zerolog"
)

// NewProductRepository creates a repository over the products collection.
func NewProductRepository(store *docstore.Store, logger zerolog.Logger) ProductRepository {
	return newDocumentRepository[model.Product](store, ProductsCollection, logger)
}

// NewPostRepository creates a repository over the blog collection.
func NewPostRepository(store *docstore.Store, logger zerolog.Logger) PostRepository {
	return newDocumentRepository[model.BlogPost](store, PostsCollection, logger)
}
