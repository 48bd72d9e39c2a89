package handler

import (
	"net/http"
	"strconv"

	"annies-bakery/internal/model"
	"annies-bakery/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CatalogHandler handles product and blog requests.
type CatalogHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// ListProducts handles GET /api/products.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProductFilter{Category: q.Get("category")}

	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid featured parameter", h.logger)
			return
		}
		filter.Featured = featured
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct handles GET /api/products/{id}.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ListPosts handles GET /api/blog?page=N.
func (h *CatalogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		var err error
		page, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page parameter", h.logger)
			return
		}
	}

	posts, err := h.service.ListPosts(r.Context(), page)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// GetPost handles GET /api/blog/{id}.
func (h *CatalogHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// AllProducts handles GET /admin/products.
func (h *CatalogHandler) AllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.AllProducts(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// SaveProduct handles POST /admin/products and PUT /admin/products/{id}.
func (h *CatalogHandler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	var product model.Product
	if !decodeJSON(w, r, &product, h.logger) {
		return
	}

	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		product.ID = id
		status = http.StatusOK
	} else {
		product.ID = ""
	}

	saved, err := h.service.SaveProduct(r.Context(), &product)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, status, saved)
}

// DeleteProduct handles DELETE /admin/products/{id}.
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AllPosts handles GET /admin/posts.
func (h *CatalogHandler) AllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.AllPosts(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}

// SavePost handles POST /admin/posts and PUT /admin/posts/{id}.
func (h *CatalogHandler) SavePost(w http.ResponseWriter, r *http.Request) {
	var post model.BlogPost
	if !decodeJSON(w, r, &post, h.logger) {
		return
	}

	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		post.ID = id
		status = http.StatusOK
	} else {
		post.ID = ""
	}

	saved, err := h.service.SavePost(r.Context(), &post)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, status, saved)
}

// DeletePost handles DELETE /admin/posts/{id}.
func (h *CatalogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
