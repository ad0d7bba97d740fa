package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

// ListProducts handles GET /api/v1/products[?category=].
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	products := h.catalog.List(ctx, r.URL.Query().Get("category"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProducts(e, products)
	})
}

// SearchProducts handles GET /api/v1/search?q=.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("q") {
		writeDetail(w, http.StatusUnprocessableEntity, "query parameter q is required")
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	products := h.catalog.Search(ctx, query.Get("q"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProducts(e, products)
	})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			encodeProduct(e, *p)
		})
	case errors.Is(err, product.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Product not found")
	default:
		writeDetail(w, http.StatusServiceUnavailable, "Database not available")
	}
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	categories := h.catalog.Categories(ctx)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeStrings(e, categories)
	})
}
