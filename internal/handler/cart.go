package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/brewhaven-cafe/internal/domain"
)

// GetCart handles GET /api/v1/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	items, err := h.cart.Get(ctx, CallerFromContext(ctx))
	if err != nil {
		softFail(ctx, w, "Get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCartItems(e, items)
	})
}

// AddCartItem handles POST /api/v1/cart/items.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req, err := decodeCartItem(data)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.cart.Upsert(ctx, CallerFromContext(ctx), req.ProductID, req.Quantity); err != nil {
		softFail(ctx, w, "Save cart item", err)
		return
	}
	writeMessage(w, "Saved successfully")
}

// RemoveCartItem handles DELETE /api/v1/cart/items/{product_id}.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.cart.Remove(ctx, CallerFromContext(ctx), chi.URLParam(r, "product_id")); err != nil {
		softFail(ctx, w, "Remove cart item", err)
		return
	}
	writeMessage(w, "Removed successfully")
}

// softFail logs a store failure and reports it as a 200 {"error": ...}.
func softFail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	zctx.From(ctx).Warn(op+" failed", zap.Error(err))

	msg := err.Error()
	if errors.Is(err, domain.ErrStoreUnavailable) {
		msg = "Database not available"
	}
	writeSoftError(w, msg)
}
