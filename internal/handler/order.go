package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// PlaceOrder handles POST /api/v1/orders. Any request body is ignored.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	o, err := h.orders.Place(ctx, CallerFromContext(ctx))
	if err != nil {
		softFail(ctx, w, "Place order", err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// ListOrders handles GET /api/v1/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	orders := h.orders.List(ctx, CallerFromContext(ctx))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrders(e, orders)
	})
}
