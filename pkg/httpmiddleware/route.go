package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteFinder returns the route pattern that served r, if known.
type RouteFinder func(r *http.Request) (string, bool)

// ChiRoutes finds the pattern matched by a chi router. It only reports a
// route once routing has happened, so middlewares must call it after the
// next handler returns.
func ChiRoutes(r *http.Request) (string, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", false
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return "", false
	}
	return pattern, true
}
