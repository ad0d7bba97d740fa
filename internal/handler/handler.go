// Package handler implements the HTTP surface of the café API on a chi
// router. Response bodies are encoded with jx.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/brewhaven-cafe/internal/domain/auth"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

// Catalog serves product reads.
type Catalog interface {
	List(ctx context.Context, category string) []product.Product
	Search(ctx context.Context, q string) []product.Product
	Categories(ctx context.Context) []string
	Get(ctx context.Context, id string) (*product.Product, error)
}

// Cart serves the shared cart.
type Cart interface {
	Get(ctx context.Context, caller string) ([]cart.Item, error)
	Upsert(ctx context.Context, caller, productID string, quantity int) error
	Remove(ctx context.Context, caller, productID string) error
}

// Orders places and lists orders.
type Orders interface {
	Place(ctx context.Context, caller string) (*order.Order, error)
	List(ctx context.Context, caller string) []order.Order
}

// Authenticator issues tokens and resolves callers from the Authorization
// header.
type Authenticator interface {
	Login(username, password string) (*auth.Token, error)
	Authenticate(header string) (string, error)
}

var (
	_ Catalog       = (*product.Catalog)(nil)
	_ Cart          = (*cart.Service)(nil)
	_ Orders        = (*order.Service)(nil)
	_ Authenticator = (*auth.Authenticator)(nil)
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// Timeout bounds the store work of a single request. Zero disables it.
	Timeout time.Duration
	// Index is the page served at "/".
	Index []byte
	// LoginMiddlewares wrap only the login route.
	LoginMiddlewares []func(http.Handler) http.Handler
}

// Handler serves the UI, login and the /api/v1 routes.
type Handler struct {
	catalog Catalog
	cart    Cart
	orders  Orders
	auth    Authenticator

	timeout time.Duration
	index   []byte
	loginMW []func(http.Handler) http.Handler
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, catalog Catalog, cart Cart, orders Orders, authn Authenticator) *Handler {
	return &Handler{
		catalog: catalog,
		cart:    cart,
		orders:  orders,
		auth:    authn,
		timeout: cfg.Timeout,
		index:   cfg.Index,
		loginMW: cfg.LoginMiddlewares,
	}
}

// Routes mounts every handler on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Home)
	r.With(h.loginMW...).Post("/auth/login", h.Login)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/search", h.SearchProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/categories", h.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/cart", h.GetCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Delete("/cart/items/{product_id}", h.RemoveCartItem)
			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.ListOrders)
		})
	})
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}
