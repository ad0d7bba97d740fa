package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/brewhaven-cafe/internal/domain"
	"github.com/xenking/brewhaven-cafe/internal/domain/auth"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

// --- Mock implementations ---

type mockCatalog struct {
	products []product.Product
	getErr   error
	lastQ    string
}

func (m *mockCatalog) List(_ context.Context, category string) []product.Product {
	out := []product.Product{}
	for _, p := range m.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockCatalog) Search(_ context.Context, q string) []product.Product {
	m.lastQ = q
	out := []product.Product{}
	for _, p := range m.products {
		if strings.Contains(p.Name, q) || strings.Contains(p.Category, q) {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockCatalog) Categories(_ context.Context) []string {
	return []string{"Coffee", "Pastry"}
}

func (m *mockCatalog) Get(_ context.Context, id string) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

type upsertCall struct {
	caller, productID string
	quantity          int
}

type mockCart struct {
	items   []cart.Item
	err     error
	upserts []upsertCall
	removed []string
}

func (m *mockCart) Get(_ context.Context, _ string) ([]cart.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockCart) Upsert(_ context.Context, caller, productID string, quantity int) error {
	if m.err != nil {
		return m.err
	}
	m.upserts = append(m.upserts, upsertCall{caller: caller, productID: productID, quantity: quantity})
	return nil
}

func (m *mockCart) Remove(_ context.Context, _, productID string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, productID)
	return nil
}

type mockOrders struct {
	placed *order.Order
	orders []order.Order
	err    error
	caller string
}

func (m *mockOrders) Place(_ context.Context, caller string) (*order.Order, error) {
	m.caller = caller
	if m.err != nil {
		return nil, m.err
	}
	return m.placed, nil
}

func (m *mockOrders) List(_ context.Context, _ string) []order.Order {
	if m.orders == nil {
		return []order.Order{}
	}
	return m.orders
}

// --- Helpers ---

type fixture struct {
	catalog *mockCatalog
	cart    *mockCart
	orders  *mockOrders
	auth    *auth.Authenticator
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		catalog: &mockCatalog{products: []product.Product{
			{ID: "1", Name: "Espresso Shot", Category: "Coffee", Price: decimal.RequireFromString("2.75"), Stock: 80, Image: "☕"},
			{ID: "7", Name: "Butter Croissant", Category: "Pastry", Price: decimal.RequireFromString("3.50"), Stock: 30, Image: "🥐"},
		}},
		cart:   &mockCart{},
		orders: &mockOrders{},
		auth: auth.New(auth.Config{
			Secret:   []byte("test-secret"),
			TTL:      time.Hour,
			Username: "barista",
			Password: "coffee123",
		}),
	}
	h := New(Config{Timeout: time.Second, Index: []byte("<html>BrewHaven</html>")},
		f.catalog, f.cart, f.orders, f.auth)
	r := chi.NewRouter()
	h.Routes(r)
	f.router = r
	return f
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	tok, err := f.auth.Login("barista", "coffee123")
	require.NoError(t, err)
	return tok.AccessToken
}

func (f *fixture) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- Tests ---

func TestHome(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "BrewHaven")
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[
		{"id":"1","name":"Espresso Shot","description":"","category":"Coffee","price":2.75,"stock":80,"image":"☕"},
		{"id":"7","name":"Butter Croissant","description":"","category":"Pastry","price":3.5,"stock":30,"image":"🥐"}
	]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/v1/products?category=Pastry", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0]["id"])

	rec = f.do(t, http.MethodGet, "/api/v1/products?category=Tea", "", "")
	assert.Equal(t, "[]", rec.Body.String())
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/search?q=Croissant", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "Butter Croissant", got[0]["name"])

	rec = f.do(t, http.MethodGet, "/api/v1/search?q=", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.catalog.lastQ)

	rec = f.do(t, http.MethodGet, "/api/v1/search", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["detail"], "q")
}

func TestGetProduct(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		getErr     error
		wantStatus int
		wantDetail string
	}{
		{name: "found", id: "1", wantStatus: http.StatusOK},
		{name: "not found", id: "999", wantStatus: http.StatusNotFound, wantDetail: "Product not found"},
		{name: "unavailable", id: "1", getErr: product.ErrUnavailable, wantStatus: http.StatusServiceUnavailable, wantDetail: "Database not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.catalog.getErr = tt.getErr

			rec := f.do(t, http.MethodGet, "/api/v1/products/"+tt.id, "", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode[map[string]any](t, rec)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
				return
			}
			assert.Equal(t, "Espresso Shot", body["name"])
			assert.Equal(t, 2.75, body["price"])
		})
	}
}

func TestListCategories(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Coffee","Pastry"]`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	t.Run("success", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/auth/login", `{"username":"barista","password":"coffee123"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, "bearer", body["token_type"])

		sub, err := f.auth.Verify(body["access_token"])
		require.NoError(t, err)
		assert.Equal(t, "barista", sub)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/auth/login", `{"username":"barista","password":"tea"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", decode[map[string]string](t, rec)["detail"])
	})

	for _, body := range []string{``, `not json`, `{"username":"barista"}`, `{"username":1,"password":"x"}`} {
		t.Run("malformed "+body, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/auth/login", body, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{name: "missing", header: "", wantDetail: "Not authenticated"},
		{name: "wrong scheme", header: "Token abc", wantDetail: "Not authenticated"},
		{name: "garbage", header: "Bearer abc", wantDetail: "Invalid or expired token"},
		{name: "no subject", header: "Bearer " + noSub, wantDetail: "Invalid token payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, route := range []struct{ method, path string }{
				{http.MethodGet, "/api/v1/cart"},
				{http.MethodPost, "/api/v1/cart/items"},
				{http.MethodDelete, "/api/v1/cart/items/1"},
				{http.MethodPost, "/api/v1/orders"},
				{http.MethodGet, "/api/v1/orders"},
			} {
				req := httptest.NewRequest(route.method, route.path, strings.NewReader(`{"product_id":"1"}`))
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				rec := httptest.NewRecorder()
				f.router.ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
				assert.Equal(t, tt.wantDetail, decode[map[string]string](t, rec)["detail"])
			}
			assert.Empty(t, f.cart.upserts)
			assert.Empty(t, f.orders.caller)
		})
	}
}

func TestGetCart(t *testing.T) {
	f := newFixture(t)
	f.cart.items = []cart.Item{
		{ID: "7", Name: "Butter Croissant", Price: decimal.RequireFromString("3.50"), Quantity: 2, Image: "🥐", Category: "Pastry"},
	}

	rec := f.do(t, http.MethodGet, "/api/v1/cart", "", f.token(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"7","name":"Butter Croissant","price":3.5,"quantity":2,"image":"🥐","category":"Pastry"}]`, rec.Body.String())

	f.cart.items = nil
	rec = f.do(t, http.MethodGet, "/api/v1/cart", "", f.token(t))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestAddCartItem(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	rec := f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"1","quantity":3}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Saved successfully"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"7"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []upsertCall{
		{caller: "barista", productID: "1", quantity: 3},
		{caller: "barista", productID: "7", quantity: 1},
	}, f.cart.upserts)

	for _, body := range []string{`{}`, `{"product_id":1}`, `{"product_id":"1","quantity":"two"}`, `[]`} {
		rec := f.do(t, http.MethodPost, "/api/v1/cart/items", body, token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
	assert.Len(t, f.cart.upserts, 2)
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/cart/items/7", "", f.token(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Removed successfully"}`, rec.Body.String())
	assert.Equal(t, []string{"7"}, f.cart.removed)
}

func TestCartSoftErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "offline", err: domain.StoreFailed("save cart line", domain.ErrStoreUnavailable), wantMsg: "Database not available"},
		{name: "store failure", err: domain.StoreFailed("save cart line", errors.New("connection reset")), wantMsg: "save cart line: connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.cart.err = tt.err
			token := f.token(t)

			for _, rec := range []*httptest.ResponseRecorder{
				f.do(t, http.MethodGet, "/api/v1/cart", "", token),
				f.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"1"}`, token),
				f.do(t, http.MethodDelete, "/api/v1/cart/items/1", "", token),
			} {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, tt.wantMsg, decode[map[string]string](t, rec)["error"])
			}
		})
	}
}

func TestPlaceOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.placed = &order.Order{
		ID:        "order-1",
		UserID:    "cafe_guest",
		Items:     []order.OrderItem{{ProductID: "1", Quantity: 2}},
		Status:    order.StatusConfirmed,
		CreatedAt: time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
	}

	rec := f.do(t, http.MethodPost, "/api/v1/orders", "{}", f.token(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"id":"order-1",
		"user_id":"cafe_guest",
		"items":[{"product_id":"1","quantity":2}],
		"status":"confirmed",
		"created_at":"2025-06-15T09:30:00Z"
	}`, rec.Body.String())
	assert.Equal(t, "barista", f.orders.caller)
}

func TestPlaceOrder_SoftError(t *testing.T) {
	f := newFixture(t)
	f.orders.err = domain.StoreFailed("list cart lines", domain.ErrStoreUnavailable)

	rec := f.do(t, http.MethodPost, "/api/v1/orders", "", f.token(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Database not available"}`, rec.Body.String())
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	token := f.token(t)

	rec := f.do(t, http.MethodGet, "/api/v1/orders", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	f.orders.orders = []order.Order{
		{ID: "o1", UserID: "cafe_guest", Items: []order.OrderItem{}, Status: order.StatusConfirmed, CreatedAt: time.Unix(0, 0)},
		{ID: "o2", UserID: "cafe_guest", Status: order.StatusConfirmed, CreatedAt: time.Unix(60, 0)},
	}
	rec = f.do(t, http.MethodGet, "/api/v1/orders", "", token)
	got := decode[[]map[string]any](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "o1", got[0]["id"])
	assert.Equal(t, []any{}, got[1]["items"])
	assert.Equal(t, "1970-01-01T00:01:00Z", got[1]["created_at"])
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
