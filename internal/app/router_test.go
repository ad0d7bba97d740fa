package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/brewhaven-cafe/internal/storage"
)

type noopTelemetry struct{}

func (noopTelemetry) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (noopTelemetry) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }

func testConfig() *Config {
	return &Config{
		Store:       StoreConfig{Timeout: time.Second},
		Auth:        AuthConfig{Secret: "test-secret", TokenTTL: time.Hour, Username: "barista", Password: "coffee123"},
		CartOwner:   "cafe_guest",
		Version:     "1.2.3",
		DeployedVia: "container",
		CORS:        CORSConfig{Origins: []string{"*"}},
		Gzip:        GzipConfig{Enabled: true},
		RateLimit:   RateLimitConfig{Login: 3, Window: time.Minute},
	}
}

func newOfflineRouter(t *testing.T) http.Handler {
	t.Helper()
	return newOfflineRouterWith(t, testConfig())
}

func newOfflineRouterWith(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	store := storage.Offline()
	healthSvc := newHealth(store)
	healthSvc.SetReady(true)

	startedAt := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	r, err := NewRouter(context.Background(), cfg, store, healthSvc, noopTelemetry{}, startedAt)
	require.NoError(t, err)
	return r
}

func serve(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := serve(t, h, http.MethodPost, "/auth/login", `{"username":"barista","password":"coffee123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return tok.AccessToken
}

func TestRouter_OfflineHealth(t *testing.T) {
	r := newOfflineRouter(t)

	rec := serve(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"status":"healthy",
		"service":"brewhaven-cafe-api",
		"version":"1.2.3",
		"build_time":"2025-06-15T08:00:00Z",
		"database":"none",
		"db_status":"disconnected",
		"deployed_via":"container"
	}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Probes(t *testing.T) {
	r := newOfflineRouter(t)

	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/readyz", "", nil).Code)
}

func TestRouter_OfflineFallbacks(t *testing.T) {
	r := newOfflineRouter(t)

	for _, path := range []string{"/api/v1/products", "/api/v1/products?category=Coffee", "/api/v1/search?q=Latte", "/api/v1/categories"} {
		rec := serve(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]", rec.Body.String(), path)
	}

	rec := serve(t, r, http.MethodGet, "/api/v1/products/1", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"detail":"Database not available"}`, rec.Body.String())

	auth := http.Header{"Authorization": {"Bearer " + login(t, r)}}

	for _, path := range []string{"/api/v1/cart", "/api/v1/orders"} {
		rec := serve(t, r, http.MethodGet, path, "", auth)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "[]", rec.Body.String(), path)
	}

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":"1","quantity":2}`},
		{http.MethodDelete, "/api/v1/cart/items/1", ""},
		{http.MethodPost, "/api/v1/orders", ""},
	} {
		rec := serve(t, r, tc.method, tc.path, tc.body, auth)
		assert.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.JSONEq(t, `{"error":"Database not available"}`, rec.Body.String(), tc.path)
	}
}

func TestRouter_AuthGate(t *testing.T) {
	r := newOfflineRouter(t)

	rec := serve(t, r, http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())

	rec = serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"latte"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid credentials"}`, rec.Body.String())
}

func TestRouter_LoginRateLimit(t *testing.T) {
	r := newOfflineRouter(t)

	for range 3 {
		rec := serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"latte"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"coffee123"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = serve(t, r, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRouter_LoginRateLimitIgnoresForwardedFor(t *testing.T) {
	r := newOfflineRouter(t)

	var codes []int
	for i := range 5 {
		header := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
		rec := serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"latte"}`, header)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{401, 401, 401, 429, 429}, codes)
}

func TestRouter_LoginRateLimitTrustProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.TrustProxy = true
	r := newOfflineRouterWith(t, cfg)

	for i := range 5 {
		header := http.Header{"X-Forwarded-For": {fmt.Sprintf("203.0.113.%d", i+1)}}
		rec := serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"latte"}`, header)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRouter_LoginRateLimitOff(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = RateLimitConfig{Window: time.Minute}
	r := newOfflineRouterWith(t, cfg)

	for range 20 {
		rec := serve(t, r, http.MethodPost, "/auth/login", `{"username":"barista","password":"latte"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRouter_UI(t *testing.T) {
	r := newOfflineRouter(t)

	rec := serve(t, r, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "BrewHaven")
	assert.Contains(t, rec.Body.String(), "brewhaven_token")
}

func TestRouter_CORSAndGzip(t *testing.T) {
	r := newOfflineRouter(t)

	rec := serve(t, r, http.MethodOptions, "/api/v1/cart", "", http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(t, r, http.MethodGet, "/api/v1/products", "", http.Header{"Accept-Encoding": {"gzip"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestNewHealth(t *testing.T) {
	h := newHealth(storage.Offline())
	_, ok := h.Readiness(storeCheck)
	assert.False(t, ok)

	online := &storage.Store{Driver: storage.DriverPostgres}
	h = newHealth(online)
	res, ok := h.Readiness(storeCheck)
	require.True(t, ok)
	assert.False(t, res.Ran)
	assert.False(t, res.Healthy, "store is not ready before its first ping")

	h.SetReady(true)
	assert.False(t, h.IsReady())
}
