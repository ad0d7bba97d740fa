package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/brewhaven-cafe/db"
	"github.com/xenking/brewhaven-cafe/internal/domain/auth"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
	"github.com/xenking/brewhaven-cafe/internal/handler"
	"github.com/xenking/brewhaven-cafe/internal/storage"
	"github.com/xenking/brewhaven-cafe/pkg/health"
	"github.com/xenking/brewhaven-cafe/pkg/httpmiddleware"
	"github.com/xenking/brewhaven-cafe/web"
)

// ServiceName is reported by /health and used as the telemetry service name.
const ServiceName = "brewhaven-cafe-api"

// storeCheck names the readiness probe behind db_status.
const storeCheck = "store"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))
	startedAt := time.Now()

	store := openStore(ctx, cfg.Store)
	defer store.Close()

	if cfg.Store.Seed && store.Driver != storage.DriverNone {
		seedCatalog(ctx, store)
	}

	// Health check service.
	healthSvc := newHealth(store)
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)
	defer healthSvc.Stop()

	router, err := NewRouter(ctx, cfg, store, healthSvc, m, startedAt)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           router,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gCtx.Done()
		wasReady := healthSvc.IsReady()
		healthSvc.SetReady(false)
		if wasReady {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// openStore opens the configured store. A store that cannot be opened
// leaves the service running offline.
func openStore(ctx context.Context, cfg StoreConfig) *storage.Store {
	store, err := storage.Open(ctx, cfg.storage())
	if err != nil {
		zctx.From(ctx).Error("Open store failed, running offline", zap.Error(err))
		return storage.Offline()
	}
	return store
}

func seedCatalog(ctx context.Context, store *storage.Store) {
	lg := zctx.From(ctx)
	products, err := product.ParseSeed(db.SeedProducts)
	if err != nil {
		lg.Error("Parse seed catalog", zap.Error(err))
		return
	}
	if _, err := product.Seed(ctx, store.Products, products); err != nil {
		lg.Error("Seed catalog failed", zap.Error(err))
	}
}

func newHealth(store *storage.Store) *health.Health {
	h := health.New()
	if store.Driver != storage.DriverNone {
		h.AddReadinessCheck(storeCheck, 5*time.Second, health.PingCheck(store.Driver, store.Ping),
			health.WithThresholds(2, 1),
			health.WithInitialState(false),
		)
	}
	h.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	h.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(time.Second))
	return h
}

// NewRouter wires the domain services over store and returns the HTTP
// handler with the middleware chain applied.
func NewRouter(
	ctx context.Context,
	cfg *Config,
	store *storage.Store,
	healthSvc *health.Health,
	m httpmiddleware.Telemetry,
	startedAt time.Time,
) (http.Handler, error) {
	catalog := product.NewCatalog(store.Products)
	cartSvc := cart.NewService(store.Cart, store.Products, cfg.CartOwner)
	orderSvc, err := order.NewService(store.Cart, store.Orders, cfg.CartOwner, m.MeterProvider())
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}
	authn := auth.New(auth.Config{
		Secret:   []byte(cfg.Auth.Secret),
		TTL:      cfg.Auth.TokenTTL,
		Username: cfg.Auth.Username,
		Password: cfg.Auth.Password,
	})

	clientKey := httpmiddleware.ClientIP
	if cfg.RateLimit.TrustProxy {
		clientKey = httpmiddleware.ForwardedClientIP
	}
	h := handler.New(
		handler.Config{
			Timeout: cfg.Store.Timeout,
			Index:   web.Index,
			LoginMiddlewares: []func(http.Handler) http.Handler{
				httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
					Max:    cfg.RateLimit.Login,
					Window: cfg.RateLimit.Window,
					Key:    clientKey,
				}),
			},
		},
		catalog, cartSvc, orderSvc, authn,
	)

	r := chi.NewRouter()
	r.Use(
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Recovery(),
		httpmiddleware.Instrument(ServiceName, m),
		httpmiddleware.LogRequests(httpmiddleware.ChiRoutes),
		httpmiddleware.Labeler(httpmiddleware.ChiRoutes),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			MaxAge:           86400,
		}),
	)
	if cfg.Gzip.Enabled {
		r.Use(httpmiddleware.Gzip(cfg.Gzip.Level))
	}

	r.Get("/health", healthSvc.InfoEndpoint(health.Info{
		Service:     ServiceName,
		Version:     cfg.Version,
		BuildTime:   startedAt,
		Database:    store.Driver,
		DeployedVia: cfg.DeployedVia,
		Check:       storeCheck,
	}))
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	h.Routes(r)

	return r, nil
}
