// Package storage opens the configured backing store and exposes its
// repositories.
package storage

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/xenking/brewhaven-cafe/internal/domain"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
	"github.com/xenking/brewhaven-cafe/internal/storage/mongodb"
	"github.com/xenking/brewhaven-cafe/internal/storage/offline"
	"github.com/xenking/brewhaven-cafe/internal/storage/postgres"
)

// Driver names.
const (
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
	DriverNone     = "none"
)

// Config selects and configures a store driver.
type Config struct {
	// Driver is one of postgres, mongodb or none. When empty it is resolved
	// from DatabaseURL and MongoURI.
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// ResolveDriver returns the effective driver name for cfg.
func ResolveDriver(cfg Config) (string, error) {
	switch d := strings.ToLower(strings.TrimSpace(cfg.Driver)); d {
	case DriverPostgres, "postgresql", "pg":
		return DriverPostgres, nil
	case DriverMongoDB, "mongo":
		return DriverMongoDB, nil
	case DriverNone, "offline":
		return DriverNone, nil
	case "":
		switch {
		case cfg.DatabaseURL != "":
			return DriverPostgres, nil
		case cfg.MongoURI != "":
			return DriverMongoDB, nil
		default:
			return DriverNone, nil
		}
	default:
		return "", errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// Store holds the repositories of one backing store.
type Store struct {
	Driver   string
	Products product.Repository
	Cart     cart.Repository
	Orders   order.Repository

	ping  func(ctx context.Context) error
	close func()
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the store connections.
func (s *Store) Close() {
	s.close()
}

// Offline returns a Store whose repositories always fail with
// domain.ErrStoreUnavailable.
func Offline() *Store {
	return &Store{
		Driver:   DriverNone,
		Products: offline.Products{},
		Cart:     offline.Cart{},
		Orders:   offline.Orders{},
		ping:     func(context.Context) error { return domain.ErrStoreUnavailable },
		close:    func() {},
	}
}

// Open connects to the store selected by cfg. Postgres schema migrations
// and MongoDB indexes are applied before returning.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := ResolveDriver(cfg)
	if err != nil {
		return nil, err
	}
	lg := zctx.From(ctx).With(zap.String("driver", driver))

	switch driver {
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create database pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Store opened")
		return &Store{
			Driver:   DriverPostgres,
			Products: postgres.NewProductRepository(pool),
			Cart:     postgres.NewCartRepository(pool),
			Orders:   postgres.NewOrderRepository(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil

	case DriverMongoDB:
		db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, errors.Wrap(err, "connect mongodb")
		}
		client := db.Client()
		if err := mongodb.CreateIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, errors.Wrap(err, "create indexes")
		}
		lg.Info("Store opened", zap.String("database", cfg.MongoDatabase))
		return &Store{
			Driver:   DriverMongoDB,
			Products: mongodb.NewProductRepository(db),
			Cart:     mongodb.NewCartRepository(db),
			Orders:   mongodb.NewOrderRepository(db),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    disconnect(client),
		}, nil

	default:
		lg.Warn("No database configured, running offline")
		return Offline(), nil
	}
}

func disconnect(client *mongo.Client) func() {
	return func() {
		_ = client.Disconnect(context.Background())
	}
}
