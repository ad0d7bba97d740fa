package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/brewhaven-cafe/db"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
	"github.com/xenking/brewhaven-cafe/internal/storage"
)

func main() {
	var (
		cfg          storage.Config
		productsFile string
		missing      bool
	)

	flag.StringVar(&cfg.Driver, "driver", "", "store driver: postgres or mongodb (default: picked from the URLs)")
	flag.StringVar(&cfg.DatabaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&cfg.MongoURI, "mongo-uri", "", "MongoDB connection URI (or MONGODB_URI env)")
	flag.StringVar(&cfg.MongoDatabase, "mongo-database", "cloudmart", "MongoDB database name")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (default: embedded catalog)")
	flag.BoolVar(&missing, "missing", false, "insert products missing from a non-empty catalog")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = os.Getenv("MONGODB_URI")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, productsFile, missing); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg storage.Config, productsFile string, missing bool) error {
	driver, err := storage.ResolveDriver(cfg)
	if err != nil {
		return err
	}
	if driver == storage.DriverNone {
		return errors.New("no store configured: set --database-url, --mongo-uri, DATABASE_URL or MONGODB_URI")
	}

	products, err := loadProducts(productsFile)
	if err != nil {
		return err
	}

	slog.Info("opening store", slog.String("driver", driver))

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer store.Close()

	if missing {
		slog.Info("inserting missing products", slog.Int("count", len(products)))
		return store.Products.InsertMissing(ctx, products)
	}

	inserted, err := product.Seed(ctx, store.Products, products)
	if err != nil {
		return err
	}
	if !inserted {
		slog.Info("catalog already seeded, nothing to do")
		return nil
	}
	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}

func loadProducts(path string) ([]product.Product, error) {
	data := db.SeedProducts
	if path != "" {
		slog.Info("reading products file", slog.String("path", path))
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read products file")
		}
		data = b
	}

	products, err := product.ParseSeed(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse products")
	}
	return products, nil
}
