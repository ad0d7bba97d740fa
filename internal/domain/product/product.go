package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrUnavailable is returned by Catalog.Get when the store cannot serve
	// the lookup.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

// Repository defines read operations for the product catalog plus the
// insert used by seeding.
//
// Implementations return products in store insertion order.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	// Search returns products whose name or category contains q
	// (case-sensitive).
	Search(ctx context.Context, q string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// Categories returns distinct categories in first-appearance order.
	Categories(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	// InsertMissing inserts products, skipping ids that already exist.
	InsertMissing(ctx context.Context, products []Product) error
}
