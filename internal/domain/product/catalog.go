package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Catalog exposes read-only projections over the product store.
//
// List, Search and Categories never fail: a store error is logged and an
// empty result is returned. Get is the exception and reports ErrNotFound or
// ErrUnavailable.
type Catalog struct {
	repo Repository
}

// NewCatalog creates a Catalog backed by repo.
func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// List returns all products, or only those in category when it is non-empty.
func (c *Catalog) List(ctx context.Context, category string) []Product {
	var (
		products []Product
		err      error
	)
	if category != "" {
		products, err = c.repo.ListByCategory(ctx, category)
	} else {
		products, err = c.repo.List(ctx)
	}
	if err != nil {
		zctx.From(ctx).Warn("List products failed", zap.String("category", category), zap.Error(err))
		return []Product{}
	}
	return nonNil(products)
}

// Search returns products whose name or category contains q.
func (c *Catalog) Search(ctx context.Context, q string) []Product {
	products, err := c.repo.Search(ctx, q)
	if err != nil {
		zctx.From(ctx).Warn("Search products failed", zap.String("q", q), zap.Error(err))
		return []Product{}
	}
	return nonNil(products)
}

// Categories returns the distinct product categories.
func (c *Catalog) Categories(ctx context.Context) []string {
	categories, err := c.repo.Categories(ctx)
	if err != nil {
		zctx.From(ctx).Warn("List categories failed", zap.Error(err))
		return []string{}
	}
	if categories == nil {
		return []string{}
	}
	return categories
}

// Get returns a single product by id.
func (c *Catalog) Get(ctx context.Context, id string) (*Product, error) {
	p, err := c.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	default:
		zctx.From(ctx).Warn("Get product failed", zap.String("id", id), zap.Error(err))
		return nil, errors.Wrapf(ErrUnavailable, "get product %s: %s", id, err)
	}
}

func nonNil(products []Product) []Product {
	if products == nil {
		return []Product{}
	}
	return products
}
