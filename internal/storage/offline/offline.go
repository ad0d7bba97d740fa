// Package offline provides repositories for running without a database.
// Every call fails with domain.ErrStoreUnavailable.
package offline

import (
	"context"

	"github.com/xenking/brewhaven-cafe/internal/domain"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
	"github.com/xenking/brewhaven-cafe/internal/domain/order"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

var (
	_ product.Repository = Products{}
	_ cart.Repository    = Cart{}
	_ order.Repository   = Orders{}
)

// Products is an unavailable product.Repository.
type Products struct{}

func (Products) List(context.Context) ([]product.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) ListByCategory(context.Context, string) ([]product.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) Search(context.Context, string) ([]product.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) GetByID(context.Context, string) (*product.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) GetByIDs(context.Context, []string) ([]product.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) Categories(context.Context) ([]string, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Products) Count(context.Context) (int, error) {
	return 0, domain.ErrStoreUnavailable
}

func (Products) InsertMissing(context.Context, []product.Product) error {
	return domain.ErrStoreUnavailable
}

// Cart is an unavailable cart.Repository.
type Cart struct{}

func (Cart) ListByUser(context.Context, string) ([]cart.Line, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Cart) FindByProduct(context.Context, string, string) ([]cart.Line, error) {
	return nil, domain.ErrStoreUnavailable
}

func (Cart) Save(context.Context, cart.Line) error {
	return domain.ErrStoreUnavailable
}

func (Cart) Delete(context.Context, string, string) error {
	return domain.ErrStoreUnavailable
}

// Orders is an unavailable order.Repository.
type Orders struct{}

func (Orders) Create(context.Context, *order.Order) error {
	return domain.ErrStoreUnavailable
}

func (Orders) ListByUser(context.Context, string) ([]order.Order, error) {
	return nil, domain.ErrStoreUnavailable
}
