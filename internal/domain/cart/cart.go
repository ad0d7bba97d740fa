package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Line is one product-quantity pairing belonging to a cart owner.
type Line struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
}

// Item is a cart line joined to its product, as shown to the client.
// ID is the product id.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
	Image    string
	Category string
}

// Repository defines persistence operations for cart lines.
//
// ListByUser returns lines in store insertion order.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	FindByProduct(ctx context.Context, userID, productID string) ([]Line, error)
	// Save inserts the line or overwrites the stored line with the same id.
	Save(ctx context.Context, line Line) error
	Delete(ctx context.Context, userID, id string) error
}
