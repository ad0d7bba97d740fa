package order

import (
	"context"
	"time"
)

// StatusConfirmed is the status every order is created with.
const StatusConfirmed = "confirmed"

// Order is an immutable snapshot of a cart taken at placement time.
// Prices are not captured.
type Order struct {
	ID        string
	UserID    string
	Items     []OrderItem
	Status    string
	CreatedAt time.Time
}

// OrderItem represents a single line item in an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	// ListByUser returns orders in creation order.
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
