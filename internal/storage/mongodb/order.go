package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xenking/brewhaven-cafe/internal/domain/order"
)

type orderDoc struct {
	ID        string         `bson:"_id"`
	Seq       int64          `bson:"seq"`
	UserID    string         `bson:"user_id"`
	Items     []orderItemDoc `bson:"items"`
	Status    string         `bson:"status"`
	CreatedAt time.Time      `bson:"created_at"`
}

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by MongoDB.
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository returns an OrderRepository on the orders collection
// of db.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(OrdersCollection)}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc := orderDoc{
		ID:        o.ID,
		Seq:       nextSeq(),
		UserID:    o.UserID,
		Items:     make([]orderItemDoc, len(o.Items)),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
	for i, it := range o.Items {
		doc.Items[i] = orderItemDoc{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns the orders of userID in creation order. Timestamps are
// truncated to the millisecond precision of BSON dates.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, bySeq)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", userID, err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", userID, err)
	}

	orders := make([]order.Order, len(docs))
	for i, d := range docs {
		items := make([]order.OrderItem, len(d.Items))
		for j, it := range d.Items {
			items[j] = order.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity}
		}
		orders[i] = order.Order{
			ID:        d.ID,
			UserID:    d.UserID,
			Items:     items,
			Status:    d.Status,
			CreatedAt: d.CreatedAt.UTC(),
		}
	}
	return orders, nil
}
