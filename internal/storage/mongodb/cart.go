package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
)

type cartDoc struct {
	ID        string `bson:"_id"`
	Seq       int64  `bson:"seq"`
	UserID    string `bson:"user_id"`
	ProductID string `bson:"product_id"`
	Quantity  int    `bson:"quantity"`
}

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by MongoDB. Each line is
// its own document.
type CartRepository struct {
	collection *mongo.Collection
}

// NewCartRepository returns a CartRepository on the cart collection of db.
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection(CartCollection)}
}

// ListByUser returns the cart lines of userID in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// FindByProduct returns the lines of userID that reference productID.
func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID string) ([]cart.Line, error) {
	return r.find(ctx, bson.M{"user_id": userID, "product_id": productID})
}

// Save inserts the line or overwrites the line with the same id.
func (r *CartRepository) Save(ctx context.Context, line cart.Line) error {
	update := bson.M{
		"$set": bson.M{
			"user_id":    line.UserID,
			"product_id": line.ProductID,
			"quantity":   line.Quantity,
		},
		"$setOnInsert": bson.M{"seq": nextSeq()},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": line.ID}, update, opts); err != nil {
		return fmt.Errorf("saving cart line %q: %w", line.ID, err)
	}
	return nil
}

// Delete removes a single line. Deleting a missing line is not an error.
func (r *CartRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID}); err != nil {
		return fmt.Errorf("deleting cart line %q: %w", id, err)
	}
	return nil
}

func (r *CartRepository) find(ctx context.Context, filter bson.M) ([]cart.Line, error) {
	cursor, err := r.collection.Find(ctx, filter, bySeq)
	if err != nil {
		return nil, fmt.Errorf("finding cart lines: %w", err)
	}
	var docs []cartDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("finding cart lines: %w", err)
	}
	lines := make([]cart.Line, len(docs))
	for i, d := range docs {
		lines[i] = cart.Line{
			ID:        d.ID,
			UserID:    d.UserID,
			ProductID: d.ProductID,
			Quantity:  d.Quantity,
		}
	}
	return lines, nil
}
