// Package mongodb implements the catalog, cart and order repositories on
// MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ProductsCollection = "products"
	CartCollection     = "cart"
	OrdersCollection   = "orders"
)

// Connect opens a client for uri and returns the named database after a
// successful ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateIndexes creates the secondary indexes used by the repositories.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		ProductsCollection: {
			{Keys: bson.D{{Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "seq", Value: 1}}},
		},
		CartCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}}},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "seq", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating %s indexes: %w", name, err)
		}
	}
	return nil
}

var (
	seqMu   sync.Mutex
	lastSeq int64
)

// nextSeq returns a strictly increasing insertion sequence number. Documents
// are sorted by it to preserve insertion order.
func nextSeq() int64 {
	seqMu.Lock()
	defer seqMu.Unlock()

	seq := time.Now().UnixNano()
	if seq <= lastSeq {
		seq = lastSeq + 1
	}
	lastSeq = seq
	return seq
}

var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
