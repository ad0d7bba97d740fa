package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

type productDoc struct {
	ID          string               `bson:"_id"`
	Seq         int64                `bson:"seq"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Category    string               `bson:"category"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int                  `bson:"stock"`
	Image       string               `bson:"image"`
}

func (d productDoc) toDomain() (product.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return product.Product{}, fmt.Errorf("product %q price: %w", d.ID, err)
	}
	return product.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       price,
		Stock:       d.Stock,
		Image:       d.Image,
	}, nil
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by MongoDB.
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository returns a ProductRepository on the products
// collection of db.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(ProductsCollection)}
}

// List returns all products in insertion order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return r.find(ctx, "listing products", bson.M{})
}

// ListByCategory returns products whose category equals category exactly.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	return r.find(ctx, "listing products by category", bson.M{"category": category})
}

// Search returns products whose name or category contains q. q is quoted so
// it matches literally and case-sensitively.
func (r *ProductRepository) Search(ctx context.Context, q string) ([]product.Product, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q)}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"category": pattern},
	}}
	return r.find(ctx, "searching products", filter)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var doc productDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	p, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return r.find(ctx, "getting products by ids", bson.M{"_id": bson.M{"$in": ids}})
}

// Categories returns the distinct categories ordered by first appearance.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$seq"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	var groups []struct {
		Category string `bson:"_id"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories := make([]string, len(groups))
	for i, g := range groups {
		categories[i] = g.Category
	}
	return categories, nil
}

// Count returns the number of products in the catalog.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return int(n), nil
}

// InsertMissing upserts products with $setOnInsert so that existing ids are
// left untouched.
func (r *ProductRepository) InsertMissing(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(products))
	for _, p := range products {
		price, err := primitive.ParseDecimal128(p.Price.String())
		if err != nil {
			return fmt.Errorf("product %q price: %w", p.ID, err)
		}
		doc := productDoc{
			ID:          p.ID,
			Seq:         nextSeq(),
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Price:       price,
			Stock:       p.Stock,
			Image:       p.Image,
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}
	opts := options.BulkWrite().SetOrdered(true)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("inserting products: %w", err)
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, op string, filter bson.M) ([]product.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, bySeq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	products := make([]product.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
