package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

const (
	productColumns = `id, name, description, category, price, stock, image`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY seq`

	listProductsByCategorySQL = `SELECT ` + productColumns + ` FROM products
		WHERE category = $1 ORDER BY seq`

	searchProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE strpos(name, $1) > 0 OR strpos(category, $1) > 0 ORDER BY seq`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id = ANY($1) ORDER BY seq`

	listCategoriesSQL = `SELECT category FROM products
		GROUP BY category ORDER BY MIN(seq)`

	countProductsSQL = `SELECT count(*) FROM products`

	insertProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products in insertion order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return r.query(ctx, "listing products", listProductsSQL)
}

// ListByCategory returns products whose category equals category exactly.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]product.Product, error) {
	return r.query(ctx, "listing products by category", listProductsByCategorySQL, category)
}

// Search returns products whose name or category contains q. strpos is
// used instead of LIKE so that q is matched literally and case-sensitively.
func (r *ProductRepository) Search(ctx context.Context, q string) ([]product.Product, error) {
	return r.query(ctx, "searching products", searchProductsSQL, q)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	return r.query(ctx, "getting products by ids", getProductsByIDsSQL, ids)
}

// Categories returns the distinct categories ordered by first appearance.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// Count returns the number of products in the catalog.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countProductsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// InsertMissing inserts products in a single batch, skipping ids that
// already exist.
func (r *ProductRepository) InsertMissing(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(insertProductSQL,
			p.ID, p.Name, p.Description, p.Category, p.Price, p.Stock, p.Image,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting products: %w", err)
	}
	return nil
}

func (r *ProductRepository) query(ctx context.Context, op, sql string, args ...any) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock, &p.Image,
	)
	return p, err
}
