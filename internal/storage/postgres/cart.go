package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
)

const (
	cartColumns = `id, user_id, product_id, quantity`

	listCartByUserSQL = `SELECT ` + cartColumns + ` FROM cart_items
		WHERE user_id = $1 ORDER BY seq`

	findCartByProductSQL = `SELECT ` + cartColumns + ` FROM cart_items
		WHERE user_id = $1 AND product_id = $2 ORDER BY seq`

	saveCartItemSQL = `INSERT INTO cart_items (` + cartColumns + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET quantity = EXCLUDED.quantity`

	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns the cart lines of userID in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart of %q: %w", userID, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cart.Line])
	if err != nil {
		return nil, fmt.Errorf("listing cart of %q: %w", userID, err)
	}
	return lines, nil
}

// FindByProduct returns the lines of userID that reference productID.
func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, findCartByProductSQL, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("finding cart line for %q: %w", productID, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowToStructByPos[cart.Line])
	if err != nil {
		return nil, fmt.Errorf("finding cart line for %q: %w", productID, err)
	}
	return lines, nil
}

// Save inserts the line or overwrites the quantity of the line with the same
// id.
func (r *CartRepository) Save(ctx context.Context, line cart.Line) error {
	_, err := r.pool.Exec(ctx, saveCartItemSQL,
		line.ID, line.UserID, line.ProductID, line.Quantity,
	)
	if err != nil {
		return fmt.Errorf("saving cart line %q: %w", line.ID, err)
	}
	return nil
}

// Delete removes a single line. Deleting a missing line is not an error.
func (r *CartRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.pool.Exec(ctx, deleteCartItemSQL, id, userID); err != nil {
		return fmt.Errorf("deleting cart line %q: %w", id, err)
	}
	return nil
}
