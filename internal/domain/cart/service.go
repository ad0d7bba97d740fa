package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/brewhaven-cafe/internal/domain"
	"github.com/xenking/brewhaven-cafe/internal/domain/product"
)

// Service manages the cart of a single fixed owner.
//
// Every caller shares the owner's cart: the authenticated identity is only
// recorded in logs and never used as a storage key.
type Service struct {
	lines    Repository
	products product.Repository
	owner    string
	newID    func() string
}

// NewService creates a cart Service storing all lines under owner.
func NewService(lines Repository, products product.Repository, owner string) *Service {
	return &Service{
		lines:    lines,
		products: products,
		owner:    owner,
		newID:    func() string { return uuid.New().String() },
	}
}

// Owner returns the identity under which cart lines are stored.
func (s *Service) Owner() string {
	return s.owner
}

// Get returns the owner's cart lines joined to their products. Lines whose
// product no longer exists are dropped. With no store configured the cart
// is empty.
func (s *Service) Get(ctx context.Context, caller string) ([]Item, error) {
	lines, err := s.lines.ListByUser(ctx, s.owner)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, domain.StoreFailed("list cart lines", err)
	}
	if len(lines) == 0 {
		return []Item{}, nil
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	fetched, err := s.products.GetByIDs(ctx, ids)
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, domain.StoreFailed("get cart products", err)
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		items = append(items, Item{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: l.Quantity,
			Image:    p.Image,
			Category: p.Category,
		})
	}
	zctx.From(ctx).Debug("Cart loaded",
		zap.String("caller", caller),
		zap.Int("lines", len(lines)),
		zap.Int("items", len(items)),
	)
	return items, nil
}

// Upsert sets the quantity of productID in the owner's cart. An existing line
// is overwritten, not incremented. Neither the product nor its stock is
// checked.
func (s *Service) Upsert(ctx context.Context, caller, productID string, quantity int) error {
	existing, err := s.lines.FindByProduct(ctx, s.owner, productID)
	if err != nil {
		return domain.StoreFailed("find cart line", err)
	}

	line := Line{
		ID:        s.newID(),
		UserID:    s.owner,
		ProductID: productID,
		Quantity:  quantity,
	}
	if len(existing) > 0 {
		line = existing[0]
		line.Quantity = quantity
	}
	if err := s.lines.Save(ctx, line); err != nil {
		return domain.StoreFailed("save cart line", err)
	}

	zctx.From(ctx).Info("Cart line saved",
		zap.String("caller", caller),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Bool("created", len(existing) == 0),
	)
	return nil
}

// Remove deletes every line for productID from the owner's cart. Removing a
// product that is not in the cart is a no-op.
func (s *Service) Remove(ctx context.Context, caller, productID string) error {
	lines, err := s.lines.FindByProduct(ctx, s.owner, productID)
	if err != nil {
		return domain.StoreFailed("find cart lines", err)
	}
	for _, l := range lines {
		if err := s.lines.Delete(ctx, s.owner, l.ID); err != nil {
			return domain.StoreFailed("delete cart line", err)
		}
	}

	zctx.From(ctx).Info("Cart lines removed",
		zap.String("caller", caller),
		zap.String("product_id", productID),
		zap.Int("removed", len(lines)),
	)
	return nil
}
