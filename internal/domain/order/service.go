package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/brewhaven-cafe/internal/domain"
	"github.com/xenking/brewhaven-cafe/internal/domain/cart"
)

// Service converts the shared cart into orders.
type Service struct {
	lines  cart.Repository
	orders Repository
	owner  string
	placed metric.Int64Counter
	now    func() time.Time
	newID  func() string
}

// NewService creates an order Service for the cart owner. Placed orders are
// counted on a meter obtained from mp.
func NewService(lines cart.Repository, orders Repository, owner string, mp metric.MeterProvider) (*Service, error) {
	placed, err := mp.Meter("github.com/xenking/brewhaven-cafe/internal/domain/order").Int64Counter(
		"brewhaven.orders.placed",
		metric.WithDescription("Number of orders placed"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders counter")
	}
	return &Service{
		lines:  lines,
		orders: orders,
		owner:  owner,
		placed: placed,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}, nil
}

// Place snapshots the owner's cart into a confirmed order and then empties
// the cart.
//
// The two steps are separate store calls. If deleting a line fails the order
// stays persisted and the remaining lines stay in the cart, so a client
// retry can produce a second order. An empty cart still yields an order with
// no items.
func (s *Service) Place(ctx context.Context, caller string) (*Order, error) {
	lines, err := s.lines.ListByUser(ctx, s.owner)
	if err != nil {
		return nil, domain.StoreFailed("list cart lines", err)
	}

	items := make([]OrderItem, len(lines))
	for i, l := range lines {
		items[i] = OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
	}
	o := &Order{
		ID:        s.newID(),
		UserID:    s.owner,
		Items:     items,
		Status:    StatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, domain.StoreFailed("create order", err)
	}
	s.placed.Add(ctx, 1)

	lg := zctx.From(ctx).With(
		zap.String("caller", caller),
		zap.String("order_id", o.ID),
	)
	for i, l := range lines {
		if err := s.lines.Delete(ctx, s.owner, l.ID); err != nil {
			lg.Error("Order persisted but cart not cleared",
				zap.Int("cleared", i),
				zap.Int("lines", len(lines)),
				zap.Error(err),
			)
			return nil, domain.StoreFailed("clear cart", err)
		}
	}

	lg.Info("Order placed", zap.Int("items", len(items)))
	return o, nil
}

// List returns all orders of the owner. A store failure yields an empty list.
func (s *Service) List(ctx context.Context, caller string) []Order {
	orders, err := s.orders.ListByUser(ctx, s.owner)
	if err != nil {
		zctx.From(ctx).Warn("List orders failed", zap.String("caller", caller), zap.Error(err))
		return []Order{}
	}
	if orders == nil {
		return []Order{}
	}
	return orders
}
