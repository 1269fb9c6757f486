package usecase

import (
	"context"
	"fmt"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/google/uuid"
)

// OrderQueries serves the read side of the order surface. It runs against
// the pool directly; reads need no unit of work.
type OrderQueries struct {
	orders OrderStore
}

func NewOrderQueries(orders OrderStore) *OrderQueries {
	return &OrderQueries{orders: orders}
}

func (q *OrderQueries) ListMine(ctx context.Context, buyerID string) ([]entity.Order, error) {
	orders, err := q.orders.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("orders.ListByBuyer: %w", err)
	}
	return orders, nil
}

func (q *OrderQueries) ListAll(ctx context.Context) ([]entity.Order, error) {
	orders, err := q.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders.ListAll: %w", err)
	}
	return orders, nil
}

// Get returns the order when the caller owns it or is an admin.
func (q *OrderQueries) Get(ctx context.Context, id uuid.UUID, callerID string, admin bool) (*entity.Order, error) {
	order, err := q.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && order.BuyerID != callerID {
		return nil, entity.ErrOrderNotFound
	}
	return order, nil
}
