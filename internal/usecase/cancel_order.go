package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/logging"
	"github.com/google/uuid"
)

// CancelOrder releases a pending order's reservation. The payment session is
// left to expire on the provider's side; there is no gateway call here.
type CancelOrder struct {
	tx Tx
}

func NewCancelOrder(tx Tx) *CancelOrder {
	return &CancelOrder{tx: tx}
}

func (uc *CancelOrder) Execute(ctx context.Context, orderID uuid.UUID, buyerID string) error {
	err := uc.tx.Run(ctx, func(s Stores) error {
		order, err := s.Orders().GetByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, entity.ErrOrderNotFound) {
				return entity.ErrOrderNotFound
			}
			return fmt.Errorf("orders.GetByID: %w", err)
		}

		// Not the owner: indistinguishable from not found.
		if order.BuyerID != buyerID {
			return entity.ErrOrderNotFound
		}

		ok, err := s.Orders().TransitionFrom(ctx, order.ID, entity.StatusPending, entity.StatusCancelled)
		if err != nil {
			return fmt.Errorf("orders.TransitionFrom: %w", err)
		}
		if !ok {
			return entity.ErrOrderNotCancellable
		}

		for _, item := range order.Items {
			if err := s.Ledger().Release(ctx, item.ArtworkID, item.Quantity); err != nil {
				return fmt.Errorf("ledger.Release: %w", err)
			}
		}

		if err := s.Outbox().Append(ctx, EventOrderCancelled, orderEventPayload(order, entity.StatusCancelled)); err != nil {
			return fmt.Errorf("outbox.Append: %w", err)
		}

		logging.FromCtx(ctx).Info("order cancelled", "order_id", order.ID)
		return nil
	})
	if err != nil {
		return err
	}

	ordersCancelled.Inc()
	return nil
}
