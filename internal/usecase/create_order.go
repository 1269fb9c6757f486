package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartLine struct {
	ArtworkID uuid.UUID
	Quantity  int
}

type CreateOrderInput struct {
	BuyerID         string
	Items           []CartLine
	ShippingAddress string
}

type CreateOrderOutput struct {
	OrderID     uuid.UUID
	CheckoutURL string
}

// CreateOrder reserves stock, persists the order and opens a checkout
// session as one all-or-nothing unit. Any failure after partial reservation
// rolls the whole thing back; the buyer never holds a dangling reservation.
type CreateOrder struct {
	tx             Tx
	gateway        PaymentGateway
	sessionTimeout time.Duration
}

func NewCreateOrder(tx Tx, gateway PaymentGateway, sessionTimeout time.Duration) *CreateOrder {
	if sessionTimeout <= 0 {
		sessionTimeout = 8 * time.Second
	}
	return &CreateOrder{tx: tx, gateway: gateway, sessionTimeout: sessionTimeout}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (CreateOrderOutput, error) {
	if len(in.Items) == 0 {
		return CreateOrderOutput{}, entity.ErrEmptyCart
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return CreateOrderOutput{}, entity.ErrInvalidQuantity
		}
	}

	var out CreateOrderOutput

	err := uc.tx.Run(ctx, func(s Stores) error {
		order := &entity.Order{
			ID:              uuid.New(),
			BuyerID:         in.BuyerID,
			Status:          entity.StatusPending,
			ShippingAddress: in.ShippingAddress,
		}

		// Reserve in submission order so the first short line is the one
		// reported back.
		total := decimal.Zero
		lines := make([]SessionLine, 0, len(in.Items))
		for _, line := range in.Items {
			art, err := s.Ledger().Reserve(ctx, line.ArtworkID, line.Quantity)
			if err != nil {
				var insufficient entity.InsufficientStockError
				if errors.As(err, &insufficient) {
					reservationsRejected.Inc()
				}
				return err
			}

			qty := decimal.NewFromInt(int64(line.Quantity))
			total = total.Add(art.Price.Mul(qty))

			order.Items = append(order.Items, entity.OrderItem{
				ArtworkID:       line.ArtworkID,
				Quantity:        line.Quantity,
				PriceAtPurchase: art.Price,
			})
			lines = append(lines, SessionLine{
				Description: art.Title,
				UnitPrice:   art.Price,
				Quantity:    line.Quantity,
			})
		}
		order.TotalPrice = total

		if err := s.Orders().Insert(ctx, order); err != nil {
			return fmt.Errorf("orders.Insert: %w", err)
		}

		// External call with the transaction still open: if the provider is
		// down the reservations above must not survive.
		sctx, cancel := context.WithTimeout(ctx, uc.sessionTimeout)
		defer cancel()

		sess, err := uc.gateway.CreateSession(sctx, order.ID, lines)
		if err != nil {
			logging.FromCtx(ctx).Error("checkout session creation failed",
				"order_id", order.ID, "error", err)
			return fmt.Errorf("%w: %v", entity.ErrGatewayUnavailable, err)
		}

		if err := s.Orders().AttachPaymentSession(ctx, order.ID, sess.ID); err != nil {
			return fmt.Errorf("orders.AttachPaymentSession: %w", err)
		}

		if err := s.Outbox().Append(ctx, EventOrderCreated, orderEventPayload(order, entity.StatusPending)); err != nil {
			return fmt.Errorf("outbox.Append: %w", err)
		}

		out = CreateOrderOutput{OrderID: order.ID, CheckoutURL: sess.URL}
		return nil
	})
	if err != nil {
		return CreateOrderOutput{}, err
	}

	ordersCreated.Inc()
	return out, nil
}
