package usecase

import (
	"encoding/json"
	"time"

	"github.com/artbay/artbay-api/internal/entity"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderFailed    = "order.failed"
	EventOrderCancelled = "order.cancelled"
)

// OrderEventMsg is the outbox/Kafka payload for order status changes.
type OrderEventMsg struct {
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

func orderEventPayload(o *entity.Order, status entity.OrderStatus) []byte {
	b, _ := json.Marshal(OrderEventMsg{
		OrderID:    o.ID.String(),
		BuyerID:    o.BuyerID,
		Status:     string(status),
		TotalPrice: o.TotalPrice.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	})
	return b
}
