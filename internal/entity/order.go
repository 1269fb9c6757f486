package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusFailed    OrderStatus = "FAILED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is permitted out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

type Order struct {
	ID               uuid.UUID
	BuyerID          string
	Status           OrderStatus
	TotalPrice       decimal.Decimal
	PaymentSessionID string // empty until session creation succeeds
	ShippingAddress  string
	Items            []OrderItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ArtworkID       uuid.UUID
	Quantity        int
	PriceAtPurchase decimal.Decimal

	// Filled from the artworks table on reads; not persisted with the item.
	ArtworkTitle string
}
