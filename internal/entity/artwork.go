package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleAvailable SaleStatus = "AVAILABLE"
	SaleSold      SaleStatus = "SOLD"
)

// Artwork is the catalog row the ledger operates on. Archived is an
// independent moderation flag; the ledger never touches it.
type Artwork struct {
	ID            uuid.UUID
	Title         string
	Artist        string
	Price         decimal.Decimal
	StockQuantity int
	SaleStatus    SaleStatus
	Archived      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveSaleStatus recomputes the sale status from a stock count.
func DeriveSaleStatus(stock int) SaleStatus {
	if stock <= 0 {
		return SaleSold
	}
	return SaleAvailable
}
