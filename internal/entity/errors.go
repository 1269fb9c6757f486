package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order is no longer pending")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// ArtworkNotFoundError names the offending cart line.
type ArtworkNotFoundError struct {
	ArtworkID uuid.UUID
}

func (e ArtworkNotFoundError) Error() string {
	return fmt.Sprintf("artwork %s not found", e.ArtworkID)
}

// InsufficientStockError carries what the buyer needs to correct the cart.
type InsufficientStockError struct {
	ArtworkID uuid.UUID
	Available int
	Requested int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("artwork %s has %d in stock, %d requested", e.ArtworkID, e.Available, e.Requested)
}
