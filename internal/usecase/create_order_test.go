package usecase_test

import (
	"sync"
	"testing"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedArtwork(tx *memTx, stock int, price string) uuid.UUID {
	id := uuid.New()
	tx.seedArtwork(entity.Artwork{
		ID:            id,
		Title:         "Untitled No. " + id.String()[:8],
		Artist:        "Test Artist",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		SaleStatus:    entity.DeriveSaleStatus(stock),
	})
	return id
}

func TestCreateOrder(t *testing.T) {
	t.Run("reserves stock and opens a session", func(t *testing.T) {
		tx := newMemTx()
		gw := &fakeGateway{}
		uc := usecase.NewCreateOrder(tx, gw, 0)

		artA := seedArtwork(tx, 3, "120.00")
		artB := seedArtwork(tx, 2, "80.50")

		out, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID: "buyer-1",
			Items: []usecase.CartLine{
				{ArtworkID: artA, Quantity: 2},
				{ArtworkID: artB, Quantity: 1},
			},
			ShippingAddress: "12 Gallery Lane",
		})
		require.NoError(t, err)
		require.NotEmpty(t, out.CheckoutURL)

		order := tx.order(out.OrderID)
		assert.Equal(t, entity.StatusPending, order.Status)
		assert.Equal(t, "buyer-1", order.BuyerID)
		assert.NotEmpty(t, order.PaymentSessionID)
		assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("320.50")),
			"total %s", order.TotalPrice)
		require.Len(t, order.Items, 2)
		assert.True(t, order.Items[0].PriceAtPurchase.Equal(decimal.RequireFromString("120.00")))

		assert.Equal(t, 1, tx.artwork(artA).StockQuantity)
		assert.Equal(t, 1, tx.artwork(artB).StockQuantity)

		events := tx.events()
		require.Len(t, events, 1)
		assert.Equal(t, usecase.EventOrderCreated, events[0].Type)
	})

	t.Run("last unit flips sale status to sold", func(t *testing.T) {
		tx := newMemTx()
		uc := usecase.NewCreateOrder(tx, &fakeGateway{}, 0)

		art := seedArtwork(tx, 1, "50.00")

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID:         "buyer-1",
			Items:           []usecase.CartLine{{ArtworkID: art, Quantity: 1}},
			ShippingAddress: "addr",
		})
		require.NoError(t, err)

		got := tx.artwork(art)
		assert.Equal(t, 0, got.StockQuantity)
		assert.Equal(t, entity.SaleSold, got.SaleStatus)
	})

	t.Run("empty cart", func(t *testing.T) {
		tx := newMemTx()
		uc := usecase.NewCreateOrder(tx, &fakeGateway{}, 0)

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{BuyerID: "buyer-1"})
		assert.ErrorIs(t, err, entity.ErrEmptyCart)
	})

	t.Run("zero quantity", func(t *testing.T) {
		tx := newMemTx()
		uc := usecase.NewCreateOrder(tx, &fakeGateway{}, 0)
		art := seedArtwork(tx, 3, "10.00")

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID: "buyer-1",
			Items:   []usecase.CartLine{{ArtworkID: art, Quantity: 0}},
		})
		assert.ErrorIs(t, err, entity.ErrInvalidQuantity)
		assert.Equal(t, 3, tx.artwork(art).StockQuantity)
	})

	t.Run("insufficient stock on a later line rolls back earlier reservations", func(t *testing.T) {
		tx := newMemTx()
		gw := &fakeGateway{}
		uc := usecase.NewCreateOrder(tx, gw, 0)

		artA := seedArtwork(tx, 5, "10.00")
		artB := seedArtwork(tx, 1, "20.00")

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID: "buyer-1",
			Items: []usecase.CartLine{
				{ArtworkID: artA, Quantity: 2},
				{ArtworkID: artB, Quantity: 3},
			},
			ShippingAddress: "addr",
		})

		var insufficient entity.InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, artB, insufficient.ArtworkID)
		assert.Equal(t, 1, insufficient.Available)
		assert.Equal(t, 3, insufficient.Requested)

		// nothing committed
		assert.Equal(t, 5, tx.artwork(artA).StockQuantity)
		assert.Equal(t, 1, tx.artwork(artB).StockQuantity)
		assert.Zero(t, tx.orderCount())
		assert.Zero(t, gw.calls)
	})

	t.Run("unknown artwork", func(t *testing.T) {
		tx := newMemTx()
		uc := usecase.NewCreateOrder(tx, &fakeGateway{}, 0)
		missing := uuid.New()

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID: "buyer-1",
			Items:   []usecase.CartLine{{ArtworkID: missing, Quantity: 1}},
		})

		var notFound entity.ArtworkNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, missing, notFound.ArtworkID)
	})

	t.Run("gateway failure rolls back the reservation", func(t *testing.T) {
		tx := newMemTx()
		gw := &fakeGateway{fail: true}
		uc := usecase.NewCreateOrder(tx, gw, 0)

		art := seedArtwork(tx, 3, "99.99")

		_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
			BuyerID:         "buyer-1",
			Items:           []usecase.CartLine{{ArtworkID: art, Quantity: 2}},
			ShippingAddress: "addr",
		})
		require.ErrorIs(t, err, entity.ErrGatewayUnavailable)

		assert.Equal(t, 3, tx.artwork(art).StockQuantity)
		assert.Zero(t, tx.orderCount())
		assert.Empty(t, tx.events())
	})

	t.Run("concurrent checkouts never oversell the last unit", func(t *testing.T) {
		tx := newMemTx()
		uc := usecase.NewCreateOrder(tx, &fakeGateway{}, 0)

		art := seedArtwork(tx, 1, "500.00")

		results := make([]error, 2)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := uc.Execute(t.Context(), usecase.CreateOrderInput{
					BuyerID:         "buyer-" + string(rune('a'+i)),
					Items:           []usecase.CartLine{{ArtworkID: art, Quantity: 1}},
					ShippingAddress: "addr",
				})
				results[i] = err
			}(i)
		}
		wg.Wait()

		var failures int
		for _, err := range results {
			if err != nil {
				var insufficient entity.InsufficientStockError
				require.ErrorAs(t, err, &insufficient)
				assert.Equal(t, 0, insufficient.Available)
				assert.Equal(t, 1, insufficient.Requested)
				failures++
			}
		}
		assert.Equal(t, 1, failures, "exactly one checkout must fail")

		got := tx.artwork(art)
		assert.Equal(t, 0, got.StockQuantity)
		assert.Equal(t, entity.SaleSold, got.SaleStatus)
		assert.Equal(t, 1, tx.orderCount())
	})
}
