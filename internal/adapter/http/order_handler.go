package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artbay/artbay-api/internal/adapter/http/middleware"
	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	cancel *usecase.CancelOrder
	query  *usecase.OrderQueries
}

func NewOrderHandler(create *usecase.CreateOrder, cancel *usecase.CancelOrder, query *usecase.OrderQueries) *OrderHandler {
	return &OrderHandler{create: create, cancel: cancel, query: query}
}

type createOrderReq struct {
	Items []struct {
		ArtworkID string `json:"artwork_id" binding:"required,uuid"`
		Quantity  int    `json:"quantity" binding:"required,gte=1"`
	} `json:"items" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

type createOrderResp struct {
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

type orderItemView struct {
	ArtworkID       string `json:"artwork_id"`
	ArtworkTitle    string `json:"artwork_title"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type orderView struct {
	ID               string          `json:"id"`
	BuyerID          string          `json:"buyer_id"`
	Status           string          `json:"status"`
	TotalPrice       string          `json:"total_price"`
	PaymentSessionID string          `json:"payment_session_id,omitempty"`
	ShippingAddress  string          `json:"shipping_address"`
	Items            []orderItemView `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad_request"})
		return
	}

	in := usecase.CreateOrderInput{
		BuyerID:         middleware.Subject(c),
		ShippingAddress: req.ShippingAddress,
	}
	for _, line := range req.Items {
		id, err := uuid.Parse(line.ArtworkID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid artwork id"})
			return
		}
		in.Items = append(in.Items, usecase.CartLine{ArtworkID: id, Quantity: line.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	out, err := h.create.Execute(ctx, in)
	if err != nil {
		// Validation, stock, not-found and gateway failures all surface as a
		// 400 with an actionable message; nothing was committed.
		var (
			notFound     entity.ArtworkNotFoundError
			insufficient entity.InsufficientStockError
		)
		switch {
		case errors.Is(err, entity.ErrEmptyCart),
			errors.Is(err, entity.ErrInvalidQuantity),
			errors.Is(err, entity.ErrGatewayUnavailable),
			errors.As(err, &notFound),
			errors.As(err, &insufficient):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}

	c.JSON(http.StatusCreated, createOrderResp{
		OrderID:     out.OrderID.String(),
		CheckoutURL: out.CheckoutURL,
	})
}

// ListMine handles GET /orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.query.ListMine(ctx, middleware.Subject(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": mapOrders(orders)})
}

// ListAll handles GET /orders/all (admin).
func (h *OrderHandler) ListAll(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.query.ListAll(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": mapOrders(orders)})
}

// GetByID handles GET /orders/:id (owner or admin).
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.query.Get(ctx, id, middleware.Subject(c), middleware.IsAdmin(c))
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	c.JSON(http.StatusOK, mapOrder(*order))
}

// Cancel handles PATCH /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.cancel.Execute(ctx, id, middleware.Subject(c)); err != nil {
		switch {
		case errors.Is(err, entity.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "order not found"})
		case errors.Is(err, entity.ErrOrderNotCancellable):
			c.JSON(http.StatusBadRequest, gin.H{"message": "order is no longer pending"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(entity.StatusCancelled)})
}

func mapOrder(o entity.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ArtworkID:       it.ArtworkID.String(),
			ArtworkTitle:    it.ArtworkTitle,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
		})
	}
	return orderView{
		ID:               o.ID.String(),
		BuyerID:          o.BuyerID,
		Status:           string(o.Status),
		TotalPrice:       o.TotalPrice.StringFixed(2),
		PaymentSessionID: o.PaymentSessionID,
		ShippingAddress:  o.ShippingAddress,
		Items:            items,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func mapOrders(orders []entity.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrder(o))
	}
	return out
}
