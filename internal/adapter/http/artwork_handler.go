package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ArtworkHandler struct {
	artworks usecase.ArtworkReader
}

func NewArtworkHandler(artworks usecase.ArtworkReader) *ArtworkHandler {
	return &ArtworkHandler{artworks: artworks}
}

// GetByID handles GET /artworks/:id (public).
func (h *ArtworkHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "artwork not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	art, err := h.artworks.GetArtwork(ctx, id)
	if err != nil {
		var notFound entity.ArtworkNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "artwork not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             art.ID.String(),
		"title":          art.Title,
		"artist":         art.Artist,
		"price":          art.Price.StringFixed(2),
		"stock_quantity": art.StockQuantity,
		"sale_status":    string(art.SaleStatus),
		"archived":       art.Archived,
	})
}
