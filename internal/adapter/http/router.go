package http

import (
	"github.com/artbay/artbay-api/internal/adapter/http/middleware"
	"github.com/artbay/artbay-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(oh *OrderHandler, wh *WebhookHandler, ah *ArtworkHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Provider-signed, unauthenticated.
	r.POST("/webhooks/payment", wh.HandlePayment)

	r.GET("/artworks/:id", ah.GetByID)

	orders := r.Group("/orders")
	{
		orders.POST("", authz.Require(middleware.RoleBuyer), oh.CreateOrder)
		orders.GET("", authz.Require(middleware.RoleBuyer), oh.ListMine)
		orders.GET("/all", authz.Require(middleware.RoleAdmin), oh.ListAll)
		orders.GET("/:id", authz.Require(middleware.RoleBuyer), oh.GetByID)
		orders.PATCH("/:id/cancel", authz.Require(middleware.RoleBuyer), oh.Cancel)
	}

	return r
}
