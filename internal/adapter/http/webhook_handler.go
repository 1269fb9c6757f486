package http

import (
	"io"
	"net/http"

	"github.com/artbay/artbay-api/internal/logging"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 64 * 1024

type WebhookHandler struct {
	verifier  usecase.WebhookVerifier
	reconcile *usecase.ReconcilePayment
}

func NewWebhookHandler(verifier usecase.WebhookVerifier, reconcile *usecase.ReconcilePayment) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconcile: reconcile}
}

// HandlePayment handles POST /webhooks/payment. Once the signature verifies
// the provider gets a 200 whether or not the event changed anything; a 5xx
// is returned only when applying the event failed, so the provider
// redelivers.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed to read body"})
		return
	}

	ev, err := h.verifier.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logging.From(c).Warn("webhook signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "signature verification failed"})
		return
	}

	ctx := logging.WithCtx(c.Request.Context(), logging.From(c))
	if err := h.reconcile.Execute(ctx, ev); err != nil {
		// Not acknowledged: the provider's redelivery is the retry loop.
		logging.From(c).Error("payment reconciliation failed", "event_id", ev.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "event not applied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
