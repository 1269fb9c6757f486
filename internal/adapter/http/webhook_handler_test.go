package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/artbay/artbay-api/internal/adapter/http"
	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	event usecase.PaymentEvent
	err   error
}

func (v fakeVerifier) VerifyEvent(_ []byte, _ string) (usecase.PaymentEvent, error) {
	return v.event, v.err
}

// nopTx hands the reconciliation a store with no orders, so any event lands
// on the idempotent ack path. failErr simulates a broken transaction.
type nopTx struct {
	failErr error
}

func (n nopTx) Run(_ context.Context, fn func(s usecase.Stores) error) error {
	if n.failErr != nil {
		return n.failErr
	}
	return fn(emptyStores{})
}

type emptyStores struct{}

func (emptyStores) Ledger() usecase.Ledger     { return nil }
func (emptyStores) Orders() usecase.OrderStore { return emptyOrders{} }
func (emptyStores) Outbox() usecase.Outbox     { return nil }

type emptyOrders struct{}

func (emptyOrders) Insert(context.Context, *entity.Order) error { return nil }
func (emptyOrders) GetByID(context.Context, uuid.UUID) (*entity.Order, error) {
	return nil, entity.ErrOrderNotFound
}
func (emptyOrders) GetByPaymentSession(context.Context, string) (*entity.Order, error) {
	return nil, entity.ErrOrderNotFound
}
func (emptyOrders) AttachPaymentSession(context.Context, uuid.UUID, string) error { return nil }
func (emptyOrders) TransitionFrom(context.Context, uuid.UUID, entity.OrderStatus, entity.OrderStatus) (bool, error) {
	return false, nil
}
func (emptyOrders) ListByBuyer(context.Context, string) ([]entity.Order, error) { return nil, nil }
func (emptyOrders) ListAll(context.Context) ([]entity.Order, error)             { return nil, nil }

func newWebhookRouter(verifier usecase.WebhookVerifier, tx usecase.Tx) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := httpadapter.NewWebhookHandler(verifier, usecase.NewReconcilePayment(tx, nil))
	r.POST("/webhooks/payment", h.HandlePayment)
	return r
}

func TestWebhookHandler(t *testing.T) {
	t.Run("signature failure is a 400", func(t *testing.T) {
		r := newWebhookRouter(fakeVerifier{err: errors.New("bad signature")}, nopTx{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verified event is acknowledged even when it changes nothing", func(t *testing.T) {
		r := newWebhookRouter(fakeVerifier{event: usecase.PaymentEvent{
			ID: "evt_1", SessionID: "cs_unknown", Outcome: usecase.OutcomeSucceeded,
		}}, nopTx{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{}`))
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received": true}`, w.Body.String())
	})

	t.Run("failed application is a 5xx so the provider redelivers", func(t *testing.T) {
		r := newWebhookRouter(fakeVerifier{event: usecase.PaymentEvent{
			ID: "evt_1", SessionID: "cs_1", Outcome: usecase.OutcomeSucceeded,
		}}, nopTx{failErr: errors.New("db down")})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
