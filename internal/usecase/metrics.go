package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully created with a checkout session",
	})

	reservationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_reservations_rejected_total",
		Help: "Checkouts rejected for insufficient stock",
	})

	paymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_total",
		Help: "Webhook payment events by outcome",
	}, []string{"outcome"})

	ordersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Pending orders cancelled by the buyer",
	})
)
