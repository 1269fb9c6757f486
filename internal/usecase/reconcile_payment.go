package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/logging"
)

// ReconcilePayment applies a verified webhook outcome to an order. It is
// safe to invoke any number of times for the same event: the guarded status
// transition makes every delivery after the first a no-op.
type ReconcilePayment struct {
	tx     Tx
	dedupe EventDeduper // optional
}

func NewReconcilePayment(tx Tx, dedupe EventDeduper) *ReconcilePayment {
	return &ReconcilePayment{tx: tx, dedupe: dedupe}
}

func (uc *ReconcilePayment) Execute(ctx context.Context, ev PaymentEvent) error {
	log := logging.FromCtx(ctx).With("event_id", ev.ID, "session_id", ev.SessionID)

	if ev.Outcome == OutcomeIgnored {
		return nil
	}
	paymentEvents.WithLabelValues(string(ev.Outcome)).Inc()

	if uc.dedupe != nil && ev.ID != "" {
		applied, err := uc.dedupe.AlreadyApplied(ctx, ev.ID)
		if err == nil && applied {
			log.Info("duplicate payment event, skipping")
			return nil
		}
		// Dedupe store errors fall through: the status gate below is the
		// authoritative guard.
	}

	err := uc.tx.Run(ctx, func(s Stores) error {
		order, err := s.Orders().GetByPaymentSession(ctx, ev.SessionID)
		if err != nil {
			if errors.Is(err, entity.ErrOrderNotFound) {
				log.Info("payment event for unknown session, acknowledging")
				return nil
			}
			return fmt.Errorf("orders.GetByPaymentSession: %w", err)
		}

		if order.Status.Terminal() {
			log.Info("payment event for settled order, acknowledging", "status", order.Status)
			return nil
		}

		switch ev.Outcome {
		case OutcomeSucceeded:
			ok, err := s.Orders().TransitionFrom(ctx, order.ID, entity.StatusPending, entity.StatusPaid)
			if err != nil {
				return fmt.Errorf("orders.TransitionFrom: %w", err)
			}
			if !ok {
				return nil // lost the race to cancellation or a prior delivery
			}

			// Finalize confirms the reservation made at checkout; stock was
			// already decremented and must not move again. Re-derive sale
			// status only.
			for _, item := range order.Items {
				if err := s.Ledger().MarkIfExhausted(ctx, item.ArtworkID); err != nil {
					return fmt.Errorf("ledger.MarkIfExhausted: %w", err)
				}
			}

			if err := s.Outbox().Append(ctx, EventOrderPaid, orderEventPayload(order, entity.StatusPaid)); err != nil {
				return fmt.Errorf("outbox.Append: %w", err)
			}
			log.Info("order paid", "order_id", order.ID)

		case OutcomeFailed:
			ok, err := s.Orders().TransitionFrom(ctx, order.ID, entity.StatusPending, entity.StatusFailed)
			if err != nil {
				return fmt.Errorf("orders.TransitionFrom: %w", err)
			}
			if !ok {
				return nil
			}

			for _, item := range order.Items {
				if err := s.Ledger().Release(ctx, item.ArtworkID, item.Quantity); err != nil {
					return fmt.Errorf("ledger.Release: %w", err)
				}
			}

			if err := s.Outbox().Append(ctx, EventOrderFailed, orderEventPayload(order, entity.StatusFailed)); err != nil {
				return fmt.Errorf("outbox.Append: %w", err)
			}
			log.Info("order payment failed, stock released", "order_id", order.ID)
		}

		return nil
	})
	if err != nil {
		// Not marking the event id: the provider's redelivery must get
		// another shot at the database.
		return err
	}

	if uc.dedupe != nil && ev.ID != "" {
		if err := uc.dedupe.MarkApplied(ctx, ev.ID); err != nil {
			// Worst case a redelivery reruns the transaction and exits
			// through the status gate.
			log.Warn("failed to record applied event", "error", err)
		}
	}
	return nil
}
