package usecase

import (
	"context"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger mutates per-artwork stock. Implementations must make Reserve a
// single serializable read-modify-write per artwork row so two concurrent
// reservations never both succeed on the last unit.
type Ledger interface {
	// Reserve decrements stock by qty and flips sale_status to SOLD when the
	// row is exhausted. Returns the artwork as read under the lock, so the
	// caller gets a consistent price snapshot.
	Reserve(ctx context.Context, artworkID uuid.UUID, qty int) (entity.Artwork, error)

	// Release returns qty units to stock and flips sale_status back to
	// AVAILABLE unless the artwork has been archived.
	Release(ctx context.Context, artworkID uuid.UUID, qty int) error

	// MarkIfExhausted recomputes sale_status from the current stock count.
	MarkIfExhausted(ctx context.Context, artworkID uuid.UUID) error
}

type OrderStore interface {
	Insert(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByPaymentSession(ctx context.Context, sessionID string) (*entity.Order, error)
	AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error

	// TransitionFrom applies a guarded status update (WHERE status=from).
	// Returns false when the row was not in the expected status, which is how
	// the cancel-vs-webhook race resolves to exactly one winner.
	TransitionFrom(ctx context.Context, id uuid.UUID, from, to entity.OrderStatus) (bool, error)

	ListByBuyer(ctx context.Context, buyerID string) ([]entity.Order, error)
	ListAll(ctx context.Context) ([]entity.Order, error)
}

type Outbox interface {
	Append(ctx context.Context, eventType string, payload []byte) error
}

type ArtworkReader interface {
	GetArtwork(ctx context.Context, id uuid.UUID) (*entity.Artwork, error)
}

// Stores is the view of the persistence layer bound to one unit of work.
type Stores interface {
	Ledger() Ledger
	Orders() OrderStore
	Outbox() Outbox
}

// Tx runs fn against a single transaction: everything fn does through the
// Stores commits together, or not at all.
type Tx interface {
	Run(ctx context.Context, fn func(s Stores) error) error
}

type CheckoutSession struct {
	ID  string
	URL string
}

type SessionLine struct {
	Description string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// PaymentGateway is the external provider boundary: it creates checkout
// sessions and nothing else. Webhook verification lives on WebhookVerifier.
type PaymentGateway interface {
	CreateSession(ctx context.Context, orderID uuid.UUID, lines []SessionLine) (CheckoutSession, error)
}

type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
	// OutcomeIgnored marks event types this engine does not act on.
	OutcomeIgnored PaymentOutcome = "ignored"
)

type PaymentEvent struct {
	ID        string
	SessionID string
	Outcome   PaymentOutcome
}

// WebhookVerifier checks the provider signature over the raw payload and
// parses the event. Verification failures must not be swallowed: the caller
// answers 400 so the provider knows the delivery was rejected.
type WebhookVerifier interface {
	VerifyEvent(payload []byte, signature string) (PaymentEvent, error)
}

// EventDeduper is a fast-path guard against provider redeliveries. The
// authoritative idempotency gate is the order status precondition; this only
// saves a transaction for the common duplicate. An event id must be marked
// only once the event has been fully applied: redeliveries of an event whose
// transaction failed have to reach the database again.
type EventDeduper interface {
	// AlreadyApplied reports whether eventID was applied by a prior delivery.
	AlreadyApplied(ctx context.Context, eventID string) (bool, error)

	// MarkApplied records eventID after its transaction committed.
	MarkApplied(ctx context.Context, eventID string) error
}
