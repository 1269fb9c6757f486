package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/google/uuid"
)

// memTx is an in-memory unit of work: mutations apply to a shared state and
// are thrown away when the function errors, mirroring a database rollback.
// Run holds a single lock, so each unit of work is serializable.
type memTx struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	artworks map[uuid.UUID]*entity.Artwork
	orders   map[uuid.UUID]*entity.Order
	outbox   []memEvent
}

type memEvent struct {
	Type    string
	Payload []byte
}

func newMemTx() *memTx {
	return &memTx{state: memState{
		artworks: map[uuid.UUID]*entity.Artwork{},
		orders:   map[uuid.UUID]*entity.Order{},
	}}
}

func (m *memTx) Run(_ context.Context, fn func(s usecase.Stores) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memStores{state: &m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memTx) seedArtwork(art entity.Artwork) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := art
	m.state.artworks[art.ID] = &cp
}

func (m *memTx) artwork(id uuid.UUID) entity.Artwork {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state.artworks[id]
}

func (m *memTx) order(id uuid.UUID) entity.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneOrder(m.state.orders[id])
}

func (m *memTx) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.orders)
}

func (m *memTx) events() []memEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]memEvent(nil), m.state.outbox...)
}

func (s memState) clone() memState {
	out := memState{
		artworks: make(map[uuid.UUID]*entity.Artwork, len(s.artworks)),
		orders:   make(map[uuid.UUID]*entity.Order, len(s.orders)),
		outbox:   append([]memEvent(nil), s.outbox...),
	}
	for id, art := range s.artworks {
		cp := *art
		out.artworks[id] = &cp
	}
	for id, o := range s.orders {
		cp := cloneOrder(o)
		out.orders[id] = &cp
	}
	return out
}

func cloneOrder(o *entity.Order) entity.Order {
	cp := *o
	cp.Items = append([]entity.OrderItem(nil), o.Items...)
	return cp
}

// memStores implements usecase.Stores, usecase.Ledger, usecase.OrderStore
// and usecase.Outbox over the same state.
type memStores struct {
	state *memState
}

func (s *memStores) Ledger() usecase.Ledger     { return s }
func (s *memStores) Orders() usecase.OrderStore { return s }
func (s *memStores) Outbox() usecase.Outbox     { return s }

func (s *memStores) Reserve(_ context.Context, artworkID uuid.UUID, qty int) (entity.Artwork, error) {
	art, ok := s.state.artworks[artworkID]
	if !ok {
		return entity.Artwork{}, entity.ArtworkNotFoundError{ArtworkID: artworkID}
	}
	if art.StockQuantity < qty {
		return entity.Artwork{}, entity.InsufficientStockError{
			ArtworkID: artworkID,
			Available: art.StockQuantity,
			Requested: qty,
		}
	}
	art.StockQuantity -= qty
	art.SaleStatus = entity.DeriveSaleStatus(art.StockQuantity)
	return *art, nil
}

func (s *memStores) Release(_ context.Context, artworkID uuid.UUID, qty int) error {
	art, ok := s.state.artworks[artworkID]
	if !ok {
		return entity.ArtworkNotFoundError{ArtworkID: artworkID}
	}
	art.StockQuantity += qty
	if art.StockQuantity > 0 && !art.Archived {
		art.SaleStatus = entity.SaleAvailable
	}
	return nil
}

func (s *memStores) MarkIfExhausted(_ context.Context, artworkID uuid.UUID) error {
	art, ok := s.state.artworks[artworkID]
	if !ok {
		return entity.ArtworkNotFoundError{ArtworkID: artworkID}
	}
	if !art.Archived || entity.DeriveSaleStatus(art.StockQuantity) == entity.SaleSold {
		art.SaleStatus = entity.DeriveSaleStatus(art.StockQuantity)
	}
	return nil
}

func (s *memStores) Insert(_ context.Context, o *entity.Order) error {
	cp := cloneOrder(o)
	s.state.orders[o.ID] = &cp
	return nil
}

func (s *memStores) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	o, ok := s.state.orders[id]
	if !ok {
		return nil, entity.ErrOrderNotFound
	}
	cp := cloneOrder(o)
	return &cp, nil
}

func (s *memStores) GetByPaymentSession(_ context.Context, sessionID string) (*entity.Order, error) {
	for _, o := range s.state.orders {
		if o.PaymentSessionID == sessionID {
			cp := cloneOrder(o)
			return &cp, nil
		}
	}
	return nil, entity.ErrOrderNotFound
}

func (s *memStores) AttachPaymentSession(_ context.Context, id uuid.UUID, sessionID string) error {
	o, ok := s.state.orders[id]
	if !ok {
		return entity.ErrOrderNotFound
	}
	o.PaymentSessionID = sessionID
	return nil
}

func (s *memStores) TransitionFrom(_ context.Context, id uuid.UUID, from, to entity.OrderStatus) (bool, error) {
	o, ok := s.state.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *memStores) ListByBuyer(_ context.Context, buyerID string) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range s.state.orders {
		if o.BuyerID == buyerID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *memStores) ListAll(_ context.Context) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range s.state.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (s *memStores) Append(_ context.Context, eventType string, payload []byte) error {
	s.state.outbox = append(s.state.outbox, memEvent{Type: eventType, Payload: payload})
	return nil
}

var errGatewayDown = errors.New("gateway down")

type fakeGateway struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (g *fakeGateway) CreateSession(_ context.Context, orderID uuid.UUID, _ []usecase.SessionLine) (usecase.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail {
		return usecase.CheckoutSession{}, errGatewayDown
	}
	id := "cs_" + orderID.String()
	return usecase.CheckoutSession{ID: id, URL: fmt.Sprintf("https://pay.example/%s", id)}, nil
}

type fakeDeduper struct {
	mu      sync.Mutex
	applied map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{applied: map[string]bool{}}
}

func (d *fakeDeduper) AlreadyApplied(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied[eventID], nil
}

func (d *fakeDeduper) MarkApplied(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applied[eventID] = true
	return nil
}

// failingTx rejects the first n Run calls before delegating, standing in for
// a transiently unavailable database.
type failingTx struct {
	inner    *memTx
	failures int
}

func (f *failingTx) Run(ctx context.Context, fn func(s usecase.Stores) error) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("tx unavailable")
	}
	return f.inner.Run(ctx, fn)
}
