package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artbay/artbay-api/internal/entity"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/google/uuid"
)

type MySQLOrderRepo struct {
	db DBTX
}

func NewMySQLOrderRepo(db DBTX) *MySQLOrderRepo {
	return &MySQLOrderRepo{db: db}
}

func (r *MySQLOrderRepo) Insert(ctx context.Context, o *entity.Order) error {
	var sessionID any
	if o.PaymentSessionID != "" {
		sessionID = o.PaymentSessionID
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO orders (id, buyer_id, status, total_price, payment_session_id, shipping_address, created_at, updated_at)
VALUES (?,?,?,?,?,?,NOW(),NOW())`,
		o.ID.String(), o.BuyerID, string(o.Status), o.TotalPrice, sessionID, o.ShippingAddress,
	); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		if _, err := r.db.ExecContext(ctx, `
INSERT INTO order_items (order_id, artwork_id, quantity, price_at_purchase)
VALUES (?,?,?,?)`,
			o.ID.String(), item.ArtworkID.String(), item.Quantity, item.PriceAtPurchase,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.getOne(ctx, `WHERE o.id=?`, id.String())
}

func (r *MySQLOrderRepo) GetByPaymentSession(ctx context.Context, sessionID string) (*entity.Order, error) {
	return r.getOne(ctx, `WHERE o.payment_session_id=?`, sessionID)
}

func (r *MySQLOrderRepo) getOne(ctx context.Context, where string, arg any) (*entity.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
SELECT o.id, o.buyer_id, o.status, o.total_price, o.payment_session_id, o.shipping_address, o.created_at, o.updated_at
FROM orders o `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

func (r *MySQLOrderRepo) AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET payment_session_id=?, updated_at=NOW() WHERE id=?`,
		sessionID, id.String())
	if err != nil {
		return fmt.Errorf("attach session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return entity.ErrOrderNotFound
	}
	return nil
}

func (r *MySQLOrderRepo) TransitionFrom(ctx context.Context, id uuid.UUID, from, to entity.OrderStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW()
WHERE id=? AND status=?`,
		string(to), id.String(), string(from))
	if err != nil {
		return false, fmt.Errorf("transition order: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

func (r *MySQLOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]entity.Order, error) {
	return r.list(ctx, `WHERE o.buyer_id=?`, buyerID)
}

func (r *MySQLOrderRepo) ListAll(ctx context.Context) ([]entity.Order, error) {
	return r.list(ctx, ``)
}

func (r *MySQLOrderRepo) list(ctx context.Context, where string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT o.id, o.buyer_id, o.status, o.total_price, o.payment_session_id, o.shipping_address, o.created_at, o.updated_at,
       oi.artwork_id, oi.quantity, oi.price_at_purchase, a.title
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
JOIN artworks a ON a.id = oi.artwork_id
`+where+`
ORDER BY o.created_at DESC, oi.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []entity.Order
		index  = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			o          entity.Order
			id, status string
			sessionID  sql.NullString
			item       entity.OrderItem
			artworkID  string
		)
		if err := rows.Scan(&id, &o.BuyerID, &status, &o.TotalPrice, &sessionID, &o.ShippingAddress,
			&o.CreatedAt, &o.UpdatedAt,
			&artworkID, &item.Quantity, &item.PriceAtPurchase, &item.ArtworkTitle); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		orderID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("uuid.Parse[%s]: %w", id, err)
		}
		item.ArtworkID, err = uuid.Parse(artworkID)
		if err != nil {
			return nil, fmt.Errorf("uuid.Parse[%s]: %w", artworkID, err)
		}

		pos, seen := index[orderID]
		if !seen {
			o.ID = orderID
			o.Status = entity.OrderStatus(status)
			o.PaymentSessionID = sessionID.String
			orders = append(orders, o)
			pos = len(orders) - 1
			index[orderID] = pos
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return orders, nil
}

func (r *MySQLOrderRepo) loadItems(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT oi.artwork_id, oi.quantity, oi.price_at_purchase, a.title
FROM order_items oi
JOIN artworks a ON a.id = oi.artwork_id
WHERE oi.order_id=?
ORDER BY oi.id`, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var (
			item      entity.OrderItem
			artworkID string
		)
		if err := rows.Scan(&artworkID, &item.Quantity, &item.PriceAtPurchase, &item.ArtworkTitle); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.ArtworkID, err = uuid.Parse(artworkID)
		if err != nil {
			return nil, fmt.Errorf("uuid.Parse[%s]: %w", artworkID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

func scanOrder(row *sql.Row) (entity.Order, error) {
	var (
		o          entity.Order
		id, status string
		sessionID  sql.NullString
	)
	if err := row.Scan(&id, &o.BuyerID, &status, &o.TotalPrice, &sessionID,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return entity.Order{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return entity.Order{}, fmt.Errorf("uuid.Parse[%s]: %w", id, err)
	}
	o.ID = parsed
	o.Status = entity.OrderStatus(status)
	o.PaymentSessionID = sessionID.String
	return o, nil
}

var _ usecase.OrderStore = (*MySQLOrderRepo)(nil)
