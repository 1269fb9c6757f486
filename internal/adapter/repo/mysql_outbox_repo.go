package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/artbay/artbay-api/internal/usecase"
)

type MySQLOutboxRepo struct {
	db DBTX
}

func NewMySQLOutboxRepo(db DBTX) *MySQLOutboxRepo {
	return &MySQLOutboxRepo{db: db}
}

func (r *MySQLOutboxRepo) Append(ctx context.Context, eventType string, payload []byte) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO outbox (event_type, payload, status, created_at)
VALUES (?,?,'PENDING',NOW())`, eventType, payload); err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

type OutboxRow struct {
	ID        int64
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// FetchPending claims up to limit unsent rows. SKIP LOCKED keeps concurrent
// publishers from fighting over the same batch.
func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, event_type, payload, created_at
FROM outbox
WHERE status='PENDING'
ORDER BY id
LIMIT ?
FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("select outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.EventType, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}
	return out, nil
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
UPDATE outbox SET status='SENT', sent_at=NOW() WHERE id=?`, id); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

var _ usecase.Outbox = (*MySQLOutboxRepo)(nil)
