package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/artbay/artbay-api/internal/usecase"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository works
// inside or outside a unit of work without knowing which it got.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStores implements usecase.Tx: one Run call is one database
// transaction, and the Stores view it hands out is bound to that
// transaction. The ledger, order store and outbox therefore commit or roll
// back as a unit.
type MySQLStores struct {
	db *sql.DB
}

func NewMySQLStores(db *sql.DB) *MySQLStores {
	return &MySQLStores{db: db}
}

func (s *MySQLStores) Run(ctx context.Context, fn func(s usecase.Stores) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.BeginTx: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	if err = fn(&txStores{dbtx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}
	return nil
}

type txStores struct {
	dbtx DBTX
}

func (v *txStores) Ledger() usecase.Ledger     { return NewMySQLArtworkRepo(v.dbtx) }
func (v *txStores) Orders() usecase.OrderStore { return NewMySQLOrderRepo(v.dbtx) }
func (v *txStores) Outbox() usecase.Outbox     { return NewMySQLOutboxRepo(v.dbtx) }

var _ usecase.Tx = (*MySQLStores)(nil)
