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

// MySQLArtworkRepo is the inventory ledger. All mutating paths take the
// artwork row lock first (SELECT ... FOR UPDATE), so two reservations on the
// same artwork serialize while different artworks proceed concurrently.
type MySQLArtworkRepo struct {
	db DBTX
}

func NewMySQLArtworkRepo(db DBTX) *MySQLArtworkRepo {
	return &MySQLArtworkRepo{db: db}
}

func (r *MySQLArtworkRepo) Reserve(ctx context.Context, artworkID uuid.UUID, qty int) (entity.Artwork, error) {
	art, err := r.lockArtwork(ctx, artworkID)
	if err != nil {
		return entity.Artwork{}, err
	}

	if art.StockQuantity < qty {
		return entity.Artwork{}, entity.InsufficientStockError{
			ArtworkID: artworkID,
			Available: art.StockQuantity,
			Requested: qty,
		}
	}

	newStock := art.StockQuantity - qty
	newStatus := entity.DeriveSaleStatus(newStock)

	if _, err := r.db.ExecContext(ctx, `
UPDATE artworks SET stock_quantity=?, sale_status=?, updated_at=NOW()
WHERE id=?`, newStock, string(newStatus), artworkID.String()); err != nil {
		return entity.Artwork{}, fmt.Errorf("update artwork: %w", err)
	}

	art.StockQuantity = newStock
	art.SaleStatus = newStatus
	return art, nil
}

func (r *MySQLArtworkRepo) Release(ctx context.Context, artworkID uuid.UUID, qty int) error {
	art, err := r.lockArtwork(ctx, artworkID)
	if err != nil {
		return err
	}

	newStock := art.StockQuantity + qty
	newStatus := art.SaleStatus
	// Archival is a moderation decision; a stock release never reverses it.
	if newStock > 0 && !art.Archived {
		newStatus = entity.SaleAvailable
	}

	if _, err := r.db.ExecContext(ctx, `
UPDATE artworks SET stock_quantity=?, sale_status=?, updated_at=NOW()
WHERE id=?`, newStock, string(newStatus), artworkID.String()); err != nil {
		return fmt.Errorf("update artwork: %w", err)
	}
	return nil
}

func (r *MySQLArtworkRepo) MarkIfExhausted(ctx context.Context, artworkID uuid.UUID) error {
	art, err := r.lockArtwork(ctx, artworkID)
	if err != nil {
		return err
	}

	newStatus := entity.DeriveSaleStatus(art.StockQuantity)
	if art.Archived && newStatus == entity.SaleAvailable {
		newStatus = art.SaleStatus
	}
	if newStatus == art.SaleStatus {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `
UPDATE artworks SET sale_status=?, updated_at=NOW()
WHERE id=?`, string(newStatus), artworkID.String()); err != nil {
		return fmt.Errorf("update artwork: %w", err)
	}
	return nil
}

// GetArtwork is the lock-free read used by the catalog surface.
func (r *MySQLArtworkRepo) GetArtwork(ctx context.Context, artworkID uuid.UUID) (*entity.Artwork, error) {
	art, err := r.scanArtwork(r.db.QueryRowContext(ctx, `
SELECT id, title, artist, price, stock_quantity, sale_status, archived, created_at, updated_at
FROM artworks WHERE id=?`, artworkID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ArtworkNotFoundError{ArtworkID: artworkID}
		}
		return nil, fmt.Errorf("select artwork: %w", err)
	}
	return &art, nil
}

func (r *MySQLArtworkRepo) lockArtwork(ctx context.Context, artworkID uuid.UUID) (entity.Artwork, error) {
	art, err := r.scanArtwork(r.db.QueryRowContext(ctx, `
SELECT id, title, artist, price, stock_quantity, sale_status, archived, created_at, updated_at
FROM artworks WHERE id=? FOR UPDATE`, artworkID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Artwork{}, entity.ArtworkNotFoundError{ArtworkID: artworkID}
		}
		return entity.Artwork{}, fmt.Errorf("lock artwork: %w", err)
	}
	return art, nil
}

func (r *MySQLArtworkRepo) scanArtwork(row *sql.Row) (entity.Artwork, error) {
	var (
		art        entity.Artwork
		id, status string
	)
	if err := row.Scan(&id, &art.Title, &art.Artist, &art.Price, &art.StockQuantity,
		&status, &art.Archived, &art.CreatedAt, &art.UpdatedAt); err != nil {
		return entity.Artwork{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return entity.Artwork{}, fmt.Errorf("uuid.Parse[%s]: %w", id, err)
	}
	art.ID = parsed
	art.SaleStatus = entity.SaleStatus(status)
	return art, nil
}

var (
	_ usecase.Ledger        = (*MySQLArtworkRepo)(nil)
	_ usecase.ArtworkReader = (*MySQLArtworkRepo)(nil)
)
