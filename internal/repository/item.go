package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"readwatch/internal/model"
)

type itemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `i.id, i.owner_id, i.title, i.url, i.type, i.summary, i.created_at, u.username AS owner_username`

func (r *itemRepository) FindByOwnerAndURL(ctx context.Context, ownerID int64, url string) (*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE i.owner_id = $1 AND i.url = $2 AND i.url <> ''
	`

	var item model.Item
	err := r.db.GetContext(ctx, &item, query, ownerID, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by url: %w", err)
	}
	return &item, nil
}

// Create inserts item and fills in id and created_at. The partial unique index
// on (owner_id, url) decides dedup atomically: a suppressed insert returns no
// row and is reported as model.ErrItemAlreadyTracked.
func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	query := `
		INSERT INTO items (owner_id, title, url, type, summary)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, url) WHERE url <> '' DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.OwnerID,
		item.Title,
		item.URL,
		item.Type,
		item.Summary,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return model.ErrItemAlreadyTracked
		case pgCode(err) == pgForeignKeyViolation:
			return model.ErrUserNotFound
		case pgCode(err) == pgCheckViolation:
			return model.ErrTitleRequired
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE i.id = $1
	`

	var item model.Item
	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ListByOwner returns every item of one owner, newest first.
func (r *itemRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE i.owner_id = $1
		ORDER BY i.created_at DESC, i.id DESC
	`

	items := []model.Item{}
	if err := r.db.SelectContext(ctx, &items, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// ListByOwners returns the newest items across a set of owners. Ties on
// created_at are broken by id so the order is total.
func (r *itemRepository) ListByOwners(ctx context.Context, ownerIDs []int64, limit int) ([]model.Item, error) {
	items := []model.Item{}
	if len(ownerIDs) == 0 {
		return items, nil
	}

	query := `
		SELECT ` + itemColumns + `
		FROM items i
		JOIN users u ON u.id = i.owner_id
		WHERE i.owner_id = ANY($1)
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ownerIDs), limit); err != nil {
		return nil, fmt.Errorf("failed to list items by owners: %w", err)
	}
	return items, nil
}

func (r *itemRepository) CountByType(ctx context.Context, ownerID int64) ([]model.ItemCount, error) {
	query := `SELECT type, COUNT(*) AS count FROM items WHERE owner_id = $1 GROUP BY type`

	var counts []model.ItemCount
	if err := r.db.SelectContext(ctx, &counts, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	return counts, nil
}
