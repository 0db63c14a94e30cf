package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
)

const itemColumns = `id, owner_id, title, description, price_cents, contact_email,
	image_key, extra_images, gone, gone_at, gone_by, relisted_at, relisted_by, created_at`

type ItemStore struct {
	pool *pgxpool.Pool
}

func NewItemStore(pool *pgxpool.Pool) *ItemStore {
	return &ItemStore{pool: pool}
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var it models.Item
	err := row.Scan(
		&it.ID,
		&it.OwnerID,
		&it.Title,
		&it.Description,
		&it.PriceCents,
		&it.ContactEmail,
		&it.ImageKey,
		&it.ExtraImages,
		&it.Gone,
		&it.GoneAt,
		&it.GoneBy,
		&it.RelistedAt,
		&it.RelistedBy,
		&it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *ItemStore) Create(ctx context.Context, item models.Item, communityIDs []int64) (*models.Item, error) {
	// Item row and community associations commit together; a failed
	// association insert rolls the item back too.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO items (id, owner_id, title, description, price_cents, contact_email, image_key, extra_images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + itemColumns

	created, err := scanItem(tx.QueryRow(ctx, query,
		item.ID, item.OwnerID, item.Title, item.Description,
		item.PriceCents, item.ContactEmail, item.ImageKey, item.ExtraImages))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	for _, communityID := range communityIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_communities (item_id, community_id)
			VALUES ($1, $2)`,
			created.ID, communityID); err != nil {
			return nil, fmt.Errorf("associate community: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return created, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ItemStore) UpdateDetails(ctx context.Context, id uuid.UUID, title, description string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET title = $2, description = $3 WHERE id = $1`,
		id, title, description)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrItemNotFound
	}
	return nil
}

func (s *ItemStore) MarkGone(ctx context.Context, id, actorID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET gone = true, gone_at = now(), gone_by = $2 WHERE id = $1`,
		id, actorID)
	if err != nil {
		return fmt.Errorf("mark gone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrItemNotFound
	}
	return nil
}

func (s *ItemStore) Relist(ctx context.Context, id, actorID uuid.UUID) error {
	// The WHERE gone clause makes relisting an available item a no-op:
	// zero rows updated, provenance columns untouched. We still have to
	// distinguish "already available" from "no such item".
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET gone = false, relisted_at = now(), relisted_by = $2
		 WHERE id = $1 AND gone`,
		id, actorID)
	if err != nil {
		return fmt.Errorf("relist item: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("relist item: %w", err)
	}
	if !exists {
		return repository.ErrItemNotFound
	}
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Claims and community associations go with the item in one
	// transaction, so no claim row can outlive the item it points at.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM claims WHERE item_id = $1`, id); err != nil {
		return fmt.Errorf("delete claims: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM item_communities WHERE item_id = $1`, id); err != nil {
		return fmt.Errorf("delete associations: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrItemNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (s *ItemStore) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	query := `SELECT DISTINCT ` + itemColumns + ` FROM items`
	args := []any{}

	if len(filter.CommunityIDs) > 0 {
		query += ` JOIN item_communities ic ON ic.item_id = items.id
			WHERE ic.community_id = ANY($1)`
		args = append(args, filter.CommunityIDs)
		if !filter.IncludeGone {
			query += ` AND NOT gone`
		}
	} else if !filter.IncludeGone {
		query += ` WHERE NOT gone`
	}
	query += ` ORDER BY created_at DESC, id`

	return s.queryItems(ctx, query, args...)
}

func (s *ItemStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeGone bool) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1`
	if !includeGone {
		query += ` AND NOT gone`
	}
	query += ` ORDER BY created_at DESC, id`

	return s.queryItems(ctx, query, ownerID)
}

func (s *ItemStore) queryItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	return items, nil
}
