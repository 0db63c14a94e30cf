package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shevett/claimit/internal/models"
)

const communityColumns = `id, short_name, full_name, description, owner_id, private, webhook_url, created_at`

type CommunityStore struct {
	pool *pgxpool.Pool
}

func NewCommunityStore(pool *pgxpool.Pool) *CommunityStore {
	return &CommunityStore{pool: pool}
}

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var c models.Community
	err := row.Scan(
		&c.ID,
		&c.ShortName,
		&c.FullName,
		&c.Description,
		&c.OwnerID,
		&c.Private,
		&c.WebhookURL,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommunityStore) Create(ctx context.Context, community models.Community) (*models.Community, error) {
	query := `
		INSERT INTO communities (short_name, full_name, description, owner_id, private, webhook_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + communityColumns

	created, err := scanCommunity(s.pool.QueryRow(ctx, query,
		community.ShortName, community.FullName, community.Description,
		community.OwnerID, community.Private, community.WebhookURL))
	if err != nil {
		return nil, fmt.Errorf("insert community: %w", err)
	}
	return created, nil
}

func (s *CommunityStore) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	community, err := scanCommunity(s.pool.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	return community, nil
}

func (s *CommunityStore) GetByShortName(ctx context.Context, shortName string) (*models.Community, error) {
	community, err := scanCommunity(s.pool.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE short_name = $1`, shortName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get community: %w", err)
	}
	return community, nil
}

func (s *CommunityStore) List(ctx context.Context) ([]models.Community, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+communityColumns+` FROM communities ORDER BY short_name`)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	return collectCommunities(rows)
}

func (s *CommunityStore) Join(ctx context.Context, userID uuid.UUID, communityID int64) error {
	// ON CONFLICT DO NOTHING keeps a second join from tripping over the
	// primary key: joining twice is a no-op success.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_communities (user_id, community_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, community_id) DO NOTHING`,
		userID, communityID)
	if err != nil {
		return fmt.Errorf("join community: %w", err)
	}
	return nil
}

func (s *CommunityStore) Leave(ctx context.Context, userID uuid.UUID, communityID int64) error {
	// DELETE of a missing row affects zero rows, so leave is naturally
	// idempotent.
	_, err := s.pool.Exec(ctx, `
		DELETE FROM user_communities
		WHERE user_id = $1 AND community_id = $2`,
		userID, communityID)
	if err != nil {
		return fmt.Errorf("leave community: %w", err)
	}
	return nil
}

func (s *CommunityStore) IsMember(ctx context.Context, userID uuid.UUID, communityID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_communities
			WHERE user_id = $1 AND community_id = $2
		)`, userID, communityID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (s *CommunityStore) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.Community, error) {
	query := `
		SELECT ` + communityColumns + `
		FROM communities
		JOIN item_communities ic ON ic.community_id = communities.id
		WHERE ic.item_id = $1
		ORDER BY short_name`

	rows, err := s.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list item communities: %w", err)
	}
	defer rows.Close()

	return collectCommunities(rows)
}

func (s *CommunityStore) SetItemCommunities(ctx context.Context, itemID uuid.UUID, communityIDs []int64) error {
	// Delete-then-insert inside one transaction: either the full new set
	// is visible afterwards or the old set is untouched.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set communities: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM item_communities WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("clear associations: %w", err)
	}

	for _, communityID := range communityIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_communities (item_id, community_id)
			VALUES ($1, $2)
			ON CONFLICT (item_id, community_id) DO NOTHING`,
			itemID, communityID); err != nil {
			return fmt.Errorf("insert association: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit set communities: %w", err)
	}
	return nil
}

func collectCommunities(rows pgx.Rows) ([]models.Community, error) {
	communities := make([]models.Community, 0)
	for rows.Next() {
		community, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		communities = append(communities, *community)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate communities: %w", err)
	}
	return communities, nil
}
