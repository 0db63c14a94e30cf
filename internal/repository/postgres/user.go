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

const userColumns = `id, external_id, email, display_name, picture_url, is_admin,
	show_gone_items, email_notifications, new_listing_notifications, created_at`

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.DisplayName,
		&u.PictureURL,
		&u.IsAdmin,
		&u.Prefs.ShowGoneItems,
		&u.Prefs.EmailNotifications,
		&u.Prefs.NewListingNotifications,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) UpsertByExternalID(ctx context.Context, externalID, email, displayName, pictureURL string) (*models.User, error) {
	// First login inserts; later logins refresh the profile snapshot.
	// The DO UPDATE branch deliberately leaves id, is_admin, and the
	// preference columns alone.
	query := `
		INSERT INTO users (id, external_id, email, display_name, picture_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email,
		    display_name = EXCLUDED.display_name,
		    picture_url = EXCLUDED.picture_url
		RETURNING ` + userColumns

	user, err := scanUser(s.pool.QueryRow(ctx, query, uuid.New(), externalID, email, displayName, pictureURL))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserStore) UpdatePrefs(ctx context.Context, id uuid.UUID, prefs models.UserPrefs) error {
	query := `
		UPDATE users
		SET show_gone_items = $2,
		    email_notifications = $3,
		    new_listing_notifications = $4
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, id,
		prefs.ShowGoneItems, prefs.EmailNotifications, prefs.NewListingNotifications)
	if err != nil {
		return fmt.Errorf("update prefs: %w", err)
	}
	return nil
}

func (s *UserStore) ListNewListingSubscribers(ctx context.Context, communityIDs []int64) ([]models.User, error) {
	if len(communityIDs) == 0 {
		return []models.User{}, nil
	}

	// DISTINCT collapses users who belong to more than one of the target
	// communities to a single notification recipient.
	query := `
		SELECT DISTINCT ` + userColumns + `
		FROM users
		JOIN user_communities uc ON uc.user_id = users.id
		WHERE uc.community_id = ANY($1)
		  AND new_listing_notifications`

	rows, err := s.pool.Query(ctx, query, communityIDs)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}

	return users, nil
}
