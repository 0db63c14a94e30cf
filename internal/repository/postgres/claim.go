package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
)

const claimColumns = `id, item_id, user_id, user_name, user_email, status, claimed_at, updated_at`

// ClaimStore is the claim ledger. The waitlist for an item is its active
// claims ordered by (claimed_at, id); nothing here stores a position or
// a primary flag.
type ClaimStore struct {
	pool *pgxpool.Pool
}

func NewClaimStore(pool *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{pool: pool}
}

func scanClaim(row pgx.Row) (*models.Claim, error) {
	var c models.Claim
	err := row.Scan(
		&c.ID,
		&c.ItemID,
		&c.UserID,
		&c.UserName,
		&c.UserEmail,
		&c.Status,
		&c.ClaimedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ClaimStore) Add(ctx context.Context, itemID, userID uuid.UUID, userName, userEmail string) (*models.Claim, error) {
	// Precondition checks and the insert share one transaction. The row
	// lock from FOR SHARE on the item keeps a concurrent delete from
	// racing the insert; the partial unique index idx_claims_one_active
	// backstops the duplicate check if two claims from the same user
	// race each other.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT owner_id FROM items WHERE id = $1 FOR SHARE`, itemID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check item: %w", err)
	}
	if ownerID == userID {
		return nil, repository.ErrOwnerCannotClaim
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM claims
			WHERE item_id = $1 AND user_id = $2 AND status = 'active'
		)`, itemID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check existing claim: %w", err)
	}
	if exists {
		return nil, repository.ErrAlreadyClaimed
	}

	// clock_timestamp() gives microsecond wall time per statement; the
	// bigserial id resolves any remaining ties by insertion order.
	claim, err := scanClaim(tx.QueryRow(ctx, `
		INSERT INTO claims (item_id, user_id, user_name, user_email, status, claimed_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', clock_timestamp(), clock_timestamp())
		RETURNING `+claimColumns,
		itemID, userID, userName, userEmail))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrAlreadyClaimed
		}
		return nil, fmt.Errorf("insert claim: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return claim, nil
}

func (s *ClaimStore) Remove(ctx context.Context, itemID, userID uuid.UUID) error {
	// Soft removal: the row stays for the audit trail, only the status
	// flips. The next claimant becomes primary simply by now being first
	// in ListActive.
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims
		SET status = 'removed', updated_at = now()
		WHERE item_id = $1 AND user_id = $2 AND status = 'active'`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("remove claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNoActiveClaim
	}
	return nil
}

func (s *ClaimStore) ListActive(ctx context.Context, itemID uuid.UUID) ([]models.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE item_id = $1 AND status = 'active'
		ORDER BY claimed_at, id`

	return s.queryClaims(ctx, query, itemID)
}

func (s *ClaimStore) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE user_id = $1 AND status = 'active'
		ORDER BY claimed_at, id`

	return s.queryClaims(ctx, query, userID)
}

func (s *ClaimStore) queryClaims(ctx context.Context, query string, args ...any) ([]models.Claim, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	claims := make([]models.Claim, 0)
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, *claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}

	return claims, nil
}
