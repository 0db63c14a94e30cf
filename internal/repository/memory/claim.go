package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
)

type ClaimStore struct {
	db *DB
}

func NewClaimStore(db *DB) *ClaimStore {
	return &ClaimStore{db: db}
}

func (s *ClaimStore) Add(ctx context.Context, itemID, userID uuid.UUID, userName, userEmail string) (*models.Claim, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item, ok := s.db.items[itemID]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	if item.OwnerID == userID {
		return nil, repository.ErrOwnerCannotClaim
	}
	for _, claim := range s.db.claims {
		if claim.ItemID == itemID && claim.UserID == userID && claim.Status == models.ClaimStatusActive {
			return nil, repository.ErrAlreadyClaimed
		}
	}

	now := time.Now()
	claim := models.Claim{
		ID:        s.db.nextClaimID,
		ItemID:    itemID,
		UserID:    userID,
		UserName:  userName,
		UserEmail: userEmail,
		Status:    models.ClaimStatusActive,
		ClaimedAt: now,
		UpdatedAt: now,
	}
	s.db.nextClaimID++
	s.db.claims = append(s.db.claims, claim)
	return &claim, nil
}

func (s *ClaimStore) Remove(ctx context.Context, itemID, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for i, claim := range s.db.claims {
		if claim.ItemID == itemID && claim.UserID == userID && claim.Status == models.ClaimStatusActive {
			s.db.claims[i].Status = models.ClaimStatusRemoved
			s.db.claims[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNoActiveClaim
}

func (s *ClaimStore) ListActive(ctx context.Context, itemID uuid.UUID) ([]models.Claim, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	claims := make([]models.Claim, 0)
	for _, claim := range s.db.claims {
		if claim.ItemID == itemID && claim.Status == models.ClaimStatusActive {
			claims = append(claims, claim)
		}
	}
	sortClaims(claims)
	return claims, nil
}

func (s *ClaimStore) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Claim, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	claims := make([]models.Claim, 0)
	for _, claim := range s.db.claims {
		if claim.UserID == userID && claim.Status == models.ClaimStatusActive {
			claims = append(claims, claim)
		}
	}
	sortClaims(claims)
	return claims, nil
}

// sortClaims orders by (claimed_at, id), the same total order the pgx
// store gets from its index. The id tie-break matters here: time.Now()
// can return equal values on coarse clocks.
func sortClaims(claims []models.Claim) {
	sort.Slice(claims, func(i, j int) bool {
		if !claims[i].ClaimedAt.Equal(claims[j].ClaimedAt) {
			return claims[i].ClaimedAt.Before(claims[j].ClaimedAt)
		}
		return claims[i].ID < claims[j].ID
	})
}
