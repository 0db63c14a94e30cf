package marketplace

import (
	"context"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
	"go.uber.org/zap"
)

// Claim appends the actor to an item's waitlist. The ledger enforces
// the preconditions atomically: the item exists, the actor is not its
// owner, and the actor holds no other active claim on it. The claim
// carries a name/email snapshot taken now.
func (s *Service) Claim(ctx context.Context, actorID, itemID uuid.UUID) (*models.Claim, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	claim, err := s.claims.Add(ctx, itemID, actor.ID, actor.DisplayName, actor.Email)
	if err != nil {
		return nil, err
	}

	s.invalidateViews(ctx)

	if item, err := s.items.GetByID(ctx, itemID); err == nil && item != nil {
		s.notifier.ItemClaimed(*item, *claim)
	}

	s.logger.Info("item claimed",
		zap.String("item_id", itemID.String()),
		zap.String("user_id", actor.ID.String()),
	)
	return claim, nil
}

// Unclaim withdraws the actor's own active claim.
func (s *Service) Unclaim(ctx context.Context, actorID, itemID uuid.UUID) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}

	if err := s.claims.Remove(ctx, itemID, actor.ID); err != nil {
		return err
	}
	s.invalidateViews(ctx)
	return nil
}

// OwnerRemoveClaim removes a specific user's active claim on behalf of
// the item owner or an admin. Removing the primary claim needs no
// follow-up: the next claimant is primary by virtue of being first in
// the remaining ordering.
func (s *Service) OwnerRemoveClaim(ctx context.Context, actorID, itemID, targetUserID uuid.UUID) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}
	if !canEdit(actor, item) {
		return ErrNotAuthorized
	}

	if err := s.claims.Remove(ctx, itemID, targetUserID); err != nil {
		return err
	}
	s.invalidateViews(ctx)

	s.logger.Info("claim removed by owner",
		zap.String("item_id", itemID.String()),
		zap.String("target_user_id", targetUserID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// ListActiveClaims returns an item's waitlist in order. This ordering
// is the single source of truth: position and primary claim are both
// read off it, so they can never disagree with each other.
func (s *Service) ListActiveClaims(ctx context.Context, itemID uuid.UUID) ([]models.Claim, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return s.claims.ListActive(ctx, itemID)
}

// GetPosition returns the user's 1-based waitlist position, or zero
// when the user holds no active claim on the item.
func (s *Service) GetPosition(ctx context.Context, itemID, userID uuid.UUID) (int, error) {
	claims, err := s.ListActiveClaims(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return positionOf(claims, userID), nil
}

// PrimaryClaim returns the earliest active claim, or nil for an empty
// waitlist.
func (s *Service) PrimaryClaim(ctx context.Context, itemID uuid.UUID) (*models.Claim, error) {
	claims, err := s.ListActiveClaims(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(claims) == 0 {
		return nil, nil
	}
	return &claims[0], nil
}

func positionOf(claims []models.Claim, userID uuid.UUID) int {
	for i, claim := range claims {
		if claim.UserID == userID {
			return i + 1
		}
	}
	return 0
}
