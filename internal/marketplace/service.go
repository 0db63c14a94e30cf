// Package marketplace is the item lifecycle controller: the single
// entry point for every state-changing operation on items, claims, and
// community associations. Handlers never touch the repositories
// directly; routing all writes through here is what keeps the
// cross-entity invariants (waitlist ordering, owner exclusion, cache
// freshness) enforceable in one place.
package marketplace

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/cache"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
	"github.com/shevett/claimit/internal/storage"
	"go.uber.org/zap"
)

// DefaultCommunity receives items posted without an explicit community
// list. An explicitly empty list still means "no communities".
const DefaultCommunity = "general"

// Notifier receives lifecycle events after the transactional work has
// committed. Implementations must not block the caller.
type Notifier interface {
	ItemPosted(item models.Item, poster models.User, communities []models.Community)
	ItemClaimed(item models.Item, claim models.Claim)
}

type Service struct {
	items       repository.ItemRepository
	claims      repository.ClaimRepository
	communities repository.CommunityRepository
	users       repository.UserRepository
	store       storage.Store
	cache       cache.Cache
	cacheTTL    time.Duration
	notifier    Notifier
	logger      *zap.Logger
}

func NewService(
	items repository.ItemRepository,
	claims repository.ClaimRepository,
	communities repository.CommunityRepository,
	users repository.UserRepository,
	store storage.Store,
	readCache cache.Cache,
	cacheTTL time.Duration,
	notifier Notifier,
	logger *zap.Logger,
) *Service {
	return &Service{
		items:       items,
		claims:      claims,
		communities: communities,
		users:       users,
		store:       store,
		cache:       readCache,
		cacheTTL:    cacheTTL,
		notifier:    notifier,
		logger:      logger,
	}
}

// actor loads the acting user, mapping a missing account to
// ErrNotAuthenticated: a valid-looking token for a deleted user does
// not get to mutate anything.
func (s *Service) actor(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// canEdit is the one authorization predicate for mutating operations:
// the item's owner or an administrator, nobody else.
func canEdit(actor *models.User, item *models.Item) bool {
	return actor != nil && (actor.ID == item.OwnerID || actor.IsAdmin)
}

// invalidateViews drops every cached read model a mutation could have
// touched. It runs before the mutating call returns, so the actor's
// next read sees their own write regardless of TTL. All listing keys
// live under the items: and claims: prefixes; single-item reads are
// uncached.
func (s *Service) invalidateViews(ctx context.Context) {
	s.cache.Invalidate(ctx, "items:")
	s.cache.Invalidate(ctx, "claims:")
}

func validateEmail(field, address string) error {
	if _, err := mail.ParseAddress(address); err != nil {
		return &ValidationError{Field: field, Reason: "malformed email address"}
	}
	return nil
}

func validateNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
