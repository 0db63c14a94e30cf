package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

// Every method takes a context so request cancellation propagates into
// the database driver. Lookup methods return nil, nil when the row does
// not exist; only genuine failures produce an error.

// UserRepository handles account rows backed by the identity provider.
type UserRepository interface {
	// UpsertByExternalID creates the user on first login and refreshes
	// email/name/picture on every later one. Preferences and the admin
	// flag are preserved across upserts.
	UpsertByExternalID(ctx context.Context, externalID, email, displayName, pictureURL string) (*models.User, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	UpdatePrefs(ctx context.Context, id uuid.UUID, prefs models.UserPrefs) error

	// ListNewListingSubscribers returns users with the new-listing
	// preference enabled who belong to at least one of the given
	// communities. Each user appears once even when they belong to
	// several of them.
	ListNewListingSubscribers(ctx context.Context, communityIDs []int64) ([]models.User, error)
}

// ItemFilter narrows a listing query. Nil CommunityIDs means "no
// community restriction"; IncludeGone keeps items marked gone in the
// result.
type ItemFilter struct {
	IncludeGone  bool
	CommunityIDs []int64
}

// ItemRepository handles item rows. Gone/relist writes are single
// conditional statements so each transition is atomic at the storage
// layer.
type ItemRepository interface {
	// Create inserts the item and its community associations in one
	// transaction, so a failed association write leaves no item row
	// behind. The caller assigns the ID; returns the item with
	// CreatedAt populated.
	Create(ctx context.Context, item models.Item, communityIDs []int64) (*models.Item, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// UpdateDetails rewrites title and description.
	UpdateDetails(ctx context.Context, id uuid.UUID, title, description string) error

	// MarkGone sets the gone flag with provenance. Returns
	// ErrItemNotFound when the item does not exist.
	MarkGone(ctx context.Context, id, actorID uuid.UUID) error

	// Relist clears the gone flag, recording who relisted and when. A
	// relist of an item that is not gone changes nothing and succeeds.
	Relist(ctx context.Context, id, actorID uuid.UUID) error

	// Delete removes the item together with its claims and community
	// associations in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filter ItemFilter) ([]models.Item, error)

	ListByOwner(ctx context.Context, ownerID uuid.UUID, includeGone bool) ([]models.Item, error)
}

// ClaimRepository is the claim ledger. Active claims for an item, in
// (claimed_at, id) order, ARE the waitlist: position and primary claim
// are always derived from ListActive, never stored.
type ClaimRepository interface {
	// Add appends a claim. The precondition checks (item exists, caller
	// is not the owner, no active claim yet) run in the same transaction
	// as the insert. Errors: ErrItemNotFound, ErrOwnerCannotClaim,
	// ErrAlreadyClaimed.
	Add(ctx context.Context, itemID, userID uuid.UUID, userName, userEmail string) (*models.Claim, error)

	// Remove flips the user's active claim on an item to removed.
	// Returns ErrNoActiveClaim when there is none. The claim row itself
	// is kept.
	Remove(ctx context.Context, itemID, userID uuid.UUID) error

	// ListActive returns the item's waitlist, ascending by
	// (claimed_at, id).
	ListActive(ctx context.Context, itemID uuid.UUID) ([]models.Claim, error)

	// ListActiveByUser returns the user's active claims across all
	// items, oldest first.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Claim, error)
}

// CommunityRepository handles communities, user membership, and the
// item/community association set.
type CommunityRepository interface {
	Create(ctx context.Context, community models.Community) (*models.Community, error)

	GetByID(ctx context.Context, id int64) (*models.Community, error)

	GetByShortName(ctx context.Context, shortName string) (*models.Community, error)

	List(ctx context.Context) ([]models.Community, error)

	// Join is idempotent: joining a community twice is a no-op success.
	Join(ctx context.Context, userID uuid.UUID, communityID int64) error

	// Leave is idempotent: leaving a community the user is not in is a
	// no-op success.
	Leave(ctx context.Context, userID uuid.UUID, communityID int64) error

	IsMember(ctx context.Context, userID uuid.UUID, communityID int64) (bool, error)

	// ListForItem returns the communities an item is posted to.
	ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.Community, error)

	// SetItemCommunities replaces the item's association set in one
	// transaction; a failure leaves the prior set untouched.
	SetItemCommunities(ctx context.Context, itemID uuid.UUID, communityIDs []int64) error
}
