package marketplace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/imaging"
	"github.com/shevett/claimit/internal/models"
	"go.uber.org/zap"
)

// PostItemInput carries everything a new listing needs. CommunityIDs
// nil means "post to the default community"; an empty non-nil slice
// means "no communities" and leaves the item staged (reachable only by
// direct link).
type PostItemInput struct {
	Title        string
	Description  string
	PriceCents   int64
	ContactEmail string
	Photo        []byte
	ExtraPhotos  [][]byte
	CommunityIDs []int64
}

// ThumbKey derives the thumbnail object key for a stored photo key.
func ThumbKey(key string) string {
	return key + ".thumb"
}

// PostItem validates the input, stores the photos, creates the item in
// the available state, and associates it with its communities. A
// storage failure aborts the whole post: no item row ever references a
// photo that was not written.
func (s *Service) PostItem(ctx context.Context, ownerID uuid.UUID, input PostItemInput) (*models.Item, error) {
	owner, err := s.actor(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := validateNonEmpty("title", input.Title); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("description", input.Description); err != nil {
		return nil, err
	}
	if input.PriceCents < 0 {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if input.ContactEmail == "" {
		input.ContactEmail = owner.Email
	}
	if err := validateEmail("contact_email", input.ContactEmail); err != nil {
		return nil, err
	}

	communities, err := s.resolveCommunities(ctx, input.CommunityIDs)
	if err != nil {
		return nil, err
	}

	item := models.Item{
		ID:           uuid.New(),
		OwnerID:      owner.ID,
		Title:        input.Title,
		Description:  input.Description,
		PriceCents:   input.PriceCents,
		ContactEmail: input.ContactEmail,
	}

	storedKeys, err := s.storePhotos(ctx, &item, input.Photo, input.ExtraPhotos)
	if err != nil {
		return nil, err
	}

	communityIDs := make([]int64, 0, len(communities))
	for _, community := range communities {
		communityIDs = append(communityIDs, community.ID)
	}

	// One transaction covers the item row and its associations. The
	// photos are already durable; if the transaction fails they are
	// garbage, so clean them up on the way out.
	created, err := s.items.Create(ctx, item, communityIDs)
	if err != nil {
		s.deleteObjects(storedKeys)
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.invalidateViews(ctx)
	s.notifier.ItemPosted(*created, *owner, communities)

	s.logger.Info("item posted",
		zap.String("item_id", created.ID.String()),
		zap.String("owner_id", owner.ID.String()),
		zap.Int("communities", len(communities)),
	)
	return created, nil
}

// resolveCommunities maps the requested community IDs to rows,
// substituting the default community when the caller passed nil.
func (s *Service) resolveCommunities(ctx context.Context, communityIDs []int64) ([]models.Community, error) {
	if communityIDs == nil {
		def, err := s.communities.GetByShortName(ctx, DefaultCommunity)
		if err != nil {
			return nil, fmt.Errorf("default community: %w", err)
		}
		if def == nil {
			return []models.Community{}, nil
		}
		return []models.Community{*def}, nil
	}

	communities := make([]models.Community, 0, len(communityIDs))
	for _, id := range communityIDs {
		community, err := s.communities.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if community == nil {
			return nil, ErrCommunityNotFound
		}
		communities = append(communities, *community)
	}
	return communities, nil
}

// storePhotos normalizes and stores the primary photo plus extras,
// filling the item's image fields. Returns the keys written so a later
// failure can clean up.
func (s *Service) storePhotos(ctx context.Context, item *models.Item, photo []byte, extras [][]byte) ([]string, error) {
	var stored []string

	put := func(key string, data []byte) error {
		if err := s.store.Put(ctx, key, data); err != nil {
			s.deleteObjects(stored)
			return fmt.Errorf("store photo: %w", err)
		}
		stored = append(stored, key)
		return nil
	}

	if len(photo) > 0 {
		processed, err := imaging.Process(photo)
		if err != nil {
			return nil, &ValidationError{Field: "photo", Reason: err.Error()}
		}
		key := "items/" + item.ID.String() + ".jpg"
		if err := put(key, processed.Full); err != nil {
			return nil, err
		}
		if err := put(ThumbKey(key), processed.Thumb); err != nil {
			return nil, err
		}
		item.ImageKey = key
	}

	for i, extra := range extras {
		processed, err := imaging.Process(extra)
		if err != nil {
			s.deleteObjects(stored)
			return nil, &ValidationError{Field: "photo", Reason: err.Error()}
		}
		key := fmt.Sprintf("items/%s_%d.jpg", item.ID, i+1)
		if err := put(key, processed.Full); err != nil {
			return nil, err
		}
		item.ExtraImages = append(item.ExtraImages, key)
	}

	return stored, nil
}

// deleteObjects is best-effort cleanup: object removal happens outside
// any transaction, so failures are only logged.
func (s *Service) deleteObjects(keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(context.Background(), key); err != nil {
			s.logger.Warn("object cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// EditItem rewrites title and description. Owner or admin only.
func (s *Service) EditItem(ctx context.Context, actorID, itemID uuid.UUID, title, description string) (*models.Item, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if !canEdit(actor, item) {
		return nil, ErrNotAuthorized
	}

	if err := validateNonEmpty("title", title); err != nil {
		return nil, err
	}
	if err := validateNonEmpty("description", description); err != nil {
		return nil, err
	}

	if err := s.items.UpdateDetails(ctx, itemID, title, description); err != nil {
		return nil, err
	}
	s.invalidateViews(ctx)

	return s.items.GetByID(ctx, itemID)
}

// MarkGone flags the item unavailable with provenance. Claims stay
// untouched: the waitlist survives gone/relist cycles.
func (s *Service) MarkGone(ctx context.Context, actorID, itemID uuid.UUID) error {
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

	if err := s.items.MarkGone(ctx, itemID, actor.ID); err != nil {
		return err
	}
	s.invalidateViews(ctx)

	s.logger.Info("item marked gone",
		zap.String("item_id", itemID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// Relist returns a gone item to the available state, recording who
// brought it back. Relisting an already-available item is an idempotent
// success and leaves all provenance fields unchanged.
func (s *Service) Relist(ctx context.Context, actorID, itemID uuid.UUID) error {
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

	if err := s.items.Relist(ctx, itemID, actor.ID); err != nil {
		return err
	}
	s.invalidateViews(ctx)
	return nil
}

// DeleteItem removes the item, its claims, and its community
// associations in one transaction, then best-effort deletes the stored
// photos. Deletion is destructive and sits outside the gone/relist
// lifecycle.
func (s *Service) DeleteItem(ctx context.Context, actorID, itemID uuid.UUID) error {
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

	if err := s.items.Delete(ctx, itemID); err != nil {
		return err
	}

	var keys []string
	if item.ImageKey != "" {
		keys = append(keys, item.ImageKey, ThumbKey(item.ImageKey))
	}
	keys = append(keys, item.ExtraImages...)
	s.deleteObjects(keys)

	s.invalidateViews(ctx)

	s.logger.Info("item deleted",
		zap.String("item_id", itemID.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	return nil
}

// SetItemCommunities replaces the item's community association set.
// Owner or admin only; every target community must exist.
func (s *Service) SetItemCommunities(ctx context.Context, actorID, itemID uuid.UUID, communityIDs []int64) error {
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

	for _, id := range communityIDs {
		community, err := s.communities.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if community == nil {
			return ErrCommunityNotFound
		}
	}

	if err := s.communities.SetItemCommunities(ctx, itemID, communityIDs); err != nil {
		return err
	}
	s.invalidateViews(ctx)
	return nil
}
