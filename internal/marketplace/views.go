package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
	"go.uber.org/zap"
)

// ListQuery narrows the item listing. A Nil ViewerID is an anonymous
// reader: no membership, no claim positions, no private items.
type ListQuery struct {
	IncludeGone  bool
	CommunityIDs []int64
	ViewerID     uuid.UUID
}

func (q ListQuery) cacheKey() string {
	ids := append([]int64(nil), q.CommunityIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return fmt.Sprintf("items:all:gone=%t:c=%v:v=%s", q.IncludeGone, ids, q.ViewerID)
}

// ListItems returns the visible items as read models, combining each
// item with its live waitlist. Results are cached per query shape and
// viewer; every lifecycle mutation invalidates the items: prefix before
// returning, so the cache can never serve a viewer their own stale
// waitlist.
//
// A viewer with the show-gone preference enabled gets gone items in
// every listing; the preference folds into IncludeGone before the cache
// key is built, so flipping it changes the key rather than going stale.
func (s *Service) ListItems(ctx context.Context, query ListQuery) ([]models.ItemView, error) {
	viewer, err := s.viewer(ctx, query.ViewerID)
	if err != nil {
		return nil, err
	}
	viewerID, viewerIsAdmin := uuid.Nil, false
	if viewer != nil {
		viewerID, viewerIsAdmin = viewer.ID, viewer.IsAdmin
		if viewer.Prefs.ShowGoneItems {
			query.IncludeGone = true
		}
	}

	key := query.cacheKey()
	if views, ok := s.cachedViews(ctx, key); ok {
		return views, nil
	}

	items, err := s.items.List(ctx, repository.ItemFilter{
		IncludeGone:  query.IncludeGone,
		CommunityIDs: query.CommunityIDs,
	})
	if err != nil {
		return nil, err
	}

	views := make([]models.ItemView, 0, len(items))
	for i := range items {
		visible, err := s.IsVisible(ctx, &items[i], viewerID, viewerIsAdmin)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		view, err := s.buildView(ctx, items[i], viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	s.storeViews(ctx, key, views)
	return views, nil
}

// GetItem returns one item's read model. Items are directly
// addressable by ID, but the visibility rule still applies: a staged or
// private item stays hidden from viewers outside its audience.
func (s *Service) GetItem(ctx context.Context, itemID, viewerID uuid.UUID) (*models.ItemView, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	viewer, err := s.viewer(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	resolvedID, viewerIsAdmin := uuid.Nil, false
	if viewer != nil {
		resolvedID, viewerIsAdmin = viewer.ID, viewer.IsAdmin
	}
	visible, err := s.IsVisible(ctx, item, resolvedID, viewerIsAdmin)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrNotAuthorized
	}

	view, err := s.buildView(ctx, *item, resolvedID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListUserItems returns the user's own listings; no visibility gate,
// owners always see their items. The show-gone preference applies here
// the same way it does in ListItems.
func (s *Service) ListUserItems(ctx context.Context, userID uuid.UUID, includeGone bool) ([]models.ItemView, error) {
	if !includeGone {
		user, err := s.viewer(ctx, userID)
		if err != nil {
			return nil, err
		}
		if user != nil && user.Prefs.ShowGoneItems {
			includeGone = true
		}
	}

	key := fmt.Sprintf("items:user:%s:gone=%t", userID, includeGone)
	if views, ok := s.cachedViews(ctx, key); ok {
		return views, nil
	}

	items, err := s.items.ListByOwner(ctx, userID, includeGone)
	if err != nil {
		return nil, err
	}

	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		view, err := s.buildView(ctx, item, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	s.storeViews(ctx, key, views)
	return views, nil
}

// ListUserClaims returns a read model per item the user actively
// claims, each with the user's current waitlist position.
func (s *Service) ListUserClaims(ctx context.Context, userID uuid.UUID) ([]models.ItemView, error) {
	key := "claims:user:" + userID.String()
	if views, ok := s.cachedViews(ctx, key); ok {
		return views, nil
	}

	claims, err := s.claims.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ItemView, 0, len(claims))
	for _, claim := range claims {
		item, err := s.items.GetByID(ctx, claim.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			// A delete raced the listing; the claim went with the item.
			continue
		}
		view, err := s.buildView(ctx, *item, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	s.storeViews(ctx, key, views)
	return views, nil
}

// buildView derives everything claim-related from the one ordered
// active-claims sequence, so primary, count, and the viewer's position
// always agree.
func (s *Service) buildView(ctx context.Context, item models.Item, viewerID uuid.UUID) (models.ItemView, error) {
	claims, err := s.claims.ListActive(ctx, item.ID)
	if err != nil {
		return models.ItemView{}, err
	}

	view := models.ItemView{
		Item:             item,
		ActiveClaimCount: len(claims),
	}
	if len(claims) > 0 {
		primary := claims[0]
		view.PrimaryClaim = &primary
	}
	if viewerID != uuid.Nil {
		view.ViewerPosition = positionOf(claims, viewerID)
	}
	return view, nil
}

// viewer resolves the viewing user; a missing or Nil viewer reads
// anonymously (nil, nil) rather than erroring.
func (s *Service) viewer(ctx context.Context, viewerID uuid.UUID) (*models.User, error) {
	if viewerID == uuid.Nil {
		return nil, nil
	}
	return s.users.GetByID(ctx, viewerID)
}

func (s *Service) cachedViews(ctx context.Context, key string) ([]models.ItemView, bool) {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var views []models.ItemView
	if err := json.Unmarshal(data, &views); err != nil {
		s.logger.Warn("corrupt cache entry", zap.String("key", key), zap.Error(err))
		s.cache.Invalidate(ctx, key)
		return nil, false
	}
	return views, true
}

func (s *Service) storeViews(ctx context.Context, key string, views []models.ItemView) {
	data, err := json.Marshal(views)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, data, s.cacheTTL)
}
