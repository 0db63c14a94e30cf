package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
	"github.com/shevett/claimit/internal/repository"
)

type ItemStore struct {
	db *DB
}

func NewItemStore(db *DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) Create(ctx context.Context, item models.Item, communityIDs []int64) (*models.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item.CreatedAt = time.Now()
	s.db.items[item.ID] = copyItem(item)
	if len(communityIDs) > 0 {
		associations := make(map[int64]bool, len(communityIDs))
		for _, communityID := range communityIDs {
			associations[communityID] = true
		}
		s.db.itemCommunities[item.ID] = associations
	}
	return &item, nil
}

func (s *ItemStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item, ok := s.db.items[id]
	if !ok {
		return nil, nil
	}
	item = copyItem(item)
	return &item, nil
}

func (s *ItemStore) UpdateDetails(ctx context.Context, id uuid.UUID, title, description string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item, ok := s.db.items[id]
	if !ok {
		return repository.ErrItemNotFound
	}
	item.Title = title
	item.Description = description
	s.db.items[id] = item
	return nil
}

func (s *ItemStore) MarkGone(ctx context.Context, id, actorID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item, ok := s.db.items[id]
	if !ok {
		return repository.ErrItemNotFound
	}
	now := time.Now()
	item.Gone = true
	item.GoneAt = &now
	item.GoneBy = &actorID
	s.db.items[id] = item
	return nil
}

func (s *ItemStore) Relist(ctx context.Context, id, actorID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	item, ok := s.db.items[id]
	if !ok {
		return repository.ErrItemNotFound
	}
	// Relisting an available item is a no-op success; provenance fields
	// keep their prior values.
	if !item.Gone {
		return nil
	}
	now := time.Now()
	item.Gone = false
	item.RelistedAt = &now
	item.RelistedBy = &actorID
	s.db.items[id] = item
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.items[id]; !ok {
		return repository.ErrItemNotFound
	}

	// Mirrors the transactional cascade in the pgx store: claims and
	// associations disappear with the item under the same lock.
	kept := s.db.claims[:0]
	for _, claim := range s.db.claims {
		if claim.ItemID != id {
			kept = append(kept, claim)
		}
	}
	s.db.claims = kept
	delete(s.db.itemCommunities, id)
	delete(s.db.items, id)
	return nil
}

func (s *ItemStore) List(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	items := make([]models.Item, 0)
	for _, item := range s.db.items {
		if item.Gone && !filter.IncludeGone {
			continue
		}
		if len(filter.CommunityIDs) > 0 {
			associations := s.db.itemCommunities[item.ID]
			match := false
			for _, communityID := range filter.CommunityIDs {
				if associations[communityID] {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		items = append(items, copyItem(item))
	}
	sortItemsNewestFirst(items)
	return items, nil
}

func (s *ItemStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, includeGone bool) ([]models.Item, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	items := make([]models.Item, 0)
	for _, item := range s.db.items {
		if item.OwnerID != ownerID {
			continue
		}
		if item.Gone && !includeGone {
			continue
		}
		items = append(items, copyItem(item))
	}
	sortItemsNewestFirst(items)
	return items, nil
}

func sortItemsNewestFirst(items []models.Item) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID.String() < items[j].ID.String()
	})
}
