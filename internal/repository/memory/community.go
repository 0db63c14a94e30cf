package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

type CommunityStore struct {
	db *DB
}

func NewCommunityStore(db *DB) *CommunityStore {
	return &CommunityStore{db: db}
}

func (s *CommunityStore) Create(ctx context.Context, community models.Community) (*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	community.ID = s.db.nextCommunityID
	s.db.nextCommunityID++
	community.CreatedAt = time.Now()
	s.db.communities[community.ID] = community
	return &community, nil
}

func (s *CommunityStore) GetByID(ctx context.Context, id int64) (*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	community, ok := s.db.communities[id]
	if !ok {
		return nil, nil
	}
	return &community, nil
}

func (s *CommunityStore) GetByShortName(ctx context.Context, shortName string) (*models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, community := range s.db.communities {
		if community.ShortName == shortName {
			c := community
			return &c, nil
		}
	}
	return nil, nil
}

func (s *CommunityStore) List(ctx context.Context) ([]models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	communities := make([]models.Community, 0, len(s.db.communities))
	for _, community := range s.db.communities {
		communities = append(communities, community)
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].ShortName < communities[j].ShortName
	})
	return communities, nil
}

func (s *CommunityStore) Join(ctx context.Context, userID uuid.UUID, communityID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	memberships := s.db.userCommunities[userID]
	if memberships == nil {
		memberships = make(map[int64]bool)
		s.db.userCommunities[userID] = memberships
	}
	memberships[communityID] = true
	return nil
}

func (s *CommunityStore) Leave(ctx context.Context, userID uuid.UUID, communityID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.userCommunities[userID], communityID)
	return nil
}

func (s *CommunityStore) IsMember(ctx context.Context, userID uuid.UUID, communityID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	return s.db.userCommunities[userID][communityID], nil
}

func (s *CommunityStore) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.Community, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	communities := make([]models.Community, 0)
	for communityID := range s.db.itemCommunities[itemID] {
		if community, ok := s.db.communities[communityID]; ok {
			communities = append(communities, community)
		}
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].ShortName < communities[j].ShortName
	})
	return communities, nil
}

func (s *CommunityStore) SetItemCommunities(ctx context.Context, itemID uuid.UUID, communityIDs []int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	associations := make(map[int64]bool, len(communityIDs))
	for _, communityID := range communityIDs {
		associations[communityID] = true
	}
	s.db.itemCommunities[itemID] = associations
	return nil
}
