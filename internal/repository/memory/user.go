package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) UpsertByExternalID(ctx context.Context, externalID, email, displayName, pictureURL string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if id, ok := s.db.usersByExternal[externalID]; ok {
		user := s.db.users[id]
		user.Email = email
		user.DisplayName = displayName
		user.PictureURL = pictureURL
		s.db.users[id] = user
		return &user, nil
	}

	user := models.User{
		ID:          uuid.New(),
		ExternalID:  externalID,
		Email:       email,
		DisplayName: displayName,
		PictureURL:  pictureURL,
		Prefs:       models.UserPrefs{EmailNotifications: true},
		CreatedAt:   time.Now(),
	}
	s.db.users[user.ID] = user
	s.db.usersByExternal[externalID] = user.ID
	return &user, nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *UserStore) UpdatePrefs(ctx context.Context, id uuid.UUID, prefs models.UserPrefs) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	user, ok := s.db.users[id]
	if !ok {
		return nil
	}
	user.Prefs = prefs
	s.db.users[id] = user
	return nil
}

func (s *UserStore) ListNewListingSubscribers(ctx context.Context, communityIDs []int64) ([]models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	users := make([]models.User, 0)
	for _, user := range s.db.users {
		if !user.Prefs.NewListingNotifications {
			continue
		}
		memberships := s.db.userCommunities[user.ID]
		for _, communityID := range communityIDs {
			if memberships[communityID] {
				users = append(users, user)
				break
			}
		}
	}
	return users, nil
}

// SetAdmin flips the admin flag directly; tests use this where
// production relies on operator SQL.
func (s *UserStore) SetAdmin(id uuid.UUID, admin bool) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if user, ok := s.db.users[id]; ok {
		user.IsAdmin = admin
		s.db.users[id] = user
	}
}
