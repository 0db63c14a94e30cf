package marketplace

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"github.com/shevett/claimit/internal/models"
)

var shortNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,31}$`)

// CommunityInput carries the fields a user supplies when creating a
// community; the creator becomes its owner.
type CommunityInput struct {
	ShortName   string
	FullName    string
	Description string
	Private     bool
	WebhookURL  string
}

func (s *Service) CreateCommunity(ctx context.Context, actorID uuid.UUID, input CommunityInput) (*models.Community, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !shortNameRe.MatchString(input.ShortName) {
		return nil, &ValidationError{Field: "short_name", Reason: "lowercase letters, digits, and dashes; 2-32 chars"}
	}
	if err := validateNonEmpty("full_name", input.FullName); err != nil {
		return nil, err
	}
	if existing, err := s.communities.GetByShortName(ctx, input.ShortName); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &ValidationError{Field: "short_name", Reason: "already taken"}
	}

	community, err := s.communities.Create(ctx, models.Community{
		ShortName:   input.ShortName,
		FullName:    input.FullName,
		Description: input.Description,
		OwnerID:     actor.ID,
		Private:     input.Private,
		WebhookURL:  input.WebhookURL,
	})
	if err != nil {
		return nil, err
	}

	// The creator is a member from the start.
	if err := s.communities.Join(ctx, actor.ID, community.ID); err != nil {
		return nil, err
	}
	return community, nil
}

func (s *Service) ListCommunities(ctx context.Context) ([]models.Community, error) {
	return s.communities.List(ctx)
}

// JoinCommunity is idempotent; joining twice succeeds silently.
func (s *Service) JoinCommunity(ctx context.Context, actorID uuid.UUID, communityID int64) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	community, err := s.communities.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community == nil {
		return ErrCommunityNotFound
	}
	return s.communities.Join(ctx, actor.ID, communityID)
}

// LeaveCommunity is idempotent; leaving a community the actor is not a
// member of succeeds silently.
func (s *Service) LeaveCommunity(ctx context.Context, actorID uuid.UUID, communityID int64) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}
	return s.communities.Leave(ctx, actor.ID, communityID)
}

// IsVisible gates an item for a viewer:
//   - admins and the owner always see it (direct access);
//   - any non-private community association makes it public;
//   - a private association shows it to that community's members;
//   - zero associations leave it staged, invisible to everyone else.
func (s *Service) IsVisible(ctx context.Context, item *models.Item, viewerID uuid.UUID, viewerIsAdmin bool) (bool, error) {
	if viewerIsAdmin || viewerID == item.OwnerID {
		return true, nil
	}

	communities, err := s.communities.ListForItem(ctx, item.ID)
	if err != nil {
		return false, err
	}
	for _, community := range communities {
		if !community.Private {
			return true, nil
		}
	}
	if viewerID == uuid.Nil {
		return false, nil
	}
	for _, community := range communities {
		if !community.Private {
			continue
		}
		member, err := s.communities.IsMember(ctx, viewerID, community.ID)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}
