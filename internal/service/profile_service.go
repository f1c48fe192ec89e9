package service

import (
	"context"
	"strings"
	"time"

	"livaulislam/internal/models"
	"livaulislam/internal/repository"
	"livaulislam/internal/validation"

	"github.com/google/uuid"
)

type ProfileService struct {
	profiles    repository.ProfileRepository
	articles    repository.ArticleRepository
	engagements repository.EngagementRepository
	events      AuthEventPublisher
}

func NewProfileService(
	profiles repository.ProfileRepository,
	articles repository.ArticleRepository,
	engagements repository.EngagementRepository,
	events AuthEventPublisher,
) *ProfileService {
	return &ProfileService{
		profiles:    profiles,
		articles:    articles,
		engagements: engagements,
		events:      events,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// Page loads a profile by exact username with its stats. viewer may be uuid.Nil.
func (s *ProfileService) Page(ctx context.Context, username string, viewer uuid.UUID) (*models.ProfilePage, error) {
	profile, err := s.profiles.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	stats, err := s.profiles.Stats(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	page := &models.ProfilePage{
		Profile: profile,
		Stats:   stats,
		IsOwner: viewer != uuid.Nil && viewer == profile.ID,
	}
	if viewer != uuid.Nil && !page.IsOwner {
		following, err := s.engagements.IsFollowing(ctx, viewer, profile.ID)
		if err != nil {
			return nil, err
		}
		page.Following = following
	}
	return page, nil
}

// Articles lists a profile's articles. Drafts are included for the owner only.
func (s *ProfileService) Articles(ctx context.Context, username string, viewer uuid.UUID) ([]*models.Article, error) {
	profile, err := s.profiles.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	return s.articles.ListByAuthor(ctx, profile.ID, viewer != uuid.Nil && viewer == profile.ID)
}

// UpdateProfile writes the provided fields. updated_at is refreshed even
// when no field changed.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in models.ProfileUpdate) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, models.NewAuthError(models.CodeNotAuthenticated, "Not authenticated")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		trimmed := strings.TrimSpace(*in.DisplayName)
		if trimmed == "" {
			return nil, models.NewFieldValidationError("Invalid input",
				map[string]string{"display_name": "is required"})
		}
		in.DisplayName = &trimmed
	}

	profile, err := s.profiles.Update(ctx, userID, in.Columns())
	if err != nil {
		return nil, err
	}
	publishAuthEvent(ctx, s.events, models.AuthEvent{
		Type:   models.AuthEventUserUpdated,
		UserID: userID,
		At:     time.Now().UTC(),
	})
	return profile, nil
}
