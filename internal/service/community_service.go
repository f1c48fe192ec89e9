package service

import (
	"context"

	"livaulislam/internal/cache"
	"livaulislam/internal/featureflags"
	"livaulislam/internal/models"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
)

const (
	trendingTopicsLimit = 8
	suggestedUsersLimit = 6
	topAuthorsLimit     = 5
	recentActivityLimit = 10
)

type CommunityService struct {
	community repository.CommunityRepository
	articles  repository.ArticleRepository
	profiles  repository.ProfileRepository
	flags     *featureflags.Manager
}

func NewCommunityService(
	community repository.CommunityRepository,
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	flags *featureflags.Manager,
) *CommunityService {
	return &CommunityService{
		community: community,
		articles:  articles,
		profiles:  profiles,
		flags:     flags,
	}
}

func (s *CommunityService) Stats(ctx context.Context) (models.CommunityStats, error) {
	var stats models.CommunityStats
	err := cache.Aside(ctx, cache.CommunityKey, &stats, cache.CommunityTTL, func() error {
		var err error
		stats, err = s.community.Stats(ctx)
		return err
	})
	return stats, err
}

// Overview builds the community page. viewer may be uuid.Nil.
func (s *CommunityService) Overview(ctx context.Context, viewer uuid.UUID) (*models.CommunityOverview, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	var topics []models.TopicCount
	err = cache.Aside(ctx, cache.TopicsKey, &topics, cache.CommunityTTL, func() error {
		var err error
		topics, err = s.articles.TrendingTopics(ctx, trendingTopicsLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []models.TopicCount{}
	}

	suggested := []*models.Profile{}
	if s.flags.Enabled(featureflags.SuggestedUsers, viewer) {
		if suggested, err = s.profiles.Suggested(ctx, viewer, suggestedUsersLimit); err != nil {
			return nil, err
		}
	}

	authors, err := s.profiles.TopAuthors(ctx, topAuthorsLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.articles.Recent(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	return &models.CommunityOverview{
		Stats:          stats,
		TrendingTopics: topics,
		SuggestedUsers: suggested,
		TopAuthors:     authors,
		RecentActivity: recent,
	}, nil
}

// About returns the product description with live totals.
func (s *CommunityService) About(ctx context.Context) (*models.AboutPage, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AboutPage{
		Name:    "Livaulislam",
		Tagline: "A home for thoughtful writing",
		Mission: "Give writers a calm place to publish and readers a community worth joining.",
		Features: []string{
			"Rich writing studio with drafts and tags",
			"Follow writers and like their work",
			"Discover articles by topic and popularity",
		},
		Stats: stats,
	}, nil
}
