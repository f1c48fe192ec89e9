package service

import (
	"context"
	"encoding/json"
	"fmt"

	"livaulislam/internal/featureflags"
	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type EngagementService struct {
	engagements repository.EngagementRepository
	articles    repository.ArticleRepository
	profiles    repository.ProfileRepository
	notifier    Notifier
	flags       *featureflags.Manager
}

func NewEngagementService(
	engagements repository.EngagementRepository,
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	notifier Notifier,
	flags *featureflags.Manager,
) *EngagementService {
	return &EngagementService{
		engagements: engagements,
		articles:    articles,
		profiles:    profiles,
		notifier:    notifier,
		flags:       flags,
	}
}

func (s *EngagementService) Like(ctx context.Context, actor, articleID uuid.UUID) (_ *models.LikeState, err error) {
	ctx, end := observability.StartSpan(ctx, "service.engagement.like",
		attribute.String("article_id", articleID.String()))
	defer func() { end(&err) }()

	article, err := readableArticle(ctx, s.articles, actor, articleID)
	if err != nil {
		return nil, err
	}
	state, changed, err := s.engagements.Like(ctx, actor, articleID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notifyLike(ctx, actor, article)
	}
	return state, nil
}

func (s *EngagementService) Unlike(ctx context.Context, actor, articleID uuid.UUID) (_ *models.LikeState, err error) {
	ctx, end := observability.StartSpan(ctx, "service.engagement.unlike",
		attribute.String("article_id", articleID.String()))
	defer func() { end(&err) }()

	if _, err := readableArticle(ctx, s.articles, actor, articleID); err != nil {
		return nil, err
	}
	state, _, err := s.engagements.Unlike(ctx, actor, articleID)
	return state, err
}

func (s *EngagementService) Follow(ctx context.Context, actor, target uuid.UUID) (_ *models.FollowState, err error) {
	ctx, end := observability.StartSpan(ctx, "service.engagement.follow",
		attribute.String("profile_id", target.String()))
	defer func() { end(&err) }()

	state, changed, err := s.engagements.Follow(ctx, actor, target)
	if err != nil {
		return nil, err
	}
	if changed {
		s.notify(ctx, target, actor, models.NotificationFollow, "New follower",
			func(name string) string { return name + " started following you" },
			map[string]string{"actor_id": actor.String()})
	}
	return state, nil
}

func (s *EngagementService) Unfollow(ctx context.Context, actor, target uuid.UUID) (_ *models.FollowState, err error) {
	ctx, end := observability.StartSpan(ctx, "service.engagement.unfollow",
		attribute.String("profile_id", target.String()))
	defer func() { end(&err) }()

	state, _, err := s.engagements.Unfollow(ctx, actor, target)
	return state, err
}

func (s *EngagementService) IsLiked(ctx context.Context, actor, articleID uuid.UUID) (bool, error) {
	return s.engagements.IsLiked(ctx, actor, articleID)
}

func (s *EngagementService) IsFollowing(ctx context.Context, actor, target uuid.UUID) (bool, error) {
	return s.engagements.IsFollowing(ctx, actor, target)
}

func (s *EngagementService) notifyLike(ctx context.Context, actor uuid.UUID, article *models.Article) {
	s.notify(ctx, article.AuthorID, actor, models.NotificationLike, "New like",
		func(name string) string { return fmt.Sprintf("%s liked %q", name, article.Title) },
		map[string]string{"actor_id": actor.String(), "article_id": article.ID.String(), "slug": article.Slug})
}

// notify delivers a notification to recipient unless the actor is the
// recipient or the rollout excludes them. Failures are logged.
func (s *EngagementService) notify(
	ctx context.Context,
	recipient, actor uuid.UUID,
	kind, title string,
	message func(actorName string) string,
	data map[string]string,
) {
	deliverNotification(ctx, s.notifier, s.profiles, s.flags, recipient, actor, kind, title, message, data)
}

func deliverNotification(
	ctx context.Context,
	notifier Notifier,
	profiles repository.ProfileRepository,
	flags *featureflags.Manager,
	recipient, actor uuid.UUID,
	kind, title string,
	message func(actorName string) string,
	data map[string]string,
) {
	if notifier == nil || recipient == actor || recipient == uuid.Nil {
		return
	}
	if !flags.Enabled(featureflags.EngagementNotifications, recipient) {
		return
	}

	name := "Someone"
	if profile, err := profiles.GetByID(ctx, actor); err == nil {
		name = profile.DisplayName
		if name == "" {
			name = profile.Username
		}
	}
	raw, _ := json.Marshal(data)
	note := &models.Notification{
		UserID:  recipient,
		Type:    kind,
		Title:   title,
		Message: message(name),
		Data:    string(raw),
	}
	if err := notifier.Notify(ctx, note); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to deliver notification",
			"type", kind, "user_id", recipient.String(), "error", err)
	}
}
