package service

import (
	"context"
	"fmt"
	"strings"

	"livaulislam/internal/featureflags"
	"livaulislam/internal/models"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
)

const maxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	profiles repository.ProfileRepository
	notifier Notifier
	flags    *featureflags.Manager
}

type CreateCommentInput struct {
	UserID    uuid.UUID
	ArticleID uuid.UUID
	Content   string
}

func NewCommentService(
	comments repository.CommentRepository,
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	notifier Notifier,
	flags *featureflags.Manager,
) *CommentService {
	return &CommentService{
		comments: comments,
		articles: articles,
		profiles: profiles,
		notifier: notifier,
		flags:    flags,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	article, err := readableArticle(ctx, s.articles, in.UserID, in.ArticleID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ArticleID: in.ArticleID,
		AuthorID:  in.UserID,
		Content:   content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	deliverNotification(ctx, s.notifier, s.profiles, s.flags, article.AuthorID, in.UserID,
		models.NotificationComment, "New comment",
		func(name string) string { return fmt.Sprintf("%s commented on %q", name, article.Title) },
		map[string]string{
			"actor_id":   in.UserID.String(),
			"article_id": article.ID.String(),
			"comment_id": comment.ID.String(),
			"slug":       article.Slug,
		})
	return comment, nil
}

// ListComments returns the article's comments, newest first. viewer may be
// uuid.Nil for anonymous readers.
func (s *CommentService) ListComments(ctx context.Context, viewer, articleID uuid.UUID) ([]*models.Comment, error) {
	if _, err := readableArticle(ctx, s.articles, viewer, articleID); err != nil {
		return nil, err
	}
	return s.comments.ListByArticle(ctx, articleID)
}

// readableArticle loads an article viewer may see. Drafts are invisible to
// everyone but their author.
func readableArticle(ctx context.Context, articles repository.ArticleRepository, viewer, articleID uuid.UUID) (*models.Article, error) {
	article, err := articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if !article.Published && (viewer == uuid.Nil || article.AuthorID != viewer) {
		return nil, models.NewNotFoundError("Article", articleID)
	}
	return article, nil
}
