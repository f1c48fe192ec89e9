package repository

import (
	"context"

	"livaulislam/internal/cache"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.Comment, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

// Create stores the comment and bumps the article's comments_count in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	var version int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Article{}).Where("id = ?", comment.ArticleID).
			UpdateColumns(map[string]interface{}{
				"comments_count": gorm.Expr("comments_count + 1"),
				"version":        gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Omit("Author").Create(comment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Article{}).Select("version").
			Where("id = ?", comment.ArticleID).Scan(&version).Error; err != nil {
			return err
		}
		return withAuthor(tx).First(comment, "id = ?", comment.ID).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return notFoundOr(err, "Article", comment.ArticleID)
	}
	models.NormalizeComments([]*models.Comment{comment})
	_ = cache.Retire(ctx, cache.ArticleKey(comment.ArticleID), version, cache.ArticleTTL)
	r.log.LogCreate(ctx, map[string]interface{}{"id": comment.ID.String(), "article_id": comment.ArticleID.String()})
	return nil
}

// ListByArticle returns comments newest first.
func (r *commentRepository) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := withAuthor(readDB(r.db).WithContext(ctx)).
		Where("article_id = ?", articleID).
		Order("created_at DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return models.NormalizeComments(comments), nil
}
