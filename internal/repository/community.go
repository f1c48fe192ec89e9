package repository

import (
	"context"

	"livaulislam/internal/models"

	"gorm.io/gorm"
)

// CommunityRepository computes site-wide totals.
type CommunityRepository interface {
	Stats(ctx context.Context) (models.CommunityStats, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Stats(ctx context.Context) (models.CommunityStats, error) {
	var stats models.CommunityStats
	db := readDB(r.db).WithContext(ctx)

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Users, db.Model(&models.Profile{})},
		{&stats.Articles, published(db.Model(&models.Article{}))},
		{&stats.Likes, db.Model(&models.ArticleLike{})},
		{&stats.Comments, db.Model(&models.Comment{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return stats, models.NewInternalError(err)
		}
	}
	return stats, nil
}
