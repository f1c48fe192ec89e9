package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleLike records one user's like on an article.
// The combination of ArticleID and UserID must be unique.
type ArticleLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ArticleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_article_likes_pair" json:"article_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_article_likes_pair;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *ArticleLike) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Follow is a directed follower -> following edge.
type Follow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FollowingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// LikeState is returned by like toggles.
type LikeState struct {
	ArticleID  uuid.UUID `json:"article_id"`
	Liked      bool      `json:"liked"`
	LikesCount int64     `json:"likes_count"`
	Version    int64     `json:"version"`
}

// FollowState is returned by follow toggles.
type FollowState struct {
	ProfileID      uuid.UUID `json:"profile_id"`
	Following      bool      `json:"following"`
	FollowersCount int       `json:"followers_count"`
	Version        int64     `json:"version"`
}
