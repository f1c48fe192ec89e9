package repository

import (
	"context"
	"strconv"

	"livaulislam/internal/cache"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository stores likes and follows together with the counters
// they drive. A counter moves only when an edge row was actually written.
type EngagementRepository interface {
	Like(ctx context.Context, userID, articleID uuid.UUID) (*models.LikeState, bool, error)
	Unlike(ctx context.Context, userID, articleID uuid.UUID) (*models.LikeState, bool, error)
	IsLiked(ctx context.Context, userID, articleID uuid.UUID) (bool, error)
	Follow(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, bool, error)
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}

type engagementRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewEngagementRepository returns a gorm-backed EngagementRepository.
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db, log: observability.NewRepoLogger("engagement")}
}

func decrement(col string) clause.Expr {
	return gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
}

func record(kind, action string, changed bool) {
	observability.EngagementMutations.WithLabelValues(kind, action, strconv.FormatBool(changed)).Inc()
}

func (r *engagementRepository) likeState(tx *gorm.DB, userID, articleID uuid.UUID) (*models.LikeState, error) {
	var article models.Article
	if err := tx.Select("id", "likes_count", "version").First(&article, "id = ?", articleID).Error; err != nil {
		return nil, err
	}
	var n int64
	if err := tx.Model(&models.ArticleLike{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	return &models.LikeState{
		ArticleID:  articleID,
		Liked:      n > 0,
		LikesCount: article.LikesCount,
		Version:    article.Version,
	}, nil
}

func (r *engagementRepository) adjustLikes(tx *gorm.DB, articleID uuid.UUID, delta clause.Expr) error {
	return tx.Model(&models.Article{}).Where("id = ?", articleID).
		UpdateColumns(map[string]interface{}{
			"likes_count": delta,
			"version":     gorm.Expr("version + 1"),
		}).Error
}

// Like inserts the like edge if absent. changed reports whether a row was inserted.
func (r *engagementRepository) Like(ctx context.Context, userID, articleID uuid.UUID) (*models.LikeState, bool, error) {
	var state *models.LikeState
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Article{}).Where("id = ?", articleID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ArticleLike{ArticleID: articleID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if changed = res.RowsAffected == 1; changed {
			if err := r.adjustLikes(tx, articleID, gorm.Expr("likes_count + 1")); err != nil {
				return err
			}
		}
		var err error
		state, err = r.likeState(tx, userID, articleID)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "like")
		return nil, false, notFoundOr(err, "Article", articleID)
	}
	r.afterLike(ctx, state, "like", changed)
	return state, changed, nil
}

// Unlike removes the like edge if present. changed reports whether a row was deleted.
func (r *engagementRepository) Unlike(ctx context.Context, userID, articleID uuid.UUID) (*models.LikeState, bool, error) {
	var state *models.LikeState
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("article_id = ? AND user_id = ?", articleID, userID).Delete(&models.ArticleLike{})
		if res.Error != nil {
			return res.Error
		}
		if changed = res.RowsAffected > 0; changed {
			if err := r.adjustLikes(tx, articleID, decrement("likes_count")); err != nil {
				return err
			}
		}
		var err error
		state, err = r.likeState(tx, userID, articleID)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "unlike")
		return nil, false, notFoundOr(err, "Article", articleID)
	}
	r.afterLike(ctx, state, "unlike", changed)
	return state, changed, nil
}

func (r *engagementRepository) afterLike(ctx context.Context, state *models.LikeState, action string, changed bool) {
	record("like", action, changed)
	if changed {
		_ = cache.Retire(ctx, cache.ArticleKey(state.ArticleID), state.Version, cache.ArticleTTL)
		r.log.LogUpdate(ctx, map[string]interface{}{
			"article_id":  state.ArticleID.String(),
			"action":      action,
			"likes_count": state.LikesCount,
		})
	}
}

func (r *engagementRepository) IsLiked(ctx context.Context, userID, articleID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ArticleLike{}).
		Where("article_id = ? AND user_id = ?", articleID, userID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *engagementRepository) followState(tx *gorm.DB, followerID, followingID uuid.UUID) (*models.FollowState, error) {
	var target models.Profile
	if err := tx.Select("id", "followers_count", "version").First(&target, "id = ?", followingID).Error; err != nil {
		return nil, err
	}
	var n int64
	if err := tx.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	return &models.FollowState{
		ProfileID:      followingID,
		Following:      n > 0,
		FollowersCount: target.FollowersCount,
		Version:        target.Version,
	}, nil
}

func (r *engagementRepository) adjustFollow(tx *gorm.DB, followerID, followingID uuid.UUID, up bool) error {
	followers, following := gorm.Expr("followers_count + 1"), gorm.Expr("following_count + 1")
	if !up {
		followers, following = decrement("followers_count"), decrement("following_count")
	}
	if err := tx.Model(&models.Profile{}).Where("id = ?", followingID).
		UpdateColumns(map[string]interface{}{"followers_count": followers, "version": gorm.Expr("version + 1")}).Error; err != nil {
		return err
	}
	return tx.Model(&models.Profile{}).Where("id = ?", followerID).
		UpdateColumns(map[string]interface{}{"following_count": following, "version": gorm.Expr("version + 1")}).Error
}

// Follow inserts the follow edge if absent. Self-follows are rejected.
func (r *engagementRepository) Follow(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, bool, error) {
	if followerID == followingID {
		return nil, false, models.NewValidationError("You cannot follow yourself")
	}
	var state *models.FollowState
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Profile{}).Where("id = ?", followingID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
		if res.Error != nil {
			return res.Error
		}
		if changed = res.RowsAffected == 1; changed {
			if err := r.adjustFollow(tx, followerID, followingID, true); err != nil {
				return err
			}
		}
		var err error
		state, err = r.followState(tx, followerID, followingID)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "follow")
		return nil, false, notFoundOr(err, "Profile", followingID)
	}
	r.afterFollow(ctx, followerID, state, "follow", changed)
	return state, changed, nil
}

// Unfollow removes the follow edge if present.
func (r *engagementRepository) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (*models.FollowState, bool, error) {
	var state *models.FollowState
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if changed = res.RowsAffected > 0; changed {
			if err := r.adjustFollow(tx, followerID, followingID, false); err != nil {
				return err
			}
		}
		var err error
		state, err = r.followState(tx, followerID, followingID)
		return err
	})
	if err != nil {
		r.log.LogError(ctx, err, "unfollow")
		return nil, false, notFoundOr(err, "Profile", followingID)
	}
	r.afterFollow(ctx, followerID, state, "unfollow", changed)
	return state, changed, nil
}

func (r *engagementRepository) afterFollow(ctx context.Context, followerID uuid.UUID, state *models.FollowState, action string, changed bool) {
	record("follow", action, changed)
	if changed {
		_ = cache.Retire(ctx, cache.ProfileKey(state.ProfileID), state.Version, cache.ProfileTTL)
		cache.InvalidateProfile(ctx, followerID)
		r.log.LogUpdate(ctx, map[string]interface{}{
			"follower_id":  followerID.String(),
			"following_id": state.ProfileID.String(),
			"action":       action,
		})
	}
}

func (r *engagementRepository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
