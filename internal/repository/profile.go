package repository

import (
	"context"
	"errors"
	"strings"

	"livaulislam/internal/cache"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*models.Profile, error)
	Search(ctx context.Context, q string, limit int) ([]*models.Profile, error)
	Stats(ctx context.Context, id uuid.UUID) (models.ProfileStats, error)
	Suggested(ctx context.Context, viewer uuid.UUID, limit int) ([]*models.Profile, error)
	TopAuthors(ctx context.Context, limit int) ([]*models.AuthorSummary, error)
}

type profileRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewProfileRepository returns a gorm-backed ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{
		db:      db,
		log:     observability.NewRepoLogger("profiles"),
		metrics: observability.NewDatabaseMetrics("profiles"),
	}
}

// Upsert inserts the profile unless a row with its id already exists. It is
// safe to repeat, so callers never need to retry around a concurrent insert.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	defer r.metrics.TrackQuery("upsert")()
	if profile.Version == 0 {
		profile.Version = 1
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewAuthError(models.CodeUsernameTaken, "Username is already taken")
		}
		r.log.LogError(ctx, err, "upsert")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": profile.ID.String(), "username": profile.Username})
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if hit, err := cache.LoadVersioned(ctx, cache.ProfileKey(id), &profile); err == nil && hit {
		return &profile, nil
	}
	if err := readDB(r.db).WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Profile", id)
	}
	_, _ = cache.StoreVersioned(ctx, cache.ProfileKey(id), profile.Version, &profile, cache.ProfileTTL)
	return &profile, nil
}

// GetByUsername matches the username exactly, case included.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := readDB(r.db).WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		return nil, notFoundOr(err, "Profile", username)
	}
	return &profile, nil
}

// UsernameTaken compares case-insensitively.
func (r *profileRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Update writes the given columns, bumps the version and refreshes updated_at.
func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*models.Profile, error) {
	defer r.metrics.TrackQuery("update")()
	var updated models.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).Where("id = ?", id).Updates(bump(cols))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&updated, "id = ?", id).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, notFoundOr(err, "Profile", id)
	}
	_ = cache.Retire(ctx, cache.ProfileKey(id), updated.Version, cache.ProfileTTL)
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id.String(), "version": updated.Version})
	return &updated, nil
}

func (r *profileRepository) Search(ctx context.Context, q string, limit int) ([]*models.Profile, error) {
	pattern := containsPattern(q)
	var profiles []*models.Profile
	err := readDB(r.db).WithContext(ctx).
		Where("LOWER(username) LIKE ?"+escapeClause+
			" OR LOWER(display_name) LIKE ?"+escapeClause+
			" OR LOWER(bio) LIKE ?"+escapeClause, pattern, pattern, pattern).
		Order("followers_count DESC").
		Limit(clampLimit(limit, 10, 50)).
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Stats(ctx context.Context, id uuid.UUID) (models.ProfileStats, error) {
	var stats models.ProfileStats
	db := readDB(r.db).WithContext(ctx)

	var profile models.Profile
	if err := db.Select("followers_count", "following_count").First(&profile, "id = ?", id).Error; err != nil {
		return stats, notFoundOr(err, "Profile", id)
	}
	stats.Followers = int64(profile.FollowersCount)
	stats.Following = int64(profile.FollowingCount)

	var agg struct {
		Articles  int64
		Published int64
		Views     int64
		Likes     int64
	}
	err := db.Model(&models.Article{}).
		Select(`COUNT(*) AS articles,
			COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published,
			COALESCE(SUM(view_count), 0) AS views,
			COALESCE(SUM(likes_count), 0) AS likes`).
		Where("author_id = ?", id).
		Scan(&agg).Error
	if err != nil {
		return stats, models.NewInternalError(err)
	}
	stats.Articles = agg.Articles
	stats.Published = agg.Published
	stats.Views = agg.Views
	stats.Likes = agg.Likes
	return stats, nil
}

// Suggested lists profiles the viewer does not follow, excluding the viewer.
func (r *profileRepository) Suggested(ctx context.Context, viewer uuid.UUID, limit int) ([]*models.Profile, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Profile{})
	if viewer != uuid.Nil {
		followed := r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", viewer)
		q = q.Where("id <> ?", viewer).Where("id NOT IN (?)", followed)
	}
	var profiles []*models.Profile
	if err := q.Order("followers_count DESC").Order("created_at DESC").
		Limit(clampLimit(limit, 6, 50)).Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

// TopAuthors ranks profiles by followers with their published article count and likes.
func (r *profileRepository) TopAuthors(ctx context.Context, limit int) ([]*models.AuthorSummary, error) {
	db := readDB(r.db).WithContext(ctx)
	var profiles []*models.Profile
	if err := db.Order("followers_count DESC").Order("created_at ASC").
		Limit(clampLimit(limit, 5, 50)).Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(profiles) == 0 {
		return []*models.AuthorSummary{}, nil
	}

	ids := make([]uuid.UUID, len(profiles))
	for i, p := range profiles {
		ids[i] = p.ID
	}
	var rows []struct {
		AuthorID     uuid.UUID
		ArticleCount int64
		TotalLikes   int64
	}
	err := db.Model(&models.Article{}).
		Select("author_id, COUNT(*) AS article_count, COALESCE(SUM(likes_count), 0) AS total_likes").
		Where("author_id IN ? AND published = ?", ids, true).
		Group("author_id").
		Scan(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}
	byAuthor := make(map[uuid.UUID]int, len(rows))
	for i, row := range rows {
		byAuthor[row.AuthorID] = i
	}

	out := make([]*models.AuthorSummary, 0, len(profiles))
	for _, p := range profiles {
		summary := &models.AuthorSummary{Profile: p}
		if i, ok := byAuthor[p.ID]; ok {
			summary.ArticleCount = rows[i].ArticleCount
			summary.TotalLikes = rows[i].TotalLikes
		}
		out = append(out, summary)
	}
	return out, nil
}
