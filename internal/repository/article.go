package repository

import (
	"context"
	"sort"

	"livaulislam/internal/cache"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sort keys accepted by Discover and Search.
const (
	SortLatest     = "latest"
	SortPopular    = "popular"
	SortTrending   = "trending"
	SortRelevance  = "relevance"
	SortDate       = "date"
	SortPopularity = "popularity"
)

// DiscoverFilter narrows the published article listing.
type DiscoverFilter struct {
	Query string
	Tag   string
	Sort  string
	Page  int
	Limit int
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) (*models.Article, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Featured(ctx context.Context, limit int) ([]*models.Article, error)
	Recent(ctx context.Context, limit int) ([]*models.Article, error)
	Trending(ctx context.Context, limit int) ([]*models.Article, error)
	Discover(ctx context.Context, filter DiscoverFilter) ([]*models.Article, int64, error)
	Search(ctx context.Context, q, sortBy string, limit int) ([]*models.Article, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*models.Article, error)
	RecentByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Article, error)
	DashboardStats(ctx context.Context, authorID uuid.UUID) (models.DashboardStats, error)
	LikedBy(ctx context.Context, userID uuid.UUID) ([]*models.Article, error)
	TrendingTopics(ctx context.Context, limit int) ([]models.TopicCount, error)
}

type articleRepository struct {
	db      *gorm.DB
	log     *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewArticleRepository returns a gorm-backed ArticleRepository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{
		db:      db,
		log:     observability.NewRepoLogger("articles"),
		metrics: observability.NewDatabaseMetrics("articles"),
	}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	defer r.metrics.TrackQuery("create")()
	if err := article.CheckPublication(); err != nil {
		return models.NewValidationError(err.Error())
	}
	if article.Version == 0 {
		article.Version = 1
	}
	if err := r.db.WithContext(ctx).Omit("Author").Create(article).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": article.ID.String(), "published": article.Published})
	cache.InvalidateFeeds(ctx)
	return nil
}

// Update writes the editable columns of article and returns the stored row.
func (r *articleRepository) Update(ctx context.Context, article *models.Article) (*models.Article, error) {
	defer r.metrics.TrackQuery("update")()
	if err := article.CheckPublication(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	cols := bump(map[string]interface{}{
		"title":        article.Title,
		"slug":         article.Slug,
		"content":      article.Content,
		"excerpt":      article.Excerpt,
		"cover_image":  article.CoverImage,
		"tags":         article.Tags,
		"reading_time": article.ReadingTime,
		"published":    article.Published,
		"published_at": article.PublishedAt,
	})

	var updated models.Article
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Article{}).Where("id = ?", article.ID).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return withAuthor(tx).First(&updated, "id = ?", article.ID).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return nil, notFoundOr(err, "Article", article.ID)
	}

	r.retire(ctx, updated.ID, updated.Version)
	r.log.LogUpdate(ctx, map[string]interface{}{"id": updated.ID.String(), "version": updated.Version})
	return models.NormalizeArticle(&updated), nil
}

func (r *articleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []interface{}{&models.ArticleLike{}, &models.Comment{}} {
			if err := tx.Where("article_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Article{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Article", id)
	}
	cache.Invalidate(ctx, cache.ArticleKey(id))
	cache.InvalidateFeeds(ctx)
	r.log.LogDelete(ctx, map[string]interface{}{"id": id.String()})
	return nil
}

func (r *articleRepository) retire(ctx context.Context, id uuid.UUID, version int64) {
	_ = cache.Retire(ctx, cache.ArticleKey(id), version, cache.ArticleTTL)
	cache.InvalidateFeeds(ctx)
}

// GetByID returns an article of any state. Results are cached by version.
func (r *articleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	key := cache.ArticleKey(id)
	var article models.Article
	if hit, err := cache.LoadVersioned(ctx, key, &article); err == nil && hit {
		return models.NormalizeArticle(&article), nil
	}

	ctx, span := observability.TraceRepositoryMethod(ctx, "articles", "GetByID")
	defer span.End()
	if err := withAuthor(readDB(r.db).WithContext(ctx)).First(&article, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "Article", id)
	}
	models.NormalizeArticle(&article)
	_, _ = cache.StoreVersioned(ctx, key, article.Version, &article, cache.ArticleTTL)
	return &article, nil
}

// GetPublishedBySlug returns the most recently published article with slug.
func (r *articleRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var article models.Article
	err := withAuthor(published(r.db.WithContext(ctx))).
		Where("slug = ?", slug).
		Order("published_at DESC").
		First(&article).Error
	if err != nil {
		return nil, notFoundOr(err, "Article", slug)
	}
	return models.NormalizeArticle(&article), nil
}

// IncrementViews adds one view in a single statement, so concurrent readers
// never lose an increment.
func (r *articleRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Article{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"view_count": gorm.Expr("view_count + ?", 1),
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Article", id)
	}
	observability.ArticleViews.Inc()
	cache.Invalidate(ctx, cache.ArticleKey(id))
	return nil
}

func (r *articleRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*models.Article, error) {
	var articles []*models.Article
	if err := scope(withAuthor(readDB(r.db).WithContext(ctx))).Find(&articles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return models.NormalizeArticles(articles), nil
}

func (r *articleRepository) Featured(ctx context.Context, limit int) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return published(db).Where("featured = ?", true).
			Order("published_at DESC").Limit(clampLimit(limit, 3, 50))
	})
}

func (r *articleRepository) Recent(ctx context.Context, limit int) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return published(db).Order("published_at DESC").Limit(clampLimit(limit, 6, 50))
	})
}

func (r *articleRepository) Trending(ctx context.Context, limit int) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return published(db).Order("view_count DESC").Order("published_at DESC").
			Limit(clampLimit(limit, 4, 50))
	})
}

func discoverOrder(db *gorm.DB, sortBy string) *gorm.DB {
	switch sortBy {
	case SortPopular:
		return db.Order("likes_count DESC").Order("published_at DESC")
	case SortTrending:
		return db.Order("view_count DESC").Order("published_at DESC")
	default:
		return db.Order("published_at DESC")
	}
}

// Discover lists published articles matching an optional query and tag.
func (r *articleRepository) Discover(ctx context.Context, f DiscoverFilter) ([]*models.Article, int64, error) {
	limit := clampLimit(f.Limit, 12, 50)
	page := f.Page
	if page < 1 {
		page = 1
	}

	base := published(readDB(r.db).WithContext(ctx).Model(&models.Article{}))
	if f.Query != "" {
		pattern := containsPattern(f.Query)
		authors := r.db.Model(&models.Profile{}).Select("id").
			Where("LOWER(display_name) LIKE ?"+escapeClause+" OR LOWER(username) LIKE ?"+escapeClause, pattern, pattern)
		base = base.Where(
			"LOWER(articles.title) LIKE ?"+escapeClause+
				" OR LOWER(articles.excerpt) LIKE ?"+escapeClause+
				" OR articles.author_id IN (?)",
			pattern, pattern, authors)
	}
	if f.Tag != "" {
		base = base.Where("articles.tags LIKE ?"+escapeClause, tagPattern(f.Tag))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var articles []*models.Article
	err := discoverOrder(withAuthor(base.Session(&gorm.Session{})), f.Sort).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return models.NormalizeArticles(articles), total, nil
}

// Search matches title or excerpt by case-insensitive substring, or a tag equal to q.
func (r *articleRepository) Search(ctx context.Context, q, sortBy string, limit int) ([]*models.Article, error) {
	pattern := containsPattern(q)
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		db = published(db).Where(
			"LOWER(articles.title) LIKE ?"+escapeClause+
				" OR LOWER(articles.excerpt) LIKE ?"+escapeClause+
				" OR articles.tags LIKE ?"+escapeClause,
			pattern, pattern, tagPattern(q))
		switch sortBy {
		case SortDate:
			db = db.Order("published_at DESC")
		case SortPopularity:
			db = db.Order("view_count DESC")
		default:
			db = db.Order("created_at DESC")
		}
		return db.Limit(clampLimit(limit, 20, 50))
	})
}

func (r *articleRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDrafts bool) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("author_id = ?", authorID)
		if !includeDrafts {
			return published(db).Order("published_at DESC")
		}
		return db.Order("created_at DESC")
	})
}

func (r *articleRepository) RecentByAuthor(ctx context.Context, authorID uuid.UUID, limit int) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("author_id = ?", authorID).Order("created_at DESC").Limit(clampLimit(limit, 5, 50))
	})
}

func (r *articleRepository) DashboardStats(ctx context.Context, authorID uuid.UUID) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := readDB(r.db).WithContext(ctx).Model(&models.Article{}).
		Select(`COUNT(*) AS articles,
			COALESCE(SUM(CASE WHEN published THEN 1 ELSE 0 END), 0) AS published,
			COALESCE(SUM(CASE WHEN published THEN 0 ELSE 1 END), 0) AS drafts,
			COALESCE(SUM(view_count), 0) AS views,
			COALESCE(SUM(likes_count), 0) AS likes,
			COALESCE(SUM(comments_count), 0) AS comments`).
		Where("author_id = ?", authorID).
		Scan(&stats).Error
	if err != nil {
		return stats, models.NewInternalError(err)
	}
	return stats, nil
}

// LikedBy lists published articles liked by userID, newest like first.
func (r *articleRepository) LikedBy(ctx context.Context, userID uuid.UUID) ([]*models.Article, error) {
	return r.list(ctx, func(db *gorm.DB) *gorm.DB {
		return published(db).
			Joins("JOIN article_likes ON article_likes.article_id = articles.id").
			Where("article_likes.user_id = ?", userID).
			Order("article_likes.created_at DESC")
	})
}

// TrendingTopics counts tags across published articles. Tags are stored as
// JSON text on both drivers, so the tally happens here.
func (r *articleRepository) TrendingTopics(ctx context.Context, limit int) ([]models.TopicCount, error) {
	var lists []models.StringList
	err := published(readDB(r.db).WithContext(ctx).Model(&models.Article{})).
		Pluck("tags", &lists).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := map[string]int64{}
	for _, tags := range lists {
		for _, tag := range tags {
			counts[tag]++
		}
	}
	topics := make([]models.TopicCount, 0, len(counts))
	for tag, n := range counts {
		topics = append(topics, models.TopicCount{Tag: tag, Count: n})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Tag < topics[j].Tag
	})
	if n := clampLimit(limit, 8, 50); len(topics) > n {
		topics = topics[:n]
	}
	return topics, nil
}
