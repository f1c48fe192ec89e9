package service

import (
	"context"
	"strings"
	"time"

	"livaulislam/internal/cache"
	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"
	"livaulislam/internal/repository"
	"livaulislam/internal/studio"
	"livaulislam/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	homeFeaturedLimit = 3
	homeRecentLimit   = 6
	homeTrendingLimit = 4
	dashboardRecent   = 5
	searchArticles    = 20
	searchProfiles    = 10
)

type ArticleService struct {
	articles    repository.ArticleRepository
	profiles    repository.ProfileRepository
	comments    repository.CommentRepository
	engagements repository.EngagementRepository
	now         func() time.Time
}

// SaveInput is the writing studio form. A nil ID creates a new article.
type SaveInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Title      string     `json:"title" validate:"required,max=300"`
	Content    string     `json:"content" validate:"required,max=200000"`
	Excerpt    string     `json:"excerpt" validate:"max=1000"`
	CoverImage string     `json:"cover_image" validate:"omitempty,max=2048"`
	Tags       []string   `json:"tags"`
	Publish    bool       `json:"publish"`
}

func NewArticleService(
	articles repository.ArticleRepository,
	profiles repository.ProfileRepository,
	comments repository.CommentRepository,
	engagements repository.EngagementRepository,
) *ArticleService {
	return &ArticleService{
		articles:    articles,
		profiles:    profiles,
		comments:    comments,
		engagements: engagements,
		now:         time.Now,
	}
}

// Save creates or updates an article owned by authorID.
func (s *ArticleService) Save(ctx context.Context, authorID uuid.UUID, in SaveInput) (_ *models.Article, err error) {
	ctx, end := observability.StartSpan(ctx, "service.articles.save",
		attribute.Bool("create", in.ID == nil), attribute.Bool("publish", in.Publish))
	defer func() { end(&err) }()

	if authorID == uuid.Nil {
		return nil, models.NewAuthError(models.CodeNotAuthenticated, "Not authenticated")
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if distinctTags(in.Tags) > studio.MaxTags {
		return nil, models.NewFieldValidationError("Invalid input",
			map[string]string{"tags": "must contain at most 5 tags"})
	}
	slug := studio.GenerateSlug(in.Title)
	if slug == "" {
		return nil, models.NewFieldValidationError("Invalid input",
			map[string]string{"title": "must contain at least one letter or number"})
	}

	excerpt := in.Excerpt
	if excerpt == "" {
		excerpt = studio.DeriveExcerpt(in.Content)
	}

	if in.ID == nil {
		article := &models.Article{
			Title:       in.Title,
			Slug:        slug,
			Content:     in.Content,
			Excerpt:     excerpt,
			CoverImage:  in.CoverImage,
			AuthorID:    authorID,
			Tags:        models.StringList(studio.NewTags(in.Tags).Strings()),
			ReadingTime: studio.ReadingTime(in.Content),
			Version:     1,
		}
		s.applyPublication(article, in.Publish)
		if err := s.articles.Create(ctx, article); err != nil {
			return nil, err
		}
		if created, err := s.articles.GetByID(ctx, article.ID); err == nil {
			return created, nil
		}
		return models.NormalizeArticle(article), nil
	}

	existing, err := s.articles.GetByID(ctx, *in.ID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != authorID {
		return nil, models.NewForbiddenError("You can only edit your own articles")
	}
	existing.Title = in.Title
	existing.Slug = slug
	existing.Content = in.Content
	existing.Excerpt = excerpt
	existing.CoverImage = in.CoverImage
	existing.Tags = models.StringList(studio.NewTags(in.Tags).Strings())
	existing.ReadingTime = studio.ReadingTime(in.Content)
	s.applyPublication(existing, in.Publish)
	return s.articles.Update(ctx, existing)
}

// applyPublication keeps published_at fixed at first publish and clears it
// when the article goes back to draft.
func (s *ArticleService) applyPublication(a *models.Article, publish bool) {
	if !publish {
		a.Published = false
		a.PublishedAt = nil
		return
	}
	a.Published = true
	if a.PublishedAt == nil {
		now := s.now().UTC()
		a.PublishedAt = &now
	}
}

func distinctTags(raw []string) int {
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		if tag = strings.TrimSpace(tag); tag != "" {
			seen[tag] = struct{}{}
		}
	}
	return len(seen)
}

// GetForEdit returns an article of any state to its author.
func (s *ArticleService) GetForEdit(ctx context.Context, userID, id uuid.UUID) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != userID {
		return nil, models.NewForbiddenError("You can only edit your own articles")
	}
	return article, nil
}

func (s *ArticleService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if article.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own articles")
	}
	return s.articles.Delete(ctx, id)
}

// Detail loads the latest published article for slug, counts the view and
// attaches comments. viewer may be uuid.Nil.
func (s *ArticleService) Detail(ctx context.Context, slug string, viewer uuid.UUID) (*models.ArticleDetail, error) {
	article, err := s.articles.GetPublishedBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if err := s.articles.IncrementViews(ctx, article.ID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to count article view",
			"article_id", article.ID.String(), "error", err)
	} else {
		article.ViewCount++
		article.Version++
	}

	comments, err := s.comments.ListByArticle(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	if viewer != uuid.Nil {
		liked, err := s.engagements.IsLiked(ctx, viewer, article.ID)
		if err != nil {
			return nil, err
		}
		article.Liked = liked
	}
	return &models.ArticleDetail{Article: article, Comments: comments}, nil
}

// Home returns the landing page lists, cached briefly.
func (s *ArticleService) Home(ctx context.Context) (*models.HomeFeed, error) {
	var feed models.HomeFeed
	err := cache.Aside(ctx, cache.HomeFeedKey, &feed, cache.HomeFeedTTL, func() error {
		var err error
		if feed.Featured, err = s.articles.Featured(ctx, homeFeaturedLimit); err != nil {
			return err
		}
		if feed.Recent, err = s.articles.Recent(ctx, homeRecentLimit); err != nil {
			return err
		}
		feed.Trending, err = s.articles.Trending(ctx, homeTrendingLimit)
		return err
	})
	if err != nil {
		return nil, err
	}
	feed.Featured = models.NormalizeArticles(feed.Featured)
	feed.Recent = models.NormalizeArticles(feed.Recent)
	feed.Trending = models.NormalizeArticles(feed.Trending)
	return &feed, nil
}

func (s *ArticleService) Discover(ctx context.Context, filter repository.DiscoverFilter) (*models.Page, error) {
	switch filter.Sort {
	case "", repository.SortLatest, repository.SortPopular, repository.SortTrending:
	default:
		return nil, models.NewValidationError("sort must be one of: latest popular trending")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 50 {
		filter.Limit = 12
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Tag = strings.TrimSpace(filter.Tag)

	articles, total, err := s.articles.Discover(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.Page{Articles: articles, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Search matches articles and profiles. An empty query returns empty results.
func (s *ArticleService) Search(ctx context.Context, q, sortBy string) (*models.SearchResults, error) {
	q = strings.TrimSpace(q)
	results := &models.SearchResults{Query: q, Articles: []*models.Article{}, Profiles: []*models.Profile{}}
	if q == "" {
		return results, nil
	}
	switch sortBy {
	case "":
		sortBy = repository.SortRelevance
	case repository.SortRelevance, repository.SortDate, repository.SortPopularity:
	default:
		return nil, models.NewValidationError("sort must be one of: relevance date popularity")
	}

	articles, err := s.articles.Search(ctx, q, sortBy, searchArticles)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.Search(ctx, q, searchProfiles)
	if err != nil {
		return nil, err
	}
	results.Articles = articles
	results.Profiles = profiles
	return results, nil
}

func (s *ArticleService) Dashboard(ctx context.Context, userID uuid.UUID) (*models.Dashboard, error) {
	stats, err := s.articles.DashboardStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.articles.RecentByAuthor(ctx, userID, dashboardRecent)
	if err != nil {
		return nil, err
	}
	return &models.Dashboard{Stats: stats, Recent: recent}, nil
}

func (s *ArticleService) Liked(ctx context.Context, userID uuid.UUID) ([]*models.Article, error) {
	articles, err := s.articles.LikedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		a.Liked = true
	}
	return articles, nil
}
