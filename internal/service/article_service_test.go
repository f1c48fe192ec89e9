package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"livaulislam/internal/models"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleFixture() (*ArticleService, *articleRepoStub, *profileRepoStub, *commentRepoStub, *engagementRepoStub) {
	articles := &articleRepoStub{}
	profiles := &profileRepoStub{}
	comments := &commentRepoStub{}
	engagements := &engagementRepoStub{}
	svc := NewArticleService(articles, profiles, comments, engagements)
	return svc, articles, profiles, comments, engagements
}

func TestArticleService_Save_Validation(t *testing.T) {
	t.Parallel()

	author := uuid.New()
	tests := []struct {
		name string
		in   SaveInput
	}{
		{"missing title", SaveInput{Content: "<p>body</p>"}},
		{"whitespace title", SaveInput{Title: "   ", Content: "<p>body</p>"}},
		{"missing content", SaveInput{Title: "Hello"}},
		{"whitespace content", SaveInput{Title: "Hello", Content: "  \n "}},
		{"title too long", SaveInput{Title: strings.Repeat("x", 301), Content: "body"}},
		{"title without slug characters", SaveInput{Title: "!!!", Content: "body"}},
		{"six distinct tags", SaveInput{Title: "Hello", Content: "body", Tags: []string{"a", "b", "c", "d", "e", "f"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _, _, _, _ := newArticleFixture()
			_, err := svc.Save(context.Background(), author, tt.in)
			assertValidationError(t, err)
		})
	}

	t.Run("requires a session", func(t *testing.T) {
		t.Parallel()
		svc, _, _, _, _ := newArticleFixture()
		_, err := svc.Save(context.Background(), uuid.Nil, SaveInput{Title: "Hello", Content: "body"})
		assertAppError(t, err, models.CodeNotAuthenticated)
	})
}

func TestArticleService_Save_NewDraftDerivesFields(t *testing.T) {
	t.Parallel()

	svc, articles, _, _, _ := newArticleFixture()
	author := uuid.New()
	var created *models.Article
	articles.createFn = func(_ context.Context, a *models.Article) error {
		a.ID = uuid.New()
		created = a
		return nil
	}

	content := "<p>" + strings.Repeat("word ", 401) + "</p>"
	got, err := svc.Save(context.Background(), author, SaveInput{
		Title:   "  My Cool, Title!  ",
		Content: content,
		Tags:    []string{"go", " go ", "web", ""},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "my-cool-title", got.Slug)
	assert.Equal(t, "My Cool, Title!", got.Title)
	assert.Equal(t, 3, got.ReadingTime, "401 words is ceil(401/200) minutes")
	assert.True(t, strings.HasSuffix(got.Excerpt, "..."))
	assert.Equal(t, models.StringList{"go", "web"}, got.Tags)
	assert.False(t, got.Published)
	assert.Nil(t, got.PublishedAt)
	assert.Equal(t, author, got.AuthorID)
	require.NotNil(t, got.Author, "fallback author is applied")
}

func TestArticleService_Save_PublishTimestamps(t *testing.T) {
	t.Parallel()

	author := uuid.New()
	id := uuid.New()
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("first publish sets published_at", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		svc.now = func() time.Time { return first }
		articles.getByIDFn = func(context.Context, uuid.UUID) (*models.Article, error) {
			return &models.Article{ID: id, AuthorID: author, Title: "Old"}, nil
		}
		got, err := svc.Save(context.Background(), author, SaveInput{ID: &id, Title: "New", Content: "body", Publish: true})
		require.NoError(t, err)
		assert.True(t, got.Published)
		require.NotNil(t, got.PublishedAt)
		assert.Equal(t, first, *got.PublishedAt)
	})

	t.Run("republish keeps the original timestamp", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		svc.now = func() time.Time { return first.Add(48 * time.Hour) }
		published := first
		articles.getByIDFn = func(context.Context, uuid.UUID) (*models.Article, error) {
			return &models.Article{ID: id, AuthorID: author, Published: true, PublishedAt: &published}, nil
		}
		got, err := svc.Save(context.Background(), author, SaveInput{ID: &id, Title: "Edited", Content: "body", Publish: true})
		require.NoError(t, err)
		require.NotNil(t, got.PublishedAt)
		assert.Equal(t, first, *got.PublishedAt)
		assert.Equal(t, "edited", got.Slug)
	})

	t.Run("saving a published article as draft unpublishes it", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		published := first
		articles.getByIDFn = func(context.Context, uuid.UUID) (*models.Article, error) {
			return &models.Article{ID: id, AuthorID: author, Published: true, PublishedAt: &published}, nil
		}
		got, err := svc.Save(context.Background(), author, SaveInput{ID: &id, Title: "Edited", Content: "body"})
		require.NoError(t, err)
		assert.False(t, got.Published)
		assert.Nil(t, got.PublishedAt)
		assert.NoError(t, got.CheckPublication())
	})

	t.Run("only the author may update", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		articles.getByIDFn = func(context.Context, uuid.UUID) (*models.Article, error) {
			return &models.Article{ID: id, AuthorID: uuid.New()}, nil
		}
		articles.updateFn = func(context.Context, *models.Article) (*models.Article, error) {
			t.Fatal("update must not be called")
			return nil, nil
		}
		_, err := svc.Save(context.Background(), author, SaveInput{ID: &id, Title: "x", Content: "body"})
		assertAppError(t, err, models.CodeForbidden)
	})
}

func TestArticleService_DeleteAndEditOwnership(t *testing.T) {
	t.Parallel()

	svc, articles, _, _, _ := newArticleFixture()
	owner := uuid.New()
	id := uuid.New()
	articles.getByIDFn = func(context.Context, uuid.UUID) (*models.Article, error) {
		return &models.Article{ID: id, AuthorID: owner}, nil
	}
	var deleted uuid.UUID
	articles.deleteFn = func(_ context.Context, got uuid.UUID) error {
		deleted = got
		return nil
	}

	_, err := svc.GetForEdit(context.Background(), uuid.New(), id)
	assertAppError(t, err, models.CodeForbidden)
	assertAppError(t, svc.Delete(context.Background(), uuid.New(), id), models.CodeForbidden)
	assert.Equal(t, uuid.Nil, deleted)

	got, err := svc.GetForEdit(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	require.NoError(t, svc.Delete(context.Background(), owner, id))
	assert.Equal(t, id, deleted)
}

func TestArticleService_Detail(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	viewer := uuid.New()
	load := func(context.Context, string) (*models.Article, error) {
		return models.NormalizeArticle(&models.Article{ID: id, Slug: "hello", ViewCount: 4, Version: 2}), nil
	}

	t.Run("counts the view and reports liked", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, comments, engagements := newArticleFixture()
		articles.getPublishedBySlugFn = load
		var incremented uuid.UUID
		articles.incrementViewsFn = func(_ context.Context, got uuid.UUID) error {
			incremented = got
			return nil
		}
		comments.listByArticleFn = func(context.Context, uuid.UUID) ([]*models.Comment, error) {
			return []*models.Comment{{Content: "nice"}}, nil
		}
		engagements.isLikedFn = func(_ context.Context, u, a uuid.UUID) (bool, error) {
			return u == viewer && a == id, nil
		}

		detail, err := svc.Detail(context.Background(), "hello", viewer)
		require.NoError(t, err)
		assert.Equal(t, id, incremented)
		assert.Equal(t, int64(5), detail.Article.ViewCount)
		assert.True(t, detail.Article.Liked)
		assert.Len(t, detail.Comments, 1)
	})

	t.Run("view count failure does not fail the page", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		articles.getPublishedBySlugFn = load
		articles.incrementViewsFn = func(context.Context, uuid.UUID) error { return errors.New("db busy") }

		detail, err := svc.Detail(context.Background(), "hello", uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), detail.Article.ViewCount)
		assert.False(t, detail.Article.Liked)
	})

	t.Run("missing slug", func(t *testing.T) {
		t.Parallel()
		svc, articles, _, _, _ := newArticleFixture()
		articles.getPublishedBySlugFn = func(_ context.Context, slug string) (*models.Article, error) {
			return nil, models.NewNotFoundError("Article", slug)
		}
		_, err := svc.Detail(context.Background(), "nope", uuid.Nil)
		assertAppError(t, err, models.CodeNotFound)
	})
}

func TestArticleService_HomeUsesListLimits(t *testing.T) {
	t.Parallel()

	svc, articles, _, _, _ := newArticleFixture()
	var limits []int
	articles.listFn = func(_ context.Context, limit int) ([]*models.Article, error) {
		limits = append(limits, limit)
		return []*models.Article{{ID: uuid.New()}}, nil
	}

	feed, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 6, 4}, limits)
	require.Len(t, feed.Featured, 1)
	assert.Equal(t, models.UnknownAuthorUsername, feed.Featured[0].Author.Username)
}

func TestArticleService_DiscoverDefaults(t *testing.T) {
	t.Parallel()

	svc, articles, _, _, _ := newArticleFixture()
	var got repository.DiscoverFilter
	articles.discoverFn = func(_ context.Context, f repository.DiscoverFilter) ([]*models.Article, int64, error) {
		got = f
		return []*models.Article{}, 0, nil
	}

	page, err := svc.Discover(context.Background(), repository.DiscoverFilter{Query: "  go ", Page: -1, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "go", got.Query)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 12, page.Limit)

	_, err = svc.Discover(context.Background(), repository.DiscoverFilter{Sort: "random"})
	assertValidationError(t, err)
}

func TestArticleService_Search(t *testing.T) {
	t.Parallel()

	svc, articles, profiles, _, _ := newArticleFixture()
	var sortBy string
	var articleLimit, profileLimit int
	articles.searchFn = func(_ context.Context, q, s string, limit int) ([]*models.Article, error) {
		sortBy, articleLimit = s, limit
		return []*models.Article{{Title: "Go"}}, nil
	}
	profiles.searchFn = func(_ context.Context, q string, limit int) ([]*models.Profile, error) {
		profileLimit = limit
		return []*models.Profile{{Username: "gopher"}}, nil
	}

	res, err := svc.Search(context.Background(), "  go ", "")
	require.NoError(t, err)
	assert.Equal(t, "go", res.Query)
	assert.Equal(t, repository.SortRelevance, sortBy)
	assert.Equal(t, 20, articleLimit)
	assert.Equal(t, 10, profileLimit)
	assert.Len(t, res.Articles, 1)
	assert.Len(t, res.Profiles, 1)

	empty, err := svc.Search(context.Background(), "   ", "")
	require.NoError(t, err)
	assert.Empty(t, empty.Articles)
	assert.Empty(t, empty.Profiles)

	_, err = svc.Search(context.Background(), "go", "random")
	assertValidationError(t, err)
}

func TestArticleService_LikedMarksArticles(t *testing.T) {
	t.Parallel()

	svc, articles, _, _, _ := newArticleFixture()
	articles.likedByFn = func(context.Context, uuid.UUID) ([]*models.Article, error) {
		return []*models.Article{{ID: uuid.New()}, {ID: uuid.New()}}, nil
	}
	liked, err := svc.Liked(context.Background(), uuid.New())
	require.NoError(t, err)
	for _, a := range liked {
		assert.True(t, a.Liked)
	}
}
