package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"livaulislam/internal/models"
	"livaulislam/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accountRepoStub struct {
	createFn         func(context.Context, *models.Account) error
	getByIDFn        func(context.Context, uuid.UUID) (*models.Account, error)
	getByEmailFn     func(context.Context, string) (*models.Account, error)
	updatePasswordFn func(context.Context, uuid.UUID, string) error
}

func (s *accountRepoStub) Create(ctx context.Context, a *models.Account) error {
	if s.createFn == nil {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		return nil
	}
	return s.createFn(ctx, a)
}
func (s *accountRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, id)
}
func (s *accountRepoStub) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}
func (s *accountRepoStub) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	if s.updatePasswordFn == nil {
		return nil
	}
	return s.updatePasswordFn(ctx, id, hash)
}

type profileRepoStub struct {
	upsertFn        func(context.Context, *models.Profile) error
	getByIDFn       func(context.Context, uuid.UUID) (*models.Profile, error)
	getByUsernameFn func(context.Context, string) (*models.Profile, error)
	usernameTakenFn func(context.Context, string) (bool, error)
	updateFn        func(context.Context, uuid.UUID, map[string]interface{}) (*models.Profile, error)
	searchFn        func(context.Context, string, int) ([]*models.Profile, error)
	statsFn         func(context.Context, uuid.UUID) (models.ProfileStats, error)
	suggestedFn     func(context.Context, uuid.UUID, int) ([]*models.Profile, error)
	topAuthorsFn    func(context.Context, int) ([]*models.AuthorSummary, error)
}

func (s *profileRepoStub) Upsert(ctx context.Context, p *models.Profile) error {
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, p)
}
func (s *profileRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("Profile", id)
	}
	return s.getByIDFn(ctx, id)
}
func (s *profileRepoStub) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	if s.getByUsernameFn == nil {
		return nil, models.NewNotFoundError("Profile", username)
	}
	return s.getByUsernameFn(ctx, username)
}
func (s *profileRepoStub) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if s.usernameTakenFn == nil {
		return false, nil
	}
	return s.usernameTakenFn(ctx, username)
}
func (s *profileRepoStub) Update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (*models.Profile, error) {
	return s.updateFn(ctx, id, cols)
}
func (s *profileRepoStub) Search(ctx context.Context, q string, limit int) ([]*models.Profile, error) {
	if s.searchFn == nil {
		return []*models.Profile{}, nil
	}
	return s.searchFn(ctx, q, limit)
}
func (s *profileRepoStub) Stats(ctx context.Context, id uuid.UUID) (models.ProfileStats, error) {
	if s.statsFn == nil {
		return models.ProfileStats{}, nil
	}
	return s.statsFn(ctx, id)
}
func (s *profileRepoStub) Suggested(ctx context.Context, viewer uuid.UUID, limit int) ([]*models.Profile, error) {
	if s.suggestedFn == nil {
		return []*models.Profile{}, nil
	}
	return s.suggestedFn(ctx, viewer, limit)
}
func (s *profileRepoStub) TopAuthors(ctx context.Context, limit int) ([]*models.AuthorSummary, error) {
	if s.topAuthorsFn == nil {
		return []*models.AuthorSummary{}, nil
	}
	return s.topAuthorsFn(ctx, limit)
}

type articleRepoStub struct {
	createFn             func(context.Context, *models.Article) error
	updateFn             func(context.Context, *models.Article) (*models.Article, error)
	deleteFn             func(context.Context, uuid.UUID) error
	getByIDFn            func(context.Context, uuid.UUID) (*models.Article, error)
	getPublishedBySlugFn func(context.Context, string) (*models.Article, error)
	incrementViewsFn     func(context.Context, uuid.UUID) error
	listFn               func(context.Context, int) ([]*models.Article, error)
	discoverFn           func(context.Context, repository.DiscoverFilter) ([]*models.Article, int64, error)
	searchFn             func(context.Context, string, string, int) ([]*models.Article, error)
	listByAuthorFn       func(context.Context, uuid.UUID, bool) ([]*models.Article, error)
	dashboardStatsFn     func(context.Context, uuid.UUID) (models.DashboardStats, error)
	likedByFn            func(context.Context, uuid.UUID) ([]*models.Article, error)
	trendingTopicsFn     func(context.Context, int) ([]models.TopicCount, error)
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article) error {
	if s.createFn == nil {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		return nil
	}
	return s.createFn(ctx, a)
}
func (s *articleRepoStub) Update(ctx context.Context, a *models.Article) (*models.Article, error) {
	if s.updateFn == nil {
		return a, nil
	}
	return s.updateFn(ctx, a)
}
func (s *articleRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, id)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	if s.getByIDFn == nil {
		return nil, models.NewNotFoundError("Article", id)
	}
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.getPublishedBySlugFn(ctx, slug)
}
func (s *articleRepoStub) IncrementViews(ctx context.Context, id uuid.UUID) error {
	if s.incrementViewsFn == nil {
		return nil
	}
	return s.incrementViewsFn(ctx, id)
}
func (s *articleRepoStub) list(ctx context.Context, limit int) ([]*models.Article, error) {
	if s.listFn == nil {
		return []*models.Article{}, nil
	}
	return s.listFn(ctx, limit)
}
func (s *articleRepoStub) Featured(ctx context.Context, limit int) ([]*models.Article, error) {
	return s.list(ctx, limit)
}
func (s *articleRepoStub) Recent(ctx context.Context, limit int) ([]*models.Article, error) {
	return s.list(ctx, limit)
}
func (s *articleRepoStub) Trending(ctx context.Context, limit int) ([]*models.Article, error) {
	return s.list(ctx, limit)
}
func (s *articleRepoStub) Discover(ctx context.Context, f repository.DiscoverFilter) ([]*models.Article, int64, error) {
	if s.discoverFn == nil {
		return []*models.Article{}, 0, nil
	}
	return s.discoverFn(ctx, f)
}
func (s *articleRepoStub) Search(ctx context.Context, q, sortBy string, limit int) ([]*models.Article, error) {
	if s.searchFn == nil {
		return []*models.Article{}, nil
	}
	return s.searchFn(ctx, q, sortBy, limit)
}
func (s *articleRepoStub) ListByAuthor(ctx context.Context, id uuid.UUID, drafts bool) ([]*models.Article, error) {
	if s.listByAuthorFn == nil {
		return []*models.Article{}, nil
	}
	return s.listByAuthorFn(ctx, id, drafts)
}
func (s *articleRepoStub) RecentByAuthor(ctx context.Context, _ uuid.UUID, limit int) ([]*models.Article, error) {
	return s.list(ctx, limit)
}
func (s *articleRepoStub) DashboardStats(ctx context.Context, id uuid.UUID) (models.DashboardStats, error) {
	if s.dashboardStatsFn == nil {
		return models.DashboardStats{}, nil
	}
	return s.dashboardStatsFn(ctx, id)
}
func (s *articleRepoStub) LikedBy(ctx context.Context, id uuid.UUID) ([]*models.Article, error) {
	if s.likedByFn == nil {
		return []*models.Article{}, nil
	}
	return s.likedByFn(ctx, id)
}
func (s *articleRepoStub) TrendingTopics(ctx context.Context, limit int) ([]models.TopicCount, error) {
	if s.trendingTopicsFn == nil {
		return []models.TopicCount{}, nil
	}
	return s.trendingTopicsFn(ctx, limit)
}

type engagementRepoStub struct {
	likeFn        func(context.Context, uuid.UUID, uuid.UUID) (*models.LikeState, bool, error)
	unlikeFn      func(context.Context, uuid.UUID, uuid.UUID) (*models.LikeState, bool, error)
	isLikedFn     func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	followFn      func(context.Context, uuid.UUID, uuid.UUID) (*models.FollowState, bool, error)
	unfollowFn    func(context.Context, uuid.UUID, uuid.UUID) (*models.FollowState, bool, error)
	isFollowingFn func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
}

func (s *engagementRepoStub) Like(ctx context.Context, u, a uuid.UUID) (*models.LikeState, bool, error) {
	return s.likeFn(ctx, u, a)
}
func (s *engagementRepoStub) Unlike(ctx context.Context, u, a uuid.UUID) (*models.LikeState, bool, error) {
	return s.unlikeFn(ctx, u, a)
}
func (s *engagementRepoStub) IsLiked(ctx context.Context, u, a uuid.UUID) (bool, error) {
	if s.isLikedFn == nil {
		return false, nil
	}
	return s.isLikedFn(ctx, u, a)
}
func (s *engagementRepoStub) Follow(ctx context.Context, f, t uuid.UUID) (*models.FollowState, bool, error) {
	return s.followFn(ctx, f, t)
}
func (s *engagementRepoStub) Unfollow(ctx context.Context, f, t uuid.UUID) (*models.FollowState, bool, error) {
	return s.unfollowFn(ctx, f, t)
}
func (s *engagementRepoStub) IsFollowing(ctx context.Context, f, t uuid.UUID) (bool, error) {
	if s.isFollowingFn == nil {
		return false, nil
	}
	return s.isFollowingFn(ctx, f, t)
}

type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment) error
	listByArticleFn func(context.Context, uuid.UUID) ([]*models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	if s.createFn == nil {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		return nil
	}
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) ListByArticle(ctx context.Context, id uuid.UUID) ([]*models.Comment, error) {
	if s.listByArticleFn == nil {
		return []*models.Comment{}, nil
	}
	return s.listByArticleFn(ctx, id)
}

type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listByUserFn  func(context.Context, uuid.UUID, int) ([]*models.Notification, error)
	markReadFn    func(context.Context, uuid.UUID, uuid.UUID) error
	unreadCountFn func(context.Context, uuid.UUID) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, id uuid.UUID, limit int) ([]*models.Notification, error) {
	return s.listByUserFn(ctx, id, limit)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.markReadFn(ctx, userID, id)
}
func (s *notificationRepoStub) UnreadCount(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.unreadCountFn(ctx, id)
}

type communityRepoStub struct {
	statsFn func(context.Context) (models.CommunityStats, error)
}

func (s *communityRepoStub) Stats(ctx context.Context) (models.CommunityStats, error) {
	return s.statsFn(ctx)
}

// revokerStub records revocations in memory.
type revokerStub struct {
	mu        sync.Mutex
	revoked   map[string]time.Duration
	revokeErr error
}

func newRevokerStub() *revokerStub {
	return &revokerStub{revoked: map[string]time.Duration{}}
}

func (r *revokerStub) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if r.revokeErr != nil {
		return r.revokeErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = ttl
	return nil
}

func (r *revokerStub) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

// eventRecorder captures published auth events.
type eventRecorder struct {
	mu     sync.Mutex
	events []models.AuthEvent
	err    error
}

func (r *eventRecorder) PublishAuthEvent(_ context.Context, e models.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// notifierStub captures delivered notifications.
type notifierStub struct {
	mu    sync.Mutex
	notes []*models.Notification
	err   error
}

func (n *notifierStub) Notify(_ context.Context, note *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
	return n.err
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}
