package client

import (
	"context"
	"net/http"
	"testing"

	"livaulislam/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInEngagement(t *testing.T, f *fakeService, userID uuid.UUID) (*Engagement, *Client) {
	t.Helper()
	f.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthResult{Session: testSession(userID, "tok")})
	})
	c := f.client(t)
	store := NewSessionStore(c, nil)
	_, err := store.SignIn(context.Background(), "reader", "pw")
	require.NoError(t, err)
	return NewEngagement(c, store), c
}

func TestEngagement_RequiresSession(t *testing.T) {
	f := newFakeService(t)
	c := f.client(t)
	e := NewEngagement(c, NewSessionStore(c, nil))

	_, err := e.ToggleLike(context.Background(), uuid.New())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.CodeNotAuthenticated, authErr.Code)

	_, err = e.ToggleFollow(context.Background(), uuid.New())
	require.ErrorAs(t, err, &authErr)
}

func TestEngagement_ToggleLikeCommitsAfterConfirmation(t *testing.T) {
	f := newFakeService(t)
	articleID := uuid.New()
	f.HandleFunc("POST /api/articles/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, articleID.String(), r.PathValue("id"))
		writeJSON(w, http.StatusOK, LikeState{ArticleID: articleID, Liked: true, LikesCount: 3, Version: 4})
	})
	f.HandleFunc("DELETE /api/articles/{id}/like", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, LikeState{ArticleID: articleID, Liked: false, LikesCount: 2, Version: 5})
	})
	e, c := signedInEngagement(t, f, uuid.New())
	c.Cache().PutArticle(&Article{ID: articleID, LikesCount: 2, Version: 3})

	state, err := e.ToggleLike(context.Background(), articleID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(3), state.LikesCount)

	state, err = e.ToggleLike(context.Background(), articleID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, int64(2), state.LikesCount)

	cached, _ := c.Cache().Article(articleID)
	assert.False(t, cached.Liked)
	assert.Equal(t, int64(5), cached.Version)
}

func TestEngagement_FailedToggleLeavesStateUnchanged(t *testing.T) {
	f := newFakeService(t)
	articleID := uuid.New()
	f.HandleFunc("POST /api/articles/{id}/like", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "down"})
	})
	e, c := signedInEngagement(t, f, uuid.New())
	c.Cache().PutArticle(&Article{ID: articleID, LikesCount: 7, Version: 2})

	_, err := e.ToggleLike(context.Background(), articleID)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)

	cached, _ := c.Cache().Article(articleID)
	assert.False(t, cached.Liked)
	assert.Equal(t, int64(7), cached.LikesCount)
	assert.Equal(t, int64(2), cached.Version)
	assert.False(t, e.Pending(articleID))
}

func TestEngagement_SecondToggleWhileInFlight(t *testing.T) {
	f := newFakeService(t)
	articleID := uuid.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	requests := make(chan struct{}, 4)
	f.HandleFunc("POST /api/articles/{id}/like", func(w http.ResponseWriter, _ *http.Request) {
		requests <- struct{}{}
		close(entered)
		<-release
		writeJSON(w, http.StatusOK, LikeState{ArticleID: articleID, Liked: true, LikesCount: 1, Version: 2})
	})
	e, _ := signedInEngagement(t, f, uuid.New())

	done := make(chan error, 1)
	go func() {
		_, err := e.ToggleLike(context.Background(), articleID)
		done <- err
	}()
	<-entered

	assert.True(t, e.Pending(articleID))
	_, err := e.ToggleLike(context.Background(), articleID)
	require.ErrorIs(t, err, ErrToggleInFlight)

	// A different subject is not blocked.
	f.HandleFunc("POST /api/profiles/{id}/follow", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, FollowState{Following: true, FollowersCount: 1, Version: 2})
	})
	_, err = e.ToggleFollow(context.Background(), uuid.New())
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, requests, 1)
	assert.False(t, e.Pending(articleID))
}

func TestEngagement_ToggleFollow(t *testing.T) {
	f := newFakeService(t)
	userID, target := uuid.New(), uuid.New()
	f.HandleFunc("POST /api/profiles/{id}/follow", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, FollowState{ProfileID: target, Following: true, FollowersCount: 10, Version: 1})
	})
	e, c := signedInEngagement(t, f, userID)
	c.Cache().PutProfile(&Profile{ID: target, FollowersCount: 4, Version: 6})

	state, err := e.ToggleFollow(context.Background(), target)
	require.NoError(t, err)
	assert.True(t, state.Following)
	// The service's older version loses to the cached row.
	assert.Equal(t, 4, state.FollowersCount)
	assert.Equal(t, int64(6), state.Version)
	assert.True(t, c.Cache().Following(target))

	_, err = e.ToggleFollow(context.Background(), userID)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestEngagement_StaleFlagSettlesOnServiceState(t *testing.T) {
	f := newFakeService(t)
	articleID := uuid.New()
	row := Article{ID: articleID, Slug: "patience", Title: "Patience", LikesCount: 5, Version: 7, Liked: true}
	f.HandleFunc("POST /api/articles/{id}/like", func(w http.ResponseWriter, _ *http.Request) {
		// Already liked from another device: nothing inserted.
		writeJSON(w, http.StatusOK, LikeState{ArticleID: articleID, Liked: true, LikesCount: 5, Version: 7})
	})
	f.HandleFunc("GET /api/articles/slug/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		a := row
		writeJSON(w, http.StatusOK, ArticleDetail{Article: &a})
	})
	e, c := signedInEngagement(t, f, uuid.New())
	c.Cache().PutArticle(&Article{ID: articleID, Slug: "patience", Title: "Patience", LikesCount: 5, Version: 7})

	state, err := e.ToggleLike(context.Background(), articleID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(5), state.LikesCount)
	assert.Equal(t, int64(7), state.Version)

	cached, _ := c.Cache().Article(articleID)
	assert.True(t, cached.Liked)
	assert.Equal(t, int64(5), cached.LikesCount)
	assert.Equal(t, int64(7), cached.Version)

	row.Title, row.Version = "Patience, revised", 8
	detail, err := c.Article(context.Background(), "patience")
	require.NoError(t, err)
	assert.Equal(t, "Patience, revised", detail.Article.Title)

	cached, _ = c.Cache().Article(articleID)
	assert.Equal(t, "Patience, revised", cached.Title)
	assert.Equal(t, int64(8), cached.Version)
	assert.Equal(t, int64(5), cached.LikesCount)
	assert.True(t, cached.Liked)
}
