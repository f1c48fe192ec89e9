package server

import (
	"net/http"
	"strings"
	"testing"

	"livaulislam/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandlers_FollowFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice")
	bob := api.signUp("bob")
	followPath := "/api/profiles/" + alice.Profile.ID.String() + "/follow"

	resp := api.do(http.MethodPost, followPath, bob.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state models.FollowState
	decode(t, resp, &state)
	assert.True(t, state.Following)
	assert.Equal(t, 1, state.FollowersCount)

	resp = api.do(http.MethodGet, "/api/profiles/alice", bob.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.ProfilePage
	decode(t, resp, &page)
	assert.True(t, page.Following)
	assert.False(t, page.IsOwner)
	assert.Equal(t, int64(1), page.Stats.Followers)

	resp = api.do(http.MethodGet, "/api/profiles/alice", alice.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var own models.ProfilePage
	decode(t, resp, &own)
	assert.True(t, own.IsOwner)

	resp = api.do(http.MethodGet, "/api/profiles/Alice", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = api.do(http.MethodPost, "/api/profiles/"+bob.Profile.ID.String()+"/follow", bob.Session.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(http.MethodDelete, followPath, bob.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &state)
	assert.False(t, state.Following)
	assert.Equal(t, 0, state.FollowersCount)

	resp = api.do(http.MethodGet, "/api/me/notifications", alice.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var inbox models.NotificationInbox
	decode(t, resp, &inbox)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, "bob started following you", inbox.Notifications[0].Message)
	assert.Equal(t, int64(1), inbox.Unread)
}

func TestProfileHandlers_UpdateMyProfile(t *testing.T) {
	api := newTestAPI(t)
	dana := api.signUp("dana")
	token := dana.Session.AccessToken

	resp := api.do(http.MethodPut, "/api/me/profile", token, fiber.Map{
		"display_name": "Dana W.",
		"bio":          "Writes about patience.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Profile
	decode(t, resp, &updated)
	assert.Equal(t, "Dana W.", updated.DisplayName)
	assert.Equal(t, "Writes about patience.", updated.Bio)
	assert.Greater(t, updated.Version, dana.Profile.Version)
	assert.False(t, updated.UpdatedAt.Before(dana.Profile.UpdatedAt))

	resp = api.do(http.MethodPut, "/api/me/profile", token, fiber.Map{"bio": strings.Repeat("b", 501)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Contains(t, body.Fields, "bio")

	resp = api.do(http.MethodPut, "/api/me/profile", "", fiber.Map{"bio": "anon"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(http.MethodGet, "/api/me/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine models.Profile
	decode(t, resp, &mine)
	assert.Equal(t, "Dana W.", mine.DisplayName)
}

func TestCommentHandlers(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice")
	bob := api.signUp("bob")
	article := api.createArticle(alice.Session.AccessToken, "On Listening", true)
	path := "/api/articles/" + article.ID.String() + "/comments"

	resp := api.do(http.MethodPost, path, bob.Session.AccessToken, fiber.Map{"content": "  Beautiful.  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)
	assert.Equal(t, "Beautiful.", comment.Content)

	resp = api.do(http.MethodPost, path, bob.Session.AccessToken, fiber.Map{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []*models.Comment
	decode(t, resp, &comments)
	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "bob", comments[0].Author.Username)

	draft := api.createArticle(alice.Session.AccessToken, "Unfinished", false)
	draftPath := "/api/articles/" + draft.ID.String()
	for _, token := range []string{"", bob.Session.AccessToken} {
		resp = api.do(http.MethodGet, draftPath+"/comments", token, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	resp = api.do(http.MethodGet, draftPath+"/comments", alice.Session.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = api.do(http.MethodPost, draftPath+"/like", bob.Session.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommunityHandlers(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice")
	api.signUp("bob")
	api.createArticle(alice.Session.AccessToken, "Stillness", true, "faith")

	resp := api.do(http.MethodGet, "/api/community", alice.Session.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var overview models.CommunityOverview
	decode(t, resp, &overview)
	assert.Equal(t, int64(2), overview.Stats.Users)
	assert.Equal(t, int64(1), overview.Stats.Articles)
	require.NotEmpty(t, overview.TrendingTopics)
	assert.Equal(t, "faith", overview.TrendingTopics[0].Tag)
	for _, p := range overview.SuggestedUsers {
		assert.NotEqual(t, alice.Profile.ID, p.ID)
	}

	resp = api.do(http.MethodGet, "/api/about", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var about models.AboutPage
	decode(t, resp, &about)
	assert.Equal(t, "Livaulislam", about.Name)

	resp = api.do(http.MethodGet, "/api/features", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
