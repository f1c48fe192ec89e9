package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"livaulislam/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraft_TagsAndPreviews(t *testing.T) {
	d := newFakeService(t).client(t).NewDraft()
	d.Title = "Patience, and Gratitude!"
	d.Content = strings.Repeat("word ", 401)

	assert.Equal(t, "patience-and-gratitude", d.Slug())
	assert.Equal(t, 3, d.ReadingTime())
	assert.Equal(t, DraftNew, d.State)

	for _, tag := range []string{"faith", "faith", " ", "a", "b", "c", "d", "overflow"} {
		d.AddTag(tag)
	}
	assert.Equal(t, []string{"faith", "a", "b", "c", "d"}, d.Tags())
	assert.True(t, d.RemoveTag("a"))
	assert.False(t, d.RemoveTag("missing"))
	assert.True(t, d.AddTag("e"))
}

func TestDraft_RequiresTitleAndContent(t *testing.T) {
	f := newFakeService(t)
	f.HandleFunc("POST /api/articles", func(http.ResponseWriter, *http.Request) {
		t.Error("invalid drafts must not be sent")
	})
	d := f.client(t).NewDraft()
	d.Title = "  "

	_, err := d.Publish(context.Background())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "title")
	assert.Contains(t, vErr.Fields, "content")
}

func TestDraft_SaveThenPublish(t *testing.T) {
	f := newFakeService(t)
	id := uuid.New()
	firstPublish := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	f.HandleFunc("POST /api/articles", func(w http.ResponseWriter, r *http.Request) {
		var in SaveArticleInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Nil(t, in.ID)
		assert.False(t, in.Publish)
		assert.Equal(t, []string{"faith"}, in.Tags)
		writeJSON(w, http.StatusCreated, Article{ID: id, Title: in.Title, Content: in.Content, Tags: models.StringList(in.Tags), Version: 1})
	})
	f.HandleFunc("PUT /api/articles/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in SaveArticleInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.NotNil(t, in.ID)
		assert.Equal(t, id.String(), r.PathValue("id"))
		assert.True(t, in.Publish)
		writeJSON(w, http.StatusOK, Article{
			ID: id, Title: in.Title, Content: in.Content, Published: true,
			PublishedAt: &firstPublish, Version: 2,
		})
	})
	c := f.client(t)
	d := c.NewDraft()
	d.Title = "Reflections"
	d.Content = "A short reflection."
	d.AddTag("faith")

	a, err := d.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.False(t, a.Published)
	assert.Equal(t, DraftSaved, d.State)
	require.NotNil(t, d.ID)

	a, err = d.Publish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DraftPublished, d.State)
	assert.Equal(t, firstPublish, *a.PublishedAt)
	assert.Equal(t, "published", d.State.String())

	cached, ok := c.Cache().Article(id)
	require.True(t, ok)
	assert.Equal(t, int64(2), cached.Version)
}

func TestEditDraft(t *testing.T) {
	f := newFakeService(t)
	id := uuid.New()
	f.HandleFunc("GET /api/articles/{id}/edit", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != id.String() {
			writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "not yours", Code: models.CodeForbidden})
			return
		}
		writeJSON(w, http.StatusOK, Article{ID: id, Title: "Mine", Content: "body", Tags: models.StringList{"x"}, Version: 3})
	})
	c := f.client(t)

	d, err := c.EditDraft(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Mine", d.Title)
	assert.Equal(t, []string{"x"}, d.Tags())
	assert.Equal(t, DraftSaved, d.State)

	_, err = c.EditDraft(context.Background(), uuid.New())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}
