package models

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeArticle_MissingAuthor(t *testing.T) {
	a := NormalizeArticle(&Article{Title: "orphan"})

	require.NotNil(t, a.Author)
	assert.Equal(t, "unknown", a.Author.Username)
	assert.Equal(t, "Unknown Author", a.Author.DisplayName)
	assert.Equal(t, "", a.Author.AvatarURL)
	assert.NotNil(t, a.Tags)
}

func TestNormalizeArticle_KeepsAuthor(t *testing.T) {
	author := &Profile{Username: "ada", DisplayName: "Ada"}
	a := NormalizeArticle(&Article{Author: author})
	assert.Same(t, author, a.Author)
}

func TestNormalizeArticles_DropsNil(t *testing.T) {
	out := NormalizeArticles([]*Article{nil, {Title: "a"}, nil})
	require.Len(t, out, 1)
	assert.Equal(t, "unknown", out[0].Author.Username)
}

func TestNormalizeComments(t *testing.T) {
	out := NormalizeComments([]*Comment{{Content: "hi"}})
	assert.Equal(t, UnknownAuthorDisplayName, out[0].Author.DisplayName)
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"go", "web"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["go","web"]`, v)

	var nilList StringList
	v, err = nilList.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan("{not json"))
}

func TestArticle_CheckPublication(t *testing.T) {
	now := time.Now()
	assert.NoError(t, (&Article{}).CheckPublication())
	assert.NoError(t, (&Article{Published: true, PublishedAt: &now}).CheckPublication())
	assert.ErrorIs(t, (&Article{Published: true}).CheckPublication(), ErrPublishedAtMismatch)
	assert.ErrorIs(t, (&Article{PublishedAt: &now}).CheckPublication(), ErrPublishedAtMismatch)
}

func TestProfileUpdate_Columns(t *testing.T) {
	bio := "writer"
	empty := ""
	cols := ProfileUpdate{Bio: &bio, Website: &empty}.Columns()
	assert.Equal(t, map[string]interface{}{"bio": "writer", "website": ""}, cols)
}

func TestAppError_StatusAndFamily(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		auth   bool
	}{
		{NewAuthError(CodeUsernameTaken, "taken"), http.StatusConflict, true},
		{NewAuthError(CodeUserNotFound, "missing"), http.StatusNotFound, true},
		{NewAuthError(CodeInvalidCredentials, "bad"), http.StatusUnauthorized, true},
		{NewValidationError("bad"), http.StatusBadRequest, false},
		{NewNotFoundError("Article", "x"), http.StatusNotFound, false},
		{NewForbiddenError("no"), http.StatusForbidden, false},
		{NewInternalError(errors.New("boom")), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.Status(), tt.err.Code)
		assert.Equal(t, tt.auth, tt.err.IsAuth(), tt.err.Code)
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewValidationError("Title is required")
	wrapped := errors.Join(errors.New("context"), base)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
