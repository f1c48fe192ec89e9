package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"livaulislam/internal/config"
	"livaulislam/internal/models"
	"livaulislam/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret = "test-secret-key-12345678901234567890123456789012"
	testAPIKey = "anon-test-key"
)

type testAPI struct {
	t   *testing.T
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db := testutil.NewSQLiteDB(t)
	mr, rdb := testutil.NewRedis(t)
	cfg := &config.Config{
		JWTSecret:    testSecret,
		APIKey:       testAPIKey,
		Env:          "test",
		FeatureFlags: "engagement_notifications=on,suggested_users=on",
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testAPI{t: t, srv: srv, app: srv.NewApp(), db: db, mr: mr}
}

// do sends a JSON request carrying the API key and, when set, a bearer token.
func (a *testAPI) do(method, path, token string, body interface{}) *http.Response {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("apikey", testAPIKey)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func (a *testAPI) signUp(username string) *models.AuthResult {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":    username + "@example.com",
		"password": "correct-horse",
		"username": username,
	})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	var result models.AuthResult
	decode(a.t, resp, &result)
	require.NotNil(a.t, result.Session)
	return &result
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body models.ErrorResponse
	decode(t, resp, &body)
	return body.Code
}
