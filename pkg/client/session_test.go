package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"livaulislam/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Type    string
	Session *Session
}

type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (l *eventLog) listen(event string, s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, recordedEvent{event, s})
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last() recordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func testSession(userID uuid.UUID, token string) *Session {
	return &Session{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        models.SessionUser{ID: userID, Email: "reader@example.com"},
	}
}

func TestSessionStore_InitWithoutToken(t *testing.T) {
	f := newFakeService(t)
	store := NewSessionStore(f.client(t), nil)
	assert.True(t, store.Loading())

	log := &eventLog{}
	store.Subscribe(log.listen)
	require.NoError(t, store.Init(context.Background()))

	assert.False(t, store.Loading())
	assert.Nil(t, store.Session())
	assert.Nil(t, store.Profile())
	assert.Equal(t, []string{EventInitialSession}, log.types())
	assert.Nil(t, log.last().Session)
}

func TestSessionStore_InitResolvesPersistedToken(t *testing.T) {
	f := newFakeService(t)
	userID := uuid.New()
	f.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "persisted", bearer(r))
		writeJSON(w, http.StatusOK, AuthResult{Session: testSession(userID, "persisted")})
	})
	f.HandleFunc("GET /api/me/profile", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Profile{ID: userID, Username: "reader", Version: 1})
	})

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("persisted"))
	store := NewSessionStore(f.client(t), tokens)
	log := &eventLog{}
	store.Subscribe(log.listen)

	require.NoError(t, store.Init(context.Background()))
	assert.Equal(t, userID, store.UserID())
	require.NotNil(t, store.Profile())
	assert.Equal(t, "reader", store.Profile().Username)
	assert.Equal(t, []string{EventInitialSession}, log.types())
	assert.NotNil(t, log.last().Session)
}

func TestSessionStore_InitClearsRejectedToken(t *testing.T) {
	f := newFakeService(t)
	f.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Token has been revoked", Code: models.CodeUnauthorized})
	})
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("revoked"))
	store := NewSessionStore(f.client(t), tokens)

	require.NoError(t, store.Init(context.Background()))
	assert.Nil(t, store.Session())
	tok, _ := tokens.Load()
	assert.Empty(t, tok)
}

func TestSessionStore_InitKeepsTokenOnNetworkFailure(t *testing.T) {
	f := newFakeService(t)
	f.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "down"})
	})
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save("still-good"))
	store := NewSessionStore(f.client(t), tokens)

	err := store.Init(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.False(t, store.Loading())
	tok, _ := tokens.Load()
	assert.Equal(t, "still-good", tok)
}

func TestSessionStore_SignUp(t *testing.T) {
	t.Run("taken username stops before account creation", func(t *testing.T) {
		f := newFakeService(t)
		f.HandleFunc("GET /api/auth/username-available", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Alice", r.URL.Query().Get("username"))
			writeJSON(w, http.StatusOK, map[string]interface{}{"available": false})
		})
		f.HandleFunc("POST /api/auth/signup", func(http.ResponseWriter, *http.Request) {
			t.Error("signup must not be called")
		})
		store := NewSessionStore(f.client(t), nil)

		_, err := store.SignUp(context.Background(), SignUpInput{Email: "a@x.io", Password: "secret1", Username: " Alice "})
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, models.CodeUsernameTaken, authErr.Code)
		assert.Nil(t, store.Session())
	})

	t.Run("missing fields", func(t *testing.T) {
		store := NewSessionStore(newFakeService(t).client(t), nil)
		_, err := store.SignUp(context.Background(), SignUpInput{Email: "a@x.io"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("creates account and signs in", func(t *testing.T) {
		f := newFakeService(t)
		userID := uuid.New()
		f.HandleFunc("GET /api/auth/username-available", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"available": true})
		})
		f.HandleFunc("POST /api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
			var body SignUpInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "alice", body.Username)
			writeJSON(w, http.StatusCreated, AuthResult{
				Session: testSession(userID, "fresh"),
				Profile: &Profile{ID: userID, Username: "alice", Version: 1},
			})
		})
		tokens := NewMemoryTokenStore()
		store := NewSessionStore(f.client(t), tokens)
		log := &eventLog{}
		store.Subscribe(log.listen)

		s, err := store.SignUp(context.Background(), SignUpInput{Email: "a@x.io", Password: "secret1", Username: "alice"})
		require.NoError(t, err)
		assert.Equal(t, "fresh", s.AccessToken)
		assert.Equal(t, "alice", store.Profile().Username)
		assert.Equal(t, []string{EventSignedIn}, log.types())
		tok, _ := tokens.Load()
		assert.Equal(t, "fresh", tok)
	})
}

func TestSessionStore_SignInErrors(t *testing.T) {
	f := newFakeService(t)
	f.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["identifier"] {
		case "ghost":
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "User not found", Code: models.CodeUserNotFound})
		default:
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials", Code: models.CodeInvalidCredentials})
		}
	})
	store := NewSessionStore(f.client(t), nil)
	log := &eventLog{}
	store.Subscribe(log.listen)

	_, err := store.SignIn(context.Background(), " ghost ", "pw")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.CodeUserNotFound, authErr.Code)

	_, err = store.SignIn(context.Background(), "a@x.io", "wrong")
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.CodeInvalidCredentials, authErr.Code)

	assert.Nil(t, store.Session())
	assert.Empty(t, log.types())
}

func TestSessionStore_SignOutAlwaysEndsLoggedOut(t *testing.T) {
	f := newFakeService(t)
	userID := uuid.New()
	var sawLoading atomic.Bool
	var store *SessionStore
	f.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthResult{Session: testSession(userID, "tok")})
	})
	f.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", bearer(r))
		sawLoading.Store(store.Loading())
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "revoke failed"})
	})
	tokens := NewMemoryTokenStore()
	store = NewSessionStore(f.client(t), tokens)
	_, err := store.SignIn(context.Background(), "alice", "pw")
	require.NoError(t, err)
	store.client.Cache().SetLiked(uuid.New(), true)

	log := &eventLog{}
	store.Subscribe(log.listen)
	err = store.SignOut(context.Background())
	require.Error(t, err)

	assert.True(t, sawLoading.Load())
	assert.False(t, store.Loading())
	assert.Nil(t, store.Session())
	assert.Nil(t, store.Profile())
	assert.Equal(t, []string{EventSignedOut}, log.types())
	tok, _ := tokens.Load()
	assert.Empty(t, tok)

	// Already signed out: nothing to revoke.
	require.NoError(t, store.SignOut(context.Background()))
}

func TestSessionStore_UpdateProfile(t *testing.T) {
	f := newFakeService(t)
	userID := uuid.New()
	f.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthResult{
			Session: testSession(userID, "tok"),
			Profile: &Profile{ID: userID, DisplayName: "Before", Version: 1},
		})
	})
	f.HandleFunc("PUT /api/me/profile", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "After", in["display_name"])
		writeJSON(w, http.StatusOK, Profile{ID: userID, DisplayName: "After", Version: 2, UpdatedAt: time.Now()})
	})
	store := NewSessionStore(f.client(t), nil)

	_, err := store.UpdateProfile(context.Background(), ProfileUpdate{})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, models.CodeNotAuthenticated, authErr.Code)

	_, err = store.SignIn(context.Background(), "a@x.io", "pw")
	require.NoError(t, err)
	log := &eventLog{}
	store.Subscribe(log.listen)

	name := "After"
	p, err := store.UpdateProfile(context.Background(), ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "After", p.DisplayName)
	assert.Equal(t, "After", store.Profile().DisplayName)
	assert.Equal(t, []string{EventUserUpdated}, log.types())
}

func TestSessionStore_ChangePasswordMismatch(t *testing.T) {
	f := newFakeService(t)
	f.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, AuthResult{Session: testSession(uuid.New(), "tok")})
	})
	store := NewSessionStore(f.client(t), nil)
	_, err := store.SignIn(context.Background(), "a@x.io", "pw")
	require.NoError(t, err)

	err = store.ChangePassword(context.Background(), "one-password", "another")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Passwords do not match", vErr.Message)
}

func TestSessionStore_Unsubscribe(t *testing.T) {
	f := newFakeService(t)
	store := NewSessionStore(f.client(t), nil)
	log := &eventLog{}
	unsubscribe := store.Subscribe(log.listen)
	unsubscribe()
	unsubscribe()

	require.NoError(t, store.Init(context.Background()))
	assert.Empty(t, log.types())
}

func TestSessionStore_ListenerMayReadStore(t *testing.T) {
	f := newFakeService(t)
	store := NewSessionStore(f.client(t), nil)
	var loadingInListener bool
	store.Subscribe(func(string, *Session) { loadingInListener = store.Loading() })

	require.NoError(t, store.Init(context.Background()))
	assert.False(t, loadingInListener)
	store.Close()
}
