package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"livaulislam/internal/models"

	"github.com/google/uuid"
)

// Listener receives auth-state changes. session is nil when logged out.
type Listener func(event string, session *Session)

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// SessionStore owns the current session and profile. Create one per signed
// in identity, call Init, and Close it on teardown.
type SessionStore struct {
	client *Client
	tokens TokenStore

	mu        sync.RWMutex
	session   *Session
	profile   *Profile
	loading   bool
	listeners map[int]Listener
	nextID    int

	watchMu sync.Mutex
	watch   *streamWatch
}

// NewSessionStore binds a store to c. A non-nil tokens becomes the token
// source of c as well.
func NewSessionStore(c *Client, tokens TokenStore) *SessionStore {
	if tokens != nil {
		c.tokens = tokens
	}
	return &SessionStore{
		client:    c,
		tokens:    c.tokens,
		loading:   true,
		listeners: make(map[int]Listener),
	}
}

// Init resolves the persisted session, if any, and its profile.
func (s *SessionStore) Init(ctx context.Context) error {
	err := s.resolve(ctx)
	s.setLoading(false)
	s.notify(EventInitialSession)
	return err
}

// resolve asks the service who the stored token belongs to. A rejected token
// is cleared; a network failure leaves the state as it was.
func (s *SessionStore) resolve(ctx context.Context) error {
	token := s.client.token()
	if token == "" {
		s.set(nil, nil)
		return nil
	}

	var res AuthResult
	err := s.client.doWithToken(ctx, token, http.MethodGet, "/api/auth/session", nil, nil, &res)
	var authErr *AuthError
	if errors.As(err, &authErr) {
		s.clearToken()
		s.set(nil, nil)
		return nil
	}
	if err != nil {
		return err
	}
	if res.Session == nil {
		s.set(nil, nil)
		return nil
	}

	profile := res.Profile
	if profile == nil {
		profile, err = s.fetchProfile(ctx, token)
		if err != nil && !IsNotFound(err) {
			s.client.logger.Warn("failed to fetch profile", "error", err)
		}
	}
	s.set(res.Session, profile)
	return nil
}

func (s *SessionStore) fetchProfile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := s.client.doWithToken(ctx, token, http.MethodGet, "/api/me/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return s.client.cache.PutProfile(&p), nil
}

// SignUp checks the username first; a taken name is rejected before any
// account is created.
func (s *SessionStore) SignUp(ctx context.Context, in SignUpInput) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Password == "" || in.Username == "" {
		return nil, &ValidationError{Message: "Email, password, and username are required"}
	}
	available, err := s.client.UsernameAvailable(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, &AuthError{Code: models.CodeUsernameTaken, Message: "Username is already taken"}
	}

	var res AuthResult
	if err := s.client.doWithToken(ctx, "", http.MethodPost, "/api/auth/signup", nil, in, &res); err != nil {
		return nil, err
	}
	return s.commit(res), nil
}

// SignIn accepts an email or an exact username.
func (s *SessionStore) SignIn(ctx context.Context, identifier, password string) (*Session, error) {
	body := map[string]string{"identifier": strings.TrimSpace(identifier), "password": password}
	var res AuthResult
	if err := s.client.doWithToken(ctx, "", http.MethodPost, "/api/auth/signin", nil, body, &res); err != nil {
		return nil, err
	}
	return s.commit(res), nil
}

func (s *SessionStore) commit(res AuthResult) *Session {
	if res.Session == nil {
		return nil
	}
	if err := s.tokens.Save(res.Session.AccessToken); err != nil {
		s.client.logger.Warn("failed to persist access token", "error", err)
	}
	s.client.cache.ForgetViewer()
	profile := s.client.cache.PutProfile(res.Profile)
	s.set(res.Session, profile)
	s.notify(EventSignedIn)
	return res.Session
}

// SignOut always ends logged out. Local state and the persisted token go
// first; a failed remote revoke is returned but not retried.
func (s *SessionStore) SignOut(ctx context.Context) error {
	return s.endSession(ctx, http.MethodPost, "/api/auth/signout")
}

// DeleteAccount signs out through the account endpoint. Account data is kept.
func (s *SessionStore) DeleteAccount(ctx context.Context) error {
	return s.endSession(ctx, http.MethodDelete, "/api/me")
}

func (s *SessionStore) endSession(ctx context.Context, method, path string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	token := s.client.token()
	s.clearToken()
	s.client.cache.ForgetViewer()
	s.set(nil, nil)
	s.notify(EventSignedOut)

	if token == "" {
		return nil
	}
	return s.client.doWithToken(ctx, token, method, path, nil, nil, nil)
}

// UpdateProfile writes the non-nil fields of in and replaces the local profile.
func (s *SessionStore) UpdateProfile(ctx context.Context, in ProfileUpdate) (*Profile, error) {
	if s.Session() == nil {
		return nil, newNotAuthenticated()
	}
	var p Profile
	if err := s.client.do(ctx, http.MethodPut, "/api/me/profile", nil, in, &p); err != nil {
		return nil, err
	}
	profile := s.client.cache.PutProfile(&p)
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	s.notify(EventUserUpdated)
	return profile, nil
}

// ChangePassword rejects a mismatched confirmation locally.
func (s *SessionStore) ChangePassword(ctx context.Context, password, confirm string) error {
	if s.Session() == nil {
		return newNotAuthenticated()
	}
	if password != confirm {
		return &ValidationError{Message: "Passwords do not match"}
	}
	body := map[string]string{"password": password, "confirm_password": confirm}
	return s.client.do(ctx, http.MethodPost, "/api/auth/password", nil, body, nil)
}

// Subscribe registers fn and returns a function that removes it.
func (s *SessionStore) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close stops the event stream and drops every listener. It may be called
// from a Listener.
func (s *SessionStore) Close() {
	s.stopStream()
	s.mu.Lock()
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()
}

func (s *SessionStore) Session() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SessionStore) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Loading is true during Init and during sign-out.
func (s *SessionStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// UserID returns the signed-in user or uuid.Nil.
func (s *SessionStore) UserID() uuid.UUID {
	if sess := s.Session(); sess != nil {
		return sess.User.ID
	}
	return uuid.Nil
}

func (s *SessionStore) set(session *Session, profile *Profile) {
	s.mu.Lock()
	s.session = session
	s.profile = profile
	s.mu.Unlock()
}

func (s *SessionStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *SessionStore) clearToken() {
	if err := s.tokens.Clear(); err != nil {
		s.client.logger.Warn("failed to clear access token", "error", err)
	}
}

// notify calls listeners outside the lock so they may call back into the store.
func (s *SessionStore) notify(event string) {
	s.mu.RLock()
	session := s.session
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// ticket exchanges the session token for a single-use stream ticket.
func (s *SessionStore) ticket(ctx context.Context) (string, error) {
	var res struct {
		Ticket string `json:"ticket"`
	}
	if err := s.client.do(ctx, http.MethodPost, "/api/ws/ticket", nil, nil, &res); err != nil {
		return "", err
	}
	return res.Ticket, nil
}

func (s *SessionStore) streamURL(ticket string) string {
	u := *s.client.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/ws/auth"
	u.RawQuery = url.Values{"ticket": {ticket}, apiKeyHeader: {s.client.apiKey}}.Encode()
	return u.String()
}
