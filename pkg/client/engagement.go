package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

type toggleKind uint8

const (
	toggleLike toggleKind = iota
	toggleFollow
)

type toggleKey struct {
	kind    toggleKind
	actor   uuid.UUID
	subject uuid.UUID
}

// Engagement runs like and follow toggles for the signed-in user. A toggle
// commits to the cache only after the service confirms it, and at most one
// toggle per (user, subject) runs at a time.
type Engagement struct {
	client  *Client
	session *SessionStore

	mu      sync.Mutex
	pending map[toggleKey]struct{}
}

func NewEngagement(c *Client, session *SessionStore) *Engagement {
	return &Engagement{
		client:  c,
		session: session,
		pending: make(map[toggleKey]struct{}),
	}
}

// ToggleLike likes or unlikes articleID depending on the cached flag. The
// returned state is the service's, so a toggle from a stale flag settles on
// what the service actually holds.
func (e *Engagement) ToggleLike(ctx context.Context, articleID uuid.UUID) (*LikeState, error) {
	actor := e.session.UserID()
	if actor == uuid.Nil {
		return nil, newNotAuthenticated()
	}
	release, err := e.acquire(toggleKey{toggleLike, actor, articleID})
	if err != nil {
		return nil, err
	}
	defer release()

	liked := e.client.cache.Liked(articleID)
	method := http.MethodPost
	if liked {
		method = http.MethodDelete
	}
	var server LikeState
	if err := e.client.do(ctx, method, "/api/articles/"+articleID.String()+"/like", nil, nil, &server); err != nil {
		return nil, err
	}
	server.ArticleID = articleID
	state := e.client.cache.commitLike(server)
	return &state, nil
}

// ToggleFollow follows or unfollows profileID depending on the cached flag.
func (e *Engagement) ToggleFollow(ctx context.Context, profileID uuid.UUID) (*FollowState, error) {
	actor := e.session.UserID()
	if actor == uuid.Nil {
		return nil, newNotAuthenticated()
	}
	if actor == profileID {
		return nil, &ValidationError{Message: "You cannot follow yourself"}
	}
	release, err := e.acquire(toggleKey{toggleFollow, actor, profileID})
	if err != nil {
		return nil, err
	}
	defer release()

	following := e.client.cache.Following(profileID)
	method := http.MethodPost
	if following {
		method = http.MethodDelete
	}
	var server FollowState
	if err := e.client.do(ctx, method, "/api/profiles/"+profileID.String()+"/follow", nil, nil, &server); err != nil {
		return nil, err
	}
	server.ProfileID = profileID
	state := e.client.cache.commitFollow(server)
	return &state, nil
}

// Pending reports whether a like toggle for articleID is in flight.
func (e *Engagement) Pending(articleID uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[toggleKey{toggleLike, e.session.UserID(), articleID}]
	return ok
}

func (e *Engagement) acquire(key toggleKey) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.pending[key]; busy {
		return nil, ErrToggleInFlight
	}
	e.pending[key] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.pending, key)
		e.mu.Unlock()
	}, nil
}
