package client

import (
	"sync"

	"livaulislam/internal/models"

	"github.com/google/uuid"
)

// EntityCache is the single authoritative copy of every article and profile
// the client has seen, keyed by id. An incoming entity replaces the cached
// one only when its version is greater. Viewer relations (liked, following)
// are not versioned and are tracked separately.
type EntityCache struct {
	mu        sync.RWMutex
	articles  map[uuid.UUID]models.Article
	profiles  map[uuid.UUID]models.Profile
	liked     map[uuid.UUID]bool
	following map[uuid.UUID]bool
}

func NewEntityCache() *EntityCache {
	return &EntityCache{
		articles:  make(map[uuid.UUID]models.Article),
		profiles:  make(map[uuid.UUID]models.Profile),
		liked:     make(map[uuid.UUID]bool),
		following: make(map[uuid.UUID]bool),
	}
}

// PutArticle normalizes a, reconciles it with the cached copy and returns a
// copy of the winner.
func (c *EntityCache) PutArticle(a *Article) *Article {
	if a == nil {
		return nil
	}
	models.NormalizeArticle(a)
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.Author != nil && a.Author.ID != uuid.Nil {
		c.putProfileLocked(a.Author)
	}
	if cur, ok := c.articles[a.ID]; !ok || a.Version > cur.Version {
		c.articles[a.ID] = *a
	}
	return c.articleLocked(a.ID)
}

// PutArticles reconciles a list. Nil entries are dropped.
func (c *EntityCache) PutArticles(list []*Article) []*Article {
	out := make([]*Article, 0, len(list))
	for _, a := range models.NormalizeArticles(list) {
		out = append(out, c.PutArticle(a))
	}
	return out
}

// Article returns a copy of the cached article.
func (c *EntityCache) Article(id uuid.UUID) (*Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.articles[id]; !ok {
		return nil, false
	}
	return c.articleLocked(id), true
}

func (c *EntityCache) articleLocked(id uuid.UUID) *Article {
	a := c.articles[id]
	a.Liked = c.liked[id]
	if a.Author != nil {
		author := *a.Author
		if p, ok := c.profiles[author.ID]; ok && p.Version > author.Version {
			author = p
		}
		a.Author = &author
	}
	return &a
}

func (c *EntityCache) PutProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putProfileLocked(p)
	out := c.profiles[p.ID]
	return &out
}

func (c *EntityCache) PutProfiles(list []*Profile) []*Profile {
	out := make([]*Profile, 0, len(list))
	for _, p := range list {
		if p != nil {
			out = append(out, c.PutProfile(p))
		}
	}
	return out
}

func (c *EntityCache) putProfileLocked(p *Profile) {
	if cur, ok := c.profiles[p.ID]; !ok || p.Version > cur.Version {
		c.profiles[p.ID] = *p
	}
}

func (c *EntityCache) Profile(id uuid.UUID) (*Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.profiles[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

// SetLiked records whether the current viewer likes article id.
func (c *EntityCache) SetLiked(id uuid.UUID, liked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liked[id] = liked
}

func (c *EntityCache) Liked(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.liked[id]
}

// SetFollowing records whether the current viewer follows profile id.
func (c *EntityCache) SetFollowing(id uuid.UUID, following bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.following[id] = following
}

func (c *EntityCache) Following(id uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.following[id]
}

// ForgetViewer drops the viewer relations, e.g. after sign-out.
func (c *EntityCache) ForgetViewer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liked = make(map[uuid.UUID]bool)
	c.following = make(map[uuid.UUID]bool)
}

// commitLike records a confirmed like toggle. The service's state is
// authoritative: its flag always wins, and its counter and version replace
// the cached article unless the cache already holds a newer row.
func (c *EntityCache) commitLike(server LikeState) LikeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liked[server.ArticleID] = server.Liked

	a, ok := c.articles[server.ArticleID]
	if !ok {
		return server
	}
	if server.Version >= a.Version {
		a.LikesCount = server.LikesCount
		a.Version = server.Version
		c.articles[server.ArticleID] = a
	}
	return LikeState{ArticleID: a.ID, Liked: server.Liked, LikesCount: a.LikesCount, Version: a.Version}
}

// commitFollow is commitLike for follows and followers_count.
func (c *EntityCache) commitFollow(server FollowState) FollowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.following[server.ProfileID] = server.Following

	p, ok := c.profiles[server.ProfileID]
	if !ok {
		return server
	}
	if server.Version >= p.Version {
		p.FollowersCount = server.FollowersCount
		p.Version = server.Version
		c.profiles[server.ProfileID] = p
	}
	return FollowState{ProfileID: p.ID, Following: server.Following, FollowersCount: p.FollowersCount, Version: p.Version}
}
