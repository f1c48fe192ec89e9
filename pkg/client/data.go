package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"livaulislam/internal/models"

	"github.com/google/uuid"
)

// DiscoverQuery filters the paginated article list.
type DiscoverQuery struct {
	Query string
	Tag   string
	Sort  string
	Page  int
	Limit int
}

func (q DiscoverQuery) values() url.Values {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Tag != "" {
		v.Set("tag", q.Tag)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// SaveArticleInput creates (ID nil) or updates an article.
type SaveArticleInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Excerpt    string     `json:"excerpt"`
	CoverImage string     `json:"cover_image"`
	Tags       []string   `json:"tags"`
	Publish    bool       `json:"publish"`
}

// List reads degrade to empty results; the failure is logged. Detail reads
// return the error.

func (c *Client) Home(ctx context.Context) *HomeFeed {
	var feed HomeFeed
	if err := c.do(ctx, http.MethodGet, "/api/articles/home", nil, nil, &feed); err != nil {
		c.logger.Warn("failed to load home feed", "error", err)
		return &HomeFeed{Featured: []*Article{}, Recent: []*Article{}, Trending: []*Article{}}
	}
	feed.Featured = c.cache.PutArticles(feed.Featured)
	feed.Recent = c.cache.PutArticles(feed.Recent)
	feed.Trending = c.cache.PutArticles(feed.Trending)
	return &feed
}

func (c *Client) Discover(ctx context.Context, q DiscoverQuery) *Page {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/api/articles", q.values(), nil, &page); err != nil {
		c.logger.Warn("failed to load articles", "error", err)
		return &Page{Articles: []*Article{}, Page: max(q.Page, 1), Limit: q.Limit}
	}
	page.Articles = c.cache.PutArticles(page.Articles)
	return &page
}

// Article loads a published article, or the caller's own draft, by slug.
func (c *Client) Article(ctx context.Context, slug string) (*ArticleDetail, error) {
	var detail ArticleDetail
	if err := c.do(ctx, http.MethodGet, "/api/articles/slug/"+url.PathEscape(slug), nil, nil, &detail); err != nil {
		return nil, err
	}
	if detail.Article == nil {
		return nil, &APIError{Status: http.StatusNotFound, Code: models.CodeNotFound, Message: "Article not found"}
	}
	c.cache.SetLiked(detail.Article.ID, detail.Article.Liked)
	detail.Article = c.cache.PutArticle(detail.Article)
	detail.Comments = models.NormalizeComments(detail.Comments)
	if detail.Comments == nil {
		detail.Comments = []*Comment{}
	}
	return &detail, nil
}

// ArticleForEdit loads one of the caller's own articles.
func (c *Client) ArticleForEdit(ctx context.Context, id uuid.UUID) (*Article, error) {
	var a Article
	if err := c.do(ctx, http.MethodGet, "/api/articles/"+id.String()+"/edit", nil, nil, &a); err != nil {
		return nil, err
	}
	return c.cache.PutArticle(&a), nil
}

func (c *Client) SaveArticle(ctx context.Context, in SaveArticleInput) (*Article, error) {
	method, path := http.MethodPost, "/api/articles"
	if in.ID != nil {
		method, path = http.MethodPut, "/api/articles/"+in.ID.String()
	}
	var a Article
	if err := c.do(ctx, method, path, nil, in, &a); err != nil {
		return nil, err
	}
	return c.cache.PutArticle(&a), nil
}

func (c *Client) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/articles/"+id.String(), nil, nil, nil)
}

// Search matches titles and excerpts by substring and tags exactly. A blank
// query returns empty results without a request.
func (c *Client) Search(ctx context.Context, query, sort string) *SearchResults {
	empty := &SearchResults{Query: query, Articles: []*Article{}, Profiles: []*Profile{}}
	if query == "" {
		return empty
	}
	q := url.Values{"q": {query}}
	if sort != "" {
		q.Set("sort", sort)
	}
	var res SearchResults
	if err := c.do(ctx, http.MethodGet, "/api/search", q, nil, &res); err != nil {
		c.logger.Warn("search failed", "query", query, "error", err)
		return empty
	}
	res.Articles = c.cache.PutArticles(res.Articles)
	res.Profiles = c.cache.PutProfiles(res.Profiles)
	return &res
}

// Profile loads a public profile page by exact username.
func (c *Client) Profile(ctx context.Context, username string) (*ProfilePage, error) {
	var page ProfilePage
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(username), nil, nil, &page); err != nil {
		return nil, err
	}
	if page.Profile != nil {
		c.cache.SetFollowing(page.Profile.ID, page.Following)
		page.Profile = c.cache.PutProfile(page.Profile)
	}
	return &page, nil
}

func (c *Client) ProfileArticles(ctx context.Context, username string) []*Article {
	var list []*Article
	if err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(username)+"/articles", nil, nil, &list); err != nil {
		c.logger.Warn("failed to load profile articles", "username", username, "error", err)
		return []*Article{}
	}
	return c.cache.PutArticles(list)
}

func (c *Client) Community(ctx context.Context) *CommunityOverview {
	var o CommunityOverview
	if err := c.do(ctx, http.MethodGet, "/api/community", nil, nil, &o); err != nil {
		c.logger.Warn("failed to load community", "error", err)
		return &CommunityOverview{
			TrendingTopics: []models.TopicCount{},
			SuggestedUsers: []*Profile{},
			TopAuthors:     []*models.AuthorSummary{},
			RecentActivity: []*Article{},
		}
	}
	o.SuggestedUsers = c.cache.PutProfiles(o.SuggestedUsers)
	o.RecentActivity = c.cache.PutArticles(o.RecentActivity)
	return &o
}

func (c *Client) About(ctx context.Context) (*AboutPage, error) {
	var about AboutPage
	if err := c.do(ctx, http.MethodGet, "/api/about", nil, nil, &about); err != nil {
		return nil, err
	}
	return &about, nil
}

// Dashboard requires a session.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/me/dashboard", nil, nil, &d); err != nil {
		return nil, err
	}
	d.Recent = c.cache.PutArticles(d.Recent)
	return &d, nil
}

// Liked lists the articles the caller liked.
func (c *Client) Liked(ctx context.Context) []*Article {
	var list []*Article
	if err := c.do(ctx, http.MethodGet, "/api/me/liked", nil, nil, &list); err != nil {
		c.logger.Warn("failed to load liked articles", "error", err)
		return []*Article{}
	}
	for _, a := range list {
		if a != nil {
			c.cache.SetLiked(a.ID, true)
		}
	}
	return c.cache.PutArticles(list)
}

func (c *Client) Comments(ctx context.Context, articleID uuid.UUID) []*Comment {
	var list []*Comment
	if err := c.do(ctx, http.MethodGet, "/api/articles/"+articleID.String()+"/comments", nil, nil, &list); err != nil {
		c.logger.Warn("failed to load comments", "article_id", articleID, "error", err)
		return []*Comment{}
	}
	if list == nil {
		return []*Comment{}
	}
	return models.NormalizeComments(list)
}

func (c *Client) AddComment(ctx context.Context, articleID uuid.UUID, content string) (*Comment, error) {
	var cm Comment
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/api/articles/"+articleID.String()+"/comments", nil, body, &cm); err != nil {
		return nil, err
	}
	models.NormalizeComments([]*Comment{&cm})
	return &cm, nil
}

func (c *Client) Notifications(ctx context.Context) *NotificationInbox {
	var inbox NotificationInbox
	if err := c.do(ctx, http.MethodGet, "/api/me/notifications", nil, nil, &inbox); err != nil {
		c.logger.Warn("failed to load notifications", "error", err)
		return &NotificationInbox{Notifications: []*Notification{}}
	}
	return &inbox
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/api/me/notifications/"+id.String()+"/read", nil, nil, nil)
}

// UsernameAvailable is case-insensitive.
func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var res struct {
		Available bool `json:"available"`
	}
	q := url.Values{"username": {username}}
	if err := c.doWithToken(ctx, "", http.MethodGet, "/api/auth/username-available", q, nil, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}
