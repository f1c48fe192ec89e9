package client

import (
	"context"
	"strings"

	"livaulislam/internal/studio"

	"github.com/google/uuid"
)

// DraftState tracks where a Draft stands relative to the service.
type DraftState int

const (
	DraftNew DraftState = iota
	DraftSaved
	DraftPublished
)

func (s DraftState) String() string {
	switch s {
	case DraftSaved:
		return "draft"
	case DraftPublished:
		return "published"
	default:
		return "new"
	}
}

// Draft is an article being written. The zero value is not usable; start
// from NewDraft or EditDraft.
type Draft struct {
	client *Client

	ID         *uuid.UUID
	Title      string
	Content    string
	Excerpt    string
	CoverImage string
	State      DraftState

	tags studio.Tags
}

func (c *Client) NewDraft() *Draft {
	return &Draft{client: c, tags: studio.Tags{}}
}

// EditDraft loads one of the caller's articles into a Draft.
func (c *Client) EditDraft(ctx context.Context, id uuid.UUID) (*Draft, error) {
	a, err := c.ArticleForEdit(ctx, id)
	if err != nil {
		return nil, err
	}
	d := c.NewDraft()
	d.load(a)
	return d, nil
}

func (d *Draft) load(a *Article) {
	id := a.ID
	d.ID = &id
	d.Title = a.Title
	d.Content = a.Content
	d.Excerpt = a.Excerpt
	d.CoverImage = a.CoverImage
	d.tags = studio.NewTags(a.Tags)
	d.State = DraftSaved
	if a.Published {
		d.State = DraftPublished
	}
}

// AddTag reports false for blank, duplicate or overflowing tags.
func (d *Draft) AddTag(tag string) bool {
	var ok bool
	d.tags, ok = d.tags.Add(tag)
	return ok
}

func (d *Draft) RemoveTag(tag string) bool {
	var ok bool
	d.tags, ok = d.tags.Remove(tag)
	return ok
}

func (d *Draft) Tags() []string { return d.tags.Strings() }

// Slug previews the slug the title will get.
func (d *Draft) Slug() string { return studio.GenerateSlug(d.Title) }

// ReadingTime previews the reading time in minutes.
func (d *Draft) ReadingTime() int { return studio.ReadingTime(d.Content) }

// SaveDraft stores the draft unpublished. Saving a published article as a
// draft unpublishes it.
func (d *Draft) SaveDraft(ctx context.Context) (*Article, error) {
	return d.save(ctx, false)
}

// Publish stores and publishes the draft. published_at is kept from the
// first publish.
func (d *Draft) Publish(ctx context.Context) (*Article, error) {
	return d.save(ctx, true)
}

func (d *Draft) save(ctx context.Context, publish bool) (*Article, error) {
	fields := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(d.Content) == "" {
		fields["content"] = "Content is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Message: "Please add a title and content", Fields: fields}
	}

	a, err := d.client.SaveArticle(ctx, SaveArticleInput{
		ID:         d.ID,
		Title:      d.Title,
		Content:    d.Content,
		Excerpt:    d.Excerpt,
		CoverImage: d.CoverImage,
		Tags:       d.tags.Strings(),
		Publish:    publish,
	})
	if err != nil {
		return nil, err
	}
	d.load(a)
	return a, nil
}
