package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTags is the number of tags an article may carry.
const MaxTags = 5

// StringList is a string slice stored as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("StringList: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("StringList: %w", err)
	}
	*l = out
	return nil
}

// Article is a piece of writing owned by a Profile.
type Article struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Slug          string     `gorm:"not null;index" json:"slug"`
	Content       string     `gorm:"type:text;not null" json:"content"`
	Excerpt       string     `gorm:"type:text" json:"excerpt"`
	CoverImage    string     `json:"cover_image"`
	AuthorID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author        *Profile   `gorm:"foreignKey:AuthorID" json:"author"`
	Published     bool       `gorm:"not null;default:false;index" json:"published"`
	Featured      bool       `gorm:"not null;default:false" json:"featured"`
	Tags          StringList `gorm:"type:text" json:"tags"`
	ReadingTime   int        `gorm:"not null;default:0" json:"reading_time"`
	ViewCount     int64      `gorm:"not null;default:0" json:"view_count"`
	LikesCount    int64      `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int64      `gorm:"not null;default:0" json:"comments_count"`
	Version       int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at"`
	// Liked reports whether the requesting user liked the article. Not persisted.
	Liked bool `gorm:"-" json:"liked"`
}

// BeforeCreate assigns an id when the caller did not.
func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ErrPublishedAtMismatch reports a broken published/published_at pairing.
var ErrPublishedAtMismatch = errors.New("published_at must be set iff the article is published")

// CheckPublication verifies that published_at is non-null iff published.
func (a *Article) CheckPublication() error {
	if a.Published != (a.PublishedAt != nil) {
		return ErrPublishedAtMismatch
	}
	return nil
}

// ArticleDetail is an article page payload.
type ArticleDetail struct {
	Article  *Article   `json:"article"`
	Comments []*Comment `json:"comments"`
}
