package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the public-facing record of a user. Its ID equals the Account ID.
type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName    string    `json:"display_name"`
	Bio            string    `gorm:"type:text" json:"bio"`
	AvatarURL      string    `json:"avatar_url"`
	Website        string    `json:"website"`
	Twitter        string    `json:"twitter"`
	LinkedIn       string    `gorm:"column:linkedin" json:"linkedin"`
	Location       string    `json:"location"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count"`
	Version        int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProfileUpdate holds the editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=80"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,max=2048"`
	Website     *string `json:"website,omitempty" validate:"omitempty,max=2048"`
	Twitter     *string `json:"twitter,omitempty" validate:"omitempty,max=64"`
	LinkedIn    *string `json:"linkedin,omitempty" validate:"omitempty,max=2048"`
	Location    *string `json:"location,omitempty" validate:"omitempty,max=120"`
}

// Columns returns the changed columns keyed by database column name.
func (u ProfileUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("display_name", u.DisplayName)
	set("bio", u.Bio)
	set("avatar_url", u.AvatarURL)
	set("website", u.Website)
	set("twitter", u.Twitter)
	set("linkedin", u.LinkedIn)
	set("location", u.Location)
	return cols
}

// ProfileStats are the per-profile totals shown on the profile page.
type ProfileStats struct {
	Articles  int64 `json:"articles"`
	Published int64 `json:"published"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
}

// AuthorSummary ranks a profile by audience.
type AuthorSummary struct {
	Profile      *Profile `json:"profile"`
	ArticleCount int64    `json:"article_count"`
	TotalLikes   int64    `json:"total_likes"`
}
