// Package testutil provides sqlite and miniredis fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"livaulislam/internal/cache"
	"livaulislam/internal/database"
	"livaulislam/internal/models"
	"livaulislam/internal/studio"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns an isolated in-memory database with every table migrated.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// NewRedis starts miniredis, installs it as the cache client and returns both.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := cache.GetClient()
	cache.SetClient(client)
	t.Cleanup(func() {
		cache.SetClient(prev)
		_ = client.Close()
	})
	return mr, client
}

// CreateUser inserts an account and its profile.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.Profile {
	t.Helper()
	id := uuid.New()
	account := &models.Account{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "unused",
	}
	require.NoError(t, db.Create(account).Error)

	profile := &models.Profile{
		ID:          id,
		Username:    username,
		DisplayName: username + " Writer",
		Bio:         gofakeit.JobTitle(),
		Version:     1,
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}

// CreateArticle inserts an article authored by author. Published articles get a published_at.
func CreateArticle(t testing.TB, db *gorm.DB, author uuid.UUID, title string, published bool, tags ...string) *models.Article {
	t.Helper()
	article := &models.Article{
		Title:       title,
		Slug:        studio.GenerateSlug(title),
		Content:     "<p>" + gofakeit.Paragraph(1, 3, 20, " ") + "</p>",
		Excerpt:     "excerpt for " + title,
		AuthorID:    author,
		Published:   published,
		Tags:        models.StringList(tags),
		ReadingTime: 1,
		Version:     1,
	}
	if published {
		now := time.Now().UTC()
		article.PublishedAt = &now
	}
	require.NoError(t, db.Create(article).Error)
	return article
}
