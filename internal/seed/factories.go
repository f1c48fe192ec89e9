// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"livaulislam/internal/models"
	"livaulislam/internal/studio"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand

	passwordHash string
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	// #nosec G404: acceptable for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

func (f *Factory) hash() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	if f.opts.SkipBcrypt {
		f.passwordHash = DemoPassword
		return f.passwordHash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	f.passwordHash = string(h)
	return f.passwordHash, nil
}

// CreateUser persists an account and its profile under one id.
// Optional override functions may modify the generated profile before saving.
func (f *Factory) CreateUser(overrides ...func(*models.Profile)) (*models.Profile, error) {
	hash, err := f.hash()
	if err != nil {
		return nil, err
	}
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	profile := &models.Profile{
		ID:          uuid.New(),
		Username:    fmt.Sprintf("%s_%s%d", strings.ToLower(first), strings.ToLower(last), gofakeit.Number(10, 999)),
		DisplayName: first + " " + last,
		Bio:         gofakeit.Sentence(12),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Location:    gofakeit.City(),
		Version:     1,
	}
	for _, override := range overrides {
		override(profile)
	}
	account := &models.Account{
		ID:           profile.ID,
		Email:        strings.ToLower(profile.Username) + "@example.com",
		PasswordHash: hash,
	}

	if f.opts.DryRun {
		return profile, nil
	}
	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// BuildArticle constructs an article with derived slug, excerpt and reading
// time but does not persist it. Useful for batching.
func (f *Factory) BuildArticle(author *models.Profile, topics []string, overrides ...func(*models.Article)) *models.Article {
	title := strings.TrimSuffix(gofakeit.Sentence(gofakeit.Number(3, 7)), ".")
	var body strings.Builder
	for i := 0; i < gofakeit.Number(3, 8); i++ {
		body.WriteString("<p>")
		body.WriteString(gofakeit.Paragraph(1, 4, 18, " "))
		body.WriteString("</p>")
	}
	content := body.String()

	article := &models.Article{
		ID:          uuid.New(),
		Title:       title,
		Slug:        studio.GenerateSlug(title),
		Content:     content,
		Excerpt:     studio.DeriveExcerpt(content),
		CoverImage:  fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", gofakeit.UUID()),
		AuthorID:    author.ID,
		Tags:        models.StringList(f.pickTopics(topics).Strings()),
		ReadingTime: studio.ReadingTime(content),
		Version:     1,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	article.CreatedAt = time.Now().UTC().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)
	article.UpdatedAt = article.CreatedAt

	for _, override := range overrides {
		override(article)
	}
	return article
}

// Publish marks a built article published at its creation time.
func Publish(a *models.Article) {
	at := a.CreatedAt
	a.Published = true
	a.PublishedAt = &at
}

// Feature publishes a and puts it on the featured shelf.
func Feature(a *models.Article) {
	Publish(a)
	a.Featured = true
}

func (f *Factory) pickTopics(topics []string) studio.Tags {
	tags := studio.Tags{}
	if len(topics) == 0 {
		return tags
	}
	n := 1 + f.rng.Intn(min(3, len(topics)))
	for _, i := range f.rng.Perm(len(topics))[:n] {
		tags, _ = tags.Add(topics[i])
	}
	return tags
}

// CreateArticlesBatch persists multiple articles in a single DB call.
func (f *Factory) CreateArticlesBatch(articles []*models.Article) error {
	if f.opts.DryRun || len(articles) == 0 {
		return nil
	}
	return f.db.CreateInBatches(articles, f.batchSize()).Error
}

// CreateComment persists a comment by author on article.
func (f *Factory) CreateComment(author *models.Profile, article *models.Article) (*models.Comment, error) {
	comment := &models.Comment{
		ID:        uuid.New(),
		ArticleID: article.ID,
		AuthorID:  author.ID,
		Content:   gofakeit.Sentence(gofakeit.Number(6, 20)),
	}
	if f.opts.DryRun {
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on article.
func (f *Factory) CreateLike(user *models.Profile, article *models.Article) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.ArticleLike{UserID: user.ID, ArticleID: article.ID}).Error
}

// CreateFollow persists a follower -> following edge.
func (f *Factory) CreateFollow(follower, following *models.Profile) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error
}

func (f *Factory) batchSize() int {
	if f.opts.BatchSize > 0 {
		return f.opts.BatchSize
	}
	return 100
}
