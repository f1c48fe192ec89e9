package seed

import (
	"context"
	"fmt"
	"log/slog"

	"livaulislam/internal/middleware"
	"livaulislam/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	MaxDays    int
	BatchSize  int
	SkipBcrypt bool
	// DryRun builds every entity without writing; db may be nil.
	DryRun     bool
	RandomSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Writers   int
	Readers   int
	Published int
	Featured  int
	Drafts    int
	Likes     int
	Comments  int
	Follows   int
}

// Seeder applies presets to a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes every row of every application table, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		return nil
	}
	tables := []interface{}{
		&models.Notification{}, &models.Comment{}, &models.ArticleLike{},
		&models.Follow{}, &models.Article{}, &models.Profile{}, &models.Account{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return nil
	})
}

// Empty reports whether no profile exists yet.
func (s *Seeder) Empty(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}

// Apply creates the preset's writers, readers, articles and engagement, then
// reconciles the denormalized counters with the rows written.
func (s *Seeder) Apply(ctx context.Context, p *Preset) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.MaxDays > 0 && s.opts.MaxDays == 0 {
		s.factory.opts.MaxDays = p.MaxDays
	}
	sum := &Summary{}
	log := middleware.Logger.With(slog.String("preset", p.Name), slog.Bool("dry_run", s.opts.DryRun))
	log.InfoContext(ctx, "seeding started")

	writers, err := s.createUsers(p.Writers)
	if err != nil {
		return nil, fmt.Errorf("create writers: %w", err)
	}
	sum.Writers = len(writers)
	readers, err := s.createUsers(p.Readers)
	if err != nil {
		return nil, fmt.Errorf("create readers: %w", err)
	}
	sum.Readers = len(readers)

	var published []*models.Article
	for _, w := range writers {
		pub, feat, draft := computeCounts(p.ArticlesPerWriter, p.Distribution)
		batch := make([]*models.Article, 0, p.ArticlesPerWriter)
		for i := 0; i < pub; i++ {
			batch = append(batch, s.factory.BuildArticle(w, p.Topics, Publish))
		}
		for i := 0; i < feat; i++ {
			batch = append(batch, s.factory.BuildArticle(w, p.Topics, Feature))
		}
		for i := 0; i < draft; i++ {
			batch = append(batch, s.factory.BuildArticle(w, p.Topics))
		}
		if err := s.factory.CreateArticlesBatch(batch); err != nil {
			return nil, fmt.Errorf("create articles: %w", err)
		}
		published = append(published, batch[:pub+feat]...)
		sum.Published += pub
		sum.Featured += feat
		sum.Drafts += draft
	}
	log.InfoContext(ctx, "articles created", slog.Int("published", sum.Published+sum.Featured), slog.Int("drafts", sum.Drafts))

	everyone := append(append([]*models.Profile{}, writers...), readers...)
	for _, a := range published {
		for _, i := range s.pick(len(everyone), p.LikesPerArticle) {
			if everyone[i].ID == a.AuthorID {
				continue
			}
			if err := s.factory.CreateLike(everyone[i], a); err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
			sum.Likes++
		}
		for _, i := range s.pick(len(everyone), p.CommentsPerArticle) {
			if _, err := s.factory.CreateComment(everyone[i], a); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}

	for _, r := range readers {
		for _, i := range s.pick(len(writers), p.FollowsPerReader) {
			if err := s.factory.CreateFollow(r, writers[i]); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			sum.Follows++
		}
	}

	if err := s.ReconcileCounters(ctx); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "seeding completed",
		slog.Int("writers", sum.Writers), slog.Int("readers", sum.Readers),
		slog.Int("likes", sum.Likes), slog.Int("comments", sum.Comments), slog.Int("follows", sum.Follows))
	return sum, nil
}

func (s *Seeder) createUsers(n int) ([]*models.Profile, error) {
	users := make([]*models.Profile, 0, n)
	for i := 0; i < n; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// pick returns up to k distinct indexes below n.
func (s *Seeder) pick(n, k int) []int {
	if k > n {
		k = n
	}
	return s.factory.rng.Perm(n)[:k]
}

// ReconcileCounters recomputes likes, comments and follow counters from the
// edge tables.
func (s *Seeder) ReconcileCounters(ctx context.Context) error {
	if s.opts.DryRun {
		return nil
	}
	stmts := []string{
		`UPDATE articles SET
			likes_count = (SELECT COUNT(*) FROM article_likes WHERE article_likes.article_id = articles.id),
			comments_count = (SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id)`,
		`UPDATE profiles SET
			followers_count = (SELECT COUNT(*) FROM follows WHERE follows.following_id = profiles.id),
			following_count = (SELECT COUNT(*) FROM follows WHERE follows.follower_id = profiles.id)`,
	}
	for _, stmt := range stmts {
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("reconcile counters: %w", err)
		}
	}
	return nil
}
