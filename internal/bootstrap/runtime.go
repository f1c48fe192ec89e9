// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"livaulislam/internal/cache"
	"livaulislam/internal/config"
	"livaulislam/internal/database"
	"livaulislam/internal/middleware"
	"livaulislam/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo applies the named preset when the database has no profiles.
	SeedDemo   bool
	SeedPreset string
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, cfg, db, opts.SeedPreset); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return db, r, nil
}

func seedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB, preset string) error {
	if cfg.IsProduction() {
		middleware.Logger.Warn("demo seeding is disabled in production")
		return nil
	}
	if preset == "" {
		preset = "small"
	}
	s := seed.NewSeeder(db, seed.Options{SkipBcrypt: false})
	empty, err := s.Empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		middleware.Logger.Info("database already has data, skipping demo seed")
		return nil
	}
	p, err := seed.LoadPreset(preset)
	if err != nil {
		return err
	}
	sum, err := s.Apply(ctx, p)
	if err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded", slog.String("preset", p.Name),
		slog.Int("writers", sum.Writers), slog.Int("readers", sum.Readers))
	return nil
}
