// Command main runs the database seeder for Livaulislam.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"livaulislam/internal/config"
	"livaulislam/internal/database"
	"livaulislam/internal/middleware"
	"livaulislam/internal/seed"
)

func main() {
	preset := flag.String("preset", "small", "Built-in preset ("+strings.Join(seed.PresetNames(), ", ")+") or path to a YAML preset")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing to the database")
	fast := flag.Bool("fast", false, "Skip bcrypt; seeded accounts cannot sign in")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")

	p, err := seed.LoadPreset(*preset)
	if err != nil {
		log.Fatalf("Failed to load preset: %v", err)
	}
	log.Printf("Preset %s: %d writers, %d readers, %d articles each, clean=%v dry-run=%v",
		p.Name, p.Writers, p.Readers, p.ArticlesPerWriter, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)
	if cfg.IsProduction() && !*dryRun {
		log.Fatal("Refusing to seed a production database")
	}

	opts := seed.Options{SkipBcrypt: *fast, DryRun: *dryRun}
	var s *seed.Seeder
	if *dryRun {
		s = seed.NewSeeder(nil, opts)
	} else {
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		s = seed.NewSeeder(db, opts)
	}

	ctx := context.Background()
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Apply(ctx, p)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d published, %d featured, %d drafts, %d likes, %d comments, %d follows",
		sum.Published, sum.Featured, sum.Drafts, sum.Likes, sum.Comments, sum.Follows)
	if !*fast {
		log.Printf("All seeded users have the password: %s", seed.DemoPassword)
	}
}
