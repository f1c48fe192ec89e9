// Command migrate applies, reverts and reports the database schema.
//
//	migrate up              apply pending SQL migrations
//	migrate auto            run gorm AutoMigrate over the registered models
//	migrate status          print mode, applied and pending versions
//	migrate down <version>  revert the newest applied version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"livaulislam/internal/config"
	"livaulislam/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": migrateStatus,
	"down":   migrateDown,
}

var errUsage = errors.New("usage: migrate <up|auto|status|down> [version]")

func main() {
	flag.Parse()
	if err := run(flag.Args()); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return cmd(context.Background(), db, cfg, args[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	ran, err := database.NewMigrator(db).Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, m := range ran {
		log.Printf("applied %s", m.String())
	}
	log.Printf("%d migration(s) applied", len(ran))
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("migrate auto: %w", err)
	}
	log.Print("models migrated")
	return nil
}

func migrateStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	st, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	fmt.Printf("mode:     %s (%s)\n", st.Mode, st.Environment)
	fmt.Printf("sql:      %t\nauto:     %t\n", st.WillRunSQL, st.WillRunAutoMigrate)
	fmt.Printf("applied:  %v\n", st.AppliedVersions)
	for _, m := range st.PendingMigrations {
		fmt.Printf("pending:  %s\n", m.String())
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("version %q: %w", args[0], err)
	}
	if err := database.NewMigrator(db).Down(ctx, version); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Printf("reverted %06d", version)
	return nil
}
