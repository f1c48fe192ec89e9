package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"livaulislam/internal/middleware"

	"gorm.io/gorm"
)

// SchemaVersion records one applied SQL migration.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }

// Migrator applies and reverts versioned SQL scripts, tracking them in
// schema_versions.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator uses the embedded migrations when none are given.
func NewMigrator(db *gorm.DB, migrations ...Migration) *Migrator {
	if len(migrations) == 0 {
		migrations = GetMigrations()
	}
	return &Migrator{db: db, migrations: migrations}
}

// Applied returns the recorded versions in ascending order. A database that
// was never migrated has none.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&SchemaVersion{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.Model(&SchemaVersion{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("list schema versions: %w", err)
	}
	return versions, nil
}

// Pending returns the registered migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration in version order and returns what ran.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&SchemaVersion{}); err != nil {
		return nil, fmt.Errorf("create schema_versions: %w", err)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAppliedVersions(applied, m.migrations); err != nil {
		return nil, err
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for _, mig := range pending {
		middleware.Logger.InfoContext(ctx, "Applying migration",
			slog.Int("version", mig.Version), slog.String("name", mig.Name))
		// Script and version row commit together.
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("apply %s: %w", mig.String(), err)
			}
			return tx.Create(&SchemaVersion{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return nil, err
		}
	}
	return pending, nil
}

// Down reverts the newest applied migration, which must be version.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig := m.lookup(version)
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 || applied[len(applied)-1] != version {
		return fmt.Errorf("migration %d is not the latest applied version", version)
	}

	middleware.Logger.InfoContext(ctx, "Rolling back migration",
		slog.Int("version", version), slog.String("name", mig.Name))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("revert %s: %w", mig.String(), err)
		}
		return tx.Where("version = ?", version).Delete(&SchemaVersion{}).Error
	})
}

func (m *Migrator) lookup(version int) *Migration {
	for i := range m.migrations {
		if m.migrations[i].Version == version {
			return &m.migrations[i]
		}
	}
	return nil
}

// validateAppliedVersions rejects a database migrated by a newer build.
func validateAppliedVersions(applied []int, registered []Migration) error {
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []int
	for _, version := range applied {
		if _, ok := known[version]; !ok {
			unknown = append(unknown, version)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Ints(unknown)
	parts := make([]string, 0, len(unknown))
	for _, version := range unknown {
		parts = append(parts, fmt.Sprintf("%06d", version))
	}
	return fmt.Errorf("schema_versions lists versions this build does not know: %s", strings.Join(parts, ", "))
}
