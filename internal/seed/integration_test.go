//go:build integration

package seed

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"livaulislam/internal/config"
	"livaulislam/internal/database"
	"livaulislam/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDatabaseURLToConfig(dsn string) (*config.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}
	password := ""
	if u.User != nil {
		password, _ = u.User.Password()
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return &config.Config{
		DBDriver:     "postgres",
		DBHost:       u.Hostname(),
		DBPort:       port,
		DBUser:       u.User.Username(),
		DBPassword:   password,
		DBName:       strings.TrimPrefix(u.Path, "/"),
		DBSSLMode:    "disable",
		Env:          "test",
		DBSchemaMode: database.SchemaModeAuto,
	}, nil
}

func TestIntegration_SmallPresetOnPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration seed test")
	}
	cfg, err := parseDatabaseURLToConfig(dsn)
	require.NoError(t, err)

	db, err := database.Connect(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	s := NewSeeder(db, Options{SkipBcrypt: true, BatchSize: 50})
	require.NoError(t, s.ClearAll(ctx))

	preset, err := LoadPreset("small")
	require.NoError(t, err)
	sum, err := s.Apply(ctx, preset)
	require.NoError(t, err)

	var published int64
	require.NoError(t, db.Model(&models.Article{}).Where("published = ?", true).Count(&published).Error)
	assert.EqualValues(t, sum.Published+sum.Featured, published)
}
