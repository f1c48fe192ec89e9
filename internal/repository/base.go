// Package repository implements the data access layer for the application.
package repository

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"livaulislam/internal/database"
	"livaulislam/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercase LIKE pattern for substring search.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}

// tagPattern matches one exact element of a JSON-encoded tag list.
func tagPattern(tag string) string {
	quoted, _ := json.Marshal(tag)
	return "%" + likeEscaper.Replace(string(quoted)) + "%"
}

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author")
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("articles.published = ?", true)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// bump returns the column set shared by every versioned write.
func bump(cols map[string]interface{}) map[string]interface{} {
	if cols == nil {
		cols = map[string]interface{}{}
	}
	cols["version"] = gorm.Expr("version + 1")
	cols["updated_at"] = time.Now().UTC()
	return cols
}

const escapeClause = ` ESCAPE '\'`
