package services

import (
	"context"
	"io"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/validation"
)

// Media is the object-storage surface the services need.
type Media interface {
	ResolveURL(ctx context.Context, path string) string
	Size(ctx context.Context, path string) int64
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PresignUpload(ctx context.Context, key string) (string, error)
}

// ActiveOnly interprets the status query parameter: only the literal
// "false" asks for inactive rows, anything else means active rows.
func ActiveOnly(status string) bool {
	return status != "false"
}

func statusScope(column, status string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", ActiveOnly(status))
	}
}

// searchScope matches term case-insensitively against any of columns.
func searchScope(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}
		like := containsPattern(term)
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			clauses[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
			args[i] = like
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lowercased LIKE pattern that matches term
// literally anywhere in the value. Use with ESCAPE '\'.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// categoryScope filters on a category given either as an id or as a
// name/slug.
func categoryScope(column, category string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		category = strings.TrimSpace(category)
		if category == "" {
			return db
		}
		if id, ok := parseID(category); ok {
			return db.Where(column+" = ?", id)
		}
		return db.Where(column+" IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("categories").Select("id").
				Where("deleted_at IS NULL AND (LOWER(name) = ? OR slug = ?)", strings.ToLower(category), category))
	}
}

func parseID(s string) (uint64, bool) {
	id, err := validation.ParseID(s)
	return id, err == nil
}

// slugify lowercases s and joins its alphanumeric runs with dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
