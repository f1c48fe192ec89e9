// Package studio holds the writing rules shared by the API and the client:
// slugs, reading time, excerpts and tag lists.
package studio

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// WordsPerMinute is the reading speed used for estimates.
	WordsPerMinute = 200
	// ExcerptLength is the number of characters kept by DeriveExcerpt.
	ExcerptLength = 200
	// MaxTags is the tag cap of an article.
	MaxTags = 5
)

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	markupTag   = regexp.MustCompile(`<[^>]*>`)
)

// GenerateSlug derives a URL-safe slug from a title.
// "My Cool, Title!" becomes "my-cool-title".
func GenerateSlug(title string) string {
	slug := nonAlnumRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// StripMarkup removes HTML tags.
func StripMarkup(content string) string {
	return markupTag.ReplaceAllString(content, " ")
}

// WordCount counts whitespace separated words after stripping markup.
func WordCount(content string) int {
	return len(strings.Fields(StripMarkup(content)))
}

// ReadingTime returns ceil(words/200) minutes.
func ReadingTime(content string) int {
	words := WordCount(content)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// DeriveExcerpt returns the first 200 characters of the stripped content
// followed by an ellipsis.
func DeriveExcerpt(content string) string {
	text := strings.Join(strings.Fields(StripMarkup(content)), " ")
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) > ExcerptLength {
		text = string([]rune(text)[:ExcerptLength])
	}
	return text + "..."
}
