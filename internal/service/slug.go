package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)
	wordPattern      = regexp.MustCompile(`\S+`)
)

const slugMaxLength = 96

// Slugify lowercases a title into a URL-safe slug. Titles that reduce
// to nothing (all punctuation) fall back to a random fragment so the
// slug is never empty.
func Slugify(title string) string {
	slug := slugStripPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "post-" + uuid.NewString()[:8]
	}
	if len(slug) > slugMaxLength {
		slug = strings.Trim(slug[:slugMaxLength], "-")
	}
	return slug
}

// EstimateReadTime derives a human-readable reading time from the word
// count, assuming roughly 200 words a minute.
func EstimateReadTime(markdown string) string {
	words := len(wordPattern.FindAllString(markdown, -1))
	minutes := (words + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
