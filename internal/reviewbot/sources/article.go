// Package sources fetches articles from the configured news feeds and
// normalizes them into Article records.
package sources

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// SummaryLimit is the maximum summary length, in characters, kept per article.
	SummaryLimit = 500

	// MaxEntriesPerFeed caps how many entries are read from a single feed.
	MaxEntriesPerFeed = 20

	// UntitledTitle replaces missing entry titles.
	UntitledTitle = "Untitled"
)

// Article is one normalized feed entry. Published is never zero.
type Article struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Published  time.Time `json:"published"`
	Summary    string    `json:"summary"`
	SourceName string    `json:"source_name"`
}

// NormalizedTitle is the key used for duplicate detection.
func (a Article) NormalizedTitle() string {
	return strings.ToLower(strings.TrimSpace(a.Title))
}

// truncate cuts s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
