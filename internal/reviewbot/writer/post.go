// Package writer turns the selected articles into a weekly review post by
// prompting the LLM and parsing whatever it returns.
package writer

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// DefaultAuthor is the attribution written on every generated post.
const DefaultAuthor = "AI-Powered Pan-African Hub"

// WordsPerMinute is the reading speed used for ReadingTime.
const WordsPerMinute = 200

// Post is the persisted weekly review.
type Post struct {
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Date        time.Time         `json:"date"`
	Content     string            `json:"content"`
	Excerpt     string            `json:"excerpt"`
	Sources     []sources.Article `json:"sources"`
	Tags        []string          `json:"tags"`
	Author      string            `json:"author"`
	Status      Status            `json:"status"`
	ImageURL    string            `json:"image_url,omitempty"`
	ReadingTime int               `json:"reading_time"`
}

// SlugFor returns the post key for a run at t.
func SlugFor(t time.Time) string {
	return "week-of-" + t.Format("2006-01-02")
}

// EstimateReadingTime returns the whole minutes needed to read content,
// never less than one.
func EstimateReadingTime(content string) int {
	words := len(strings.Fields(content))
	minutes := int(math.RoundToEven(float64(words) / WordsPerMinute))
	return max(1, minutes)
}

// Assemble builds a draft post from parsed model output and the articles
// that were sent to the model.
func Assemble(p Parsed, selected []sources.Article, runAt time.Time, author string) *Post {
	if author == "" {
		author = DefaultAuthor
	}
	tags := slices.Clone(p.Tags)
	if tags == nil {
		tags = []string{}
	}
	srcs := slices.Clone(selected)
	if srcs == nil {
		srcs = []sources.Article{}
	}
	return &Post{
		Title:       p.Title,
		Slug:        SlugFor(runAt),
		Date:        runAt,
		Content:     p.Content,
		Excerpt:     p.Excerpt,
		Sources:     srcs,
		Tags:        tags,
		Author:      author,
		Status:      StatusDraft,
		ReadingTime: EstimateReadingTime(p.Content),
	}
}
