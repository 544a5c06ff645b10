package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
	"github.com/RobinCoderZhao/panafrican-review/pkg/metrics"
	"github.com/RobinCoderZhao/panafrican-review/pkg/scraper"
)

// Source is a single origin of articles.
type Source interface {
	// Name returns the human-readable name of the source.
	Name() string

	// Fetch returns the source's articles published at or after cutoff.
	Fetch(ctx context.Context, cutoff time.Time) ([]Article, error)
}

// FeedParser retrieves and parses a feed. *gofeed.Parser satisfies it.
type FeedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// NewFeedParser returns a gofeed parser with a bounded HTTP client.
func NewFeedParser(timeout time.Duration, userAgent string) *gofeed.Parser {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = userAgent
	return p
}

// FeedSource reads one RSS/Atom feed.
type FeedSource struct {
	feed       Feed
	parser     FeedParser
	clock      clock.Clock
	maxEntries int
	logger     *slog.Logger
}

// NewFeedSource creates a source for feed using parser.
func NewFeedSource(feed Feed, parser FeedParser, clk clock.Clock) *FeedSource {
	return &FeedSource{
		feed:       feed,
		parser:     parser,
		clock:      clk,
		maxEntries: MaxEntriesPerFeed,
		logger:     slog.Default().With("source", feed.Name),
	}
}

func (s *FeedSource) Name() string { return s.feed.Name }

// Fetch parses the feed and converts up to maxEntries of its entries.
// Entries that fail to convert are skipped with a warning.
func (s *FeedSource) Fetch(ctx context.Context, cutoff time.Time) ([]Article, error) {
	start := time.Now()
	parsed, err := s.parser.ParseURLWithContext(s.feed.URL, ctx)
	metrics.ObserveFeedFetch(s.feed.Name, err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.feed.Name, err)
	}
	if parsed == nil {
		return nil, nil
	}

	items := parsed.Items
	if len(items) > s.maxEntries {
		items = items[:s.maxEntries]
	}

	articles := make([]Article, 0, len(items))
	for i, item := range items {
		a, err := s.convert(item)
		if err != nil {
			s.logger.Warn("skipping feed entry", "index", i, "error", err)
			metrics.FeedEntriesSkipped.WithLabelValues(s.feed.Name).Inc()
			continue
		}
		if a.Published.Before(cutoff) {
			continue
		}
		articles = append(articles, a)
	}

	s.logger.Info("fetched feed", "entries", len(items), "kept", len(articles))
	return articles, nil
}

func (s *FeedSource) convert(item *gofeed.Item) (a Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed entry: %v", r)
		}
	}()
	if item == nil {
		return Article{}, fmt.Errorf("empty entry")
	}

	title := strings.TrimSpace(scraper.ExtractText(item.Title))
	if title == "" {
		title = UntitledTitle
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	return Article{
		Title:      title,
		URL:        strings.TrimSpace(item.Link),
		Published:  s.publishedAt(item),
		Summary:    truncate(scraper.ExtractText(summary), SummaryLimit),
		SourceName: s.feed.Name,
	}, nil
}

// publishedAt prefers the published timestamp, then the updated timestamp,
// then a lenient parse of the raw strings, then the current time.
func (s *FeedSource) publishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil && !item.PublishedParsed.IsZero() {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil && !item.UpdatedParsed.IsZero() {
		return *item.UpdatedParsed
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw = strings.TrimSpace(raw); raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t
		}
	}
	return s.clock.Now()
}
