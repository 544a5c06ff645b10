package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
)

// Fetcher fetches all sources concurrently and merges their articles.
type Fetcher struct {
	sources     []Source
	clock       clock.Clock
	concurrency int
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock sets the clock used to compute cutoffs.
func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

// WithConcurrency bounds the number of sources fetched at once.
// Values below 1 mean one goroutine per source.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) { f.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher over the given sources.
func NewFetcher(srcs []Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		sources: srcs,
		clock:   clock.System(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFeedFetcher builds a Fetcher with one FeedSource per registry feed.
func NewFeedFetcher(reg Registry, parser FeedParser, opts ...Option) *Fetcher {
	f := NewFetcher(nil, opts...)
	for _, feed := range reg.Feeds() {
		f.sources = append(f.sources, NewFeedSource(feed, parser, f.clock))
	}
	return f
}

// Cutoff returns the oldest publish time kept for a window of daysBack days.
func (f *Fetcher) Cutoff(daysBack int) time.Time {
	return f.clock.Now().Add(-time.Duration(daysBack) * 24 * time.Hour)
}

// FetchAll fetches every source and returns the union of their articles in
// source registration order. A failing source is logged and contributes no
// articles. FetchAll itself only fails when ctx is cancelled or expires.
func (f *Fetcher) FetchAll(ctx context.Context, cutoff time.Time) ([]Article, error) {
	results := make([][]Article, len(f.sources))

	g := new(errgroup.Group)
	limit := f.concurrency
	if limit < 1 {
		limit = len(f.sources)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, src := range f.sources {
		g.Go(func() error {
			articles, err := f.fetchOne(ctx, src, cutoff)
			if err != nil {
				f.logger.Warn("source fetch failed", "source", src.Name(), "error", err)
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch sources: %w", err)
	}

	var all []Article
	for _, r := range results {
		all = append(all, r...)
	}
	f.logger.Info("fetched all sources", "sources", len(f.sources), "articles", len(all))
	return all, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source, cutoff time.Time) (articles []Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while fetching: %v", r)
		}
	}()
	return src.Fetch(ctx, cutoff)
}
