package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
)

var testNow = time.Date(2025, 12, 8, 9, 0, 0, 0, time.UTC)

type fakeParser struct {
	feeds map[string]*gofeed.Feed
	errs  map[string]error
}

func (p *fakeParser) ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error) {
	if err := p.errs[feedURL]; err != nil {
		return nil, err
	}
	if f, ok := p.feeds[feedURL]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("404 for %s", feedURL)
}

func ptr(t time.Time) *time.Time { return &t }

func item(title string, published time.Time) *gofeed.Item {
	return &gofeed.Item{
		Title:           title,
		Link:            "https://example.com/" + strings.ReplaceAll(strings.ToLower(title), " ", "-"),
		Description:     "About " + title,
		PublishedParsed: ptr(published),
	}
}

func TestFetchAll_IsolatesFailingSource(t *testing.T) {
	reg := NewRegistry([]Feed{
		{Name: "Good", URL: "https://good/rss"},
		{Name: "Broken", URL: "https://broken/rss"},
		{Name: "Also Good", URL: "https://also/rss"},
	}, nil)
	parser := &fakeParser{
		feeds: map[string]*gofeed.Feed{
			"https://good/rss": {Items: []*gofeed.Item{item("Mali elections", testNow.Add(-time.Hour))}},
			"https://also/rss": {Items: []*gofeed.Item{item("Niger trade", testNow.Add(-2*time.Hour))}},
		},
		errs: map[string]error{"https://broken/rss": errors.New("connection refused")},
	}

	f := NewFeedFetcher(reg, parser, WithClock(clock.Fixed(testNow)))
	articles, err := f.FetchAll(context.Background(), f.Cutoff(7))
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].SourceName != "Good" || articles[1].SourceName != "Also Good" {
		t.Fatalf("expected registry order, got %s then %s", articles[0].SourceName, articles[1].SourceName)
	}
}

type panicSource struct{}

func (panicSource) Name() string { return "panics" }
func (panicSource) Fetch(ctx context.Context, cutoff time.Time) ([]Article, error) {
	panic("bad feed")
}

type staticSource struct{ articles []Article }

func (s staticSource) Name() string { return "static" }
func (s staticSource) Fetch(ctx context.Context, cutoff time.Time) ([]Article, error) {
	return s.articles, nil
}

func TestFetchAll_RecoversPanickingSource(t *testing.T) {
	f := NewFetcher([]Source{panicSource{}, staticSource{articles: []Article{{Title: "kept"}}}}, WithConcurrency(1))
	articles, err := f.FetchAll(context.Background(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 || articles[0].Title != "kept" {
		t.Fatalf("expected surviving source's article, got %+v", articles)
	}
}

func TestFetchAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFetcher([]Source{staticSource{}})
	if _, err := f.FetchAll(ctx, testNow); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFeedSource_CapsEntriesAndDropsOld(t *testing.T) {
	var items []*gofeed.Item
	for i := 0; i < 25; i++ {
		items = append(items, item(fmt.Sprintf("Story %d", i), testNow.Add(-time.Duration(i)*time.Hour)))
	}
	// An old entry inside the first 20 is dropped by the cutoff.
	items[3].PublishedParsed = ptr(testNow.Add(-10 * 24 * time.Hour))

	parser := &fakeParser{feeds: map[string]*gofeed.Feed{"u": {Items: items}}}
	src := NewFeedSource(Feed{Name: "F", URL: "u"}, parser, clock.Fixed(testNow))

	articles, err := src.Fetch(context.Background(), testNow.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != MaxEntriesPerFeed-1 {
		t.Fatalf("expected %d articles, got %d", MaxEntriesPerFeed-1, len(articles))
	}
	for _, a := range articles {
		if a.Title == "Story 3" || a.Title == "Story 20" {
			t.Fatalf("unexpected article %q", a.Title)
		}
	}
}

func TestFeedSource_PublishedFallbacks(t *testing.T) {
	published := testNow.Add(-time.Hour)
	updated := testNow.Add(-2 * time.Hour)

	tests := []struct {
		name string
		item *gofeed.Item
		want time.Time
	}{
		{"published wins", &gofeed.Item{Title: "a", PublishedParsed: &published, UpdatedParsed: &updated}, published},
		{"updated fallback", &gofeed.Item{Title: "b", UpdatedParsed: &updated}, updated},
		{"raw string", &gofeed.Item{Title: "c", Published: "2025-12-07T10:30:00Z"}, time.Date(2025, 12, 7, 10, 30, 0, 0, time.UTC)},
		{"clock fallback", &gofeed.Item{Title: "d"}, testNow},
		{"unparseable raw", &gofeed.Item{Title: "e", Published: "sometime last week"}, testNow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &fakeParser{feeds: map[string]*gofeed.Feed{"u": {Items: []*gofeed.Item{tt.item}}}}
			src := NewFeedSource(Feed{Name: "F", URL: "u"}, parser, clock.Fixed(testNow))
			articles, err := src.Fetch(context.Background(), testNow.Add(-7*24*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if len(articles) != 1 {
				t.Fatalf("expected 1 article, got %d", len(articles))
			}
			if !articles[0].Published.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, articles[0].Published)
			}
		})
	}
}

func TestFeedSource_NormalizesFields(t *testing.T) {
	long := strings.Repeat("é", SummaryLimit+50)
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{"u": {Items: []*gofeed.Item{
		{Title: "   ", Link: " https://x/1 ", Description: "<p>Short <b>summary</b></p>"},
		{Title: "Long one", Description: long},
		{Title: "Content only", Content: "<div>From content</div>"},
		nil,
	}}}}
	src := NewFeedSource(Feed{Name: "F", URL: "u"}, parser, clock.Fixed(testNow))

	articles, err := src.Fetch(context.Background(), testNow.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected nil entry to be skipped, got %d articles", len(articles))
	}
	if articles[0].Title != UntitledTitle || articles[0].URL != "https://x/1" || articles[0].Summary != "Short summary" {
		t.Fatalf("unexpected first article: %+v", articles[0])
	}
	if n := len([]rune(articles[1].Summary)); n != SummaryLimit {
		t.Fatalf("expected summary truncated to %d runes, got %d", SummaryLimit, n)
	}
	if articles[2].Summary != "From content" {
		t.Fatalf("expected content fallback, got %q", articles[2].Summary)
	}
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	reg := DefaultRegistry()
	feeds := reg.Feeds()
	feeds[0].Name = "mutated"
	kw := reg.Keywords()
	kw[0] = "mutated"

	if reg.Feeds()[0].Name != "AllAfrica" {
		t.Fatal("registry feeds were mutated through accessor")
	}
	if reg.Keywords()[0] != "Alliance of Sahel States" {
		t.Fatal("registry keywords were mutated through accessor")
	}
	if len(reg.Feeds()) != 3 || len(reg.Keywords()) != 13 {
		t.Fatalf("unexpected default registry sizes: %d feeds, %d keywords", len(reg.Feeds()), len(reg.Keywords()))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Goïta", 3); got != "Goï" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
	if got := truncate("abc", 5); got != "abc" {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestArticle_JSONAlwaysHasAllKeys(t *testing.T) {
	data, err := json.Marshal(Article{Title: "T", URL: "https://x/1", Published: testNow})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"title", "url", "published", "summary", "source_name"} {
		if _, ok := m[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if len(m) != 5 {
		t.Fatalf("expected exactly 5 keys, got %s", data)
	}
}
