// Package selector narrows fetched articles to the set handed to synthesis:
// keyword filter, title dedup, then recency ranking with a cap.
package selector

import (
	"errors"
	"sort"
	"strings"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
)

// ErrNothingToSynthesize is returned when no article survives selection.
var ErrNothingToSynthesize = errors.New("nothing to synthesize: no articles selected")

// FilterByKeywords keeps articles whose title or summary contains any keyword,
// case-insensitively. An empty keyword list returns the input unchanged.
func FilterByKeywords(articles []sources.Article, keywords []string) []sources.Article {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(k); k != "" {
			lowered = append(lowered, k)
		}
	}
	if len(lowered) == 0 {
		return articles
	}

	var out []sources.Article
	for _, a := range articles {
		text := strings.ToLower(a.Title + " " + a.Summary)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// Deduplicate keeps the first article for each normalized title.
func Deduplicate(articles []sources.Article) []sources.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]sources.Article, 0, len(articles))
	for _, a := range articles {
		key := a.NormalizedTitle()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Rank orders articles newest first, keeping the input order for equal
// timestamps, and returns at most limit of them. The input is not modified.
func Rank(articles []sources.Article, limit int) ([]sources.Article, error) {
	if len(articles) == 0 {
		return nil, ErrNothingToSynthesize
	}
	sorted := make([]sources.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.After(sorted[j].Published)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Options controls Select.
type Options struct {
	Keywords           []string
	ApplyKeywordFilter bool
	MaxArticles        int
}

// Select runs filter, dedup and rank in order.
func Select(articles []sources.Article, opts Options) ([]sources.Article, error) {
	if opts.ApplyKeywordFilter {
		articles = FilterByKeywords(articles, opts.Keywords)
	}
	return Rank(Deduplicate(articles), opts.MaxArticles)
}
