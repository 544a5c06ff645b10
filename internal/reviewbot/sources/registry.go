package sources

import "slices"

// Feed is a single news feed endpoint.
type Feed struct {
	Name   string   `yaml:"name" json:"name"`
	URL    string   `yaml:"url" json:"url"`
	Topics []string `yaml:"topics,omitempty" json:"topics,omitempty"`
}

// Registry is the immutable catalogue of feeds and relevance keywords used
// for a run. Build it once at startup and pass it where needed.
type Registry struct {
	feeds    []Feed
	keywords []string
}

// NewRegistry copies feeds and keywords into a new Registry.
func NewRegistry(feeds []Feed, keywords []string) Registry {
	cp := make([]Feed, len(feeds))
	for i, f := range feeds {
		f.Topics = slices.Clone(f.Topics)
		cp[i] = f
	}
	return Registry{feeds: cp, keywords: slices.Clone(keywords)}
}

// DefaultFeeds returns the built-in Pan-African feed list.
func DefaultFeeds() []Feed {
	return []Feed{
		{Name: "AllAfrica", URL: "https://allafrica.com/tools/headlines/rss/latest/", Topics: []string{"general"}},
		{Name: "Africanews", URL: "https://www.africanews.com/rss", Topics: []string{"general"}},
		{Name: "AllAfrica Headlines", URL: "https://allafrica.com/tools/headlines/rss/africa/headlines.rss", Topics: []string{"headlines"}},
	}
}

// DefaultKeywords returns the built-in relevance keywords.
func DefaultKeywords() []string {
	return []string{
		"Alliance of Sahel States",
		"AES",
		"Mali",
		"Burkina Faso",
		"Niger",
		"Ibrahim Traoré",
		"Assimi Goïta",
		"Abdourahamane Tchiani",
		"Pan-Africanism",
		"African sovereignty",
		"ECOWAS",
		"African Union",
		"Sahel",
	}
}

// DefaultRegistry returns a Registry with the built-in feeds and keywords.
func DefaultRegistry() Registry {
	return NewRegistry(DefaultFeeds(), DefaultKeywords())
}

// Feeds returns a copy of the registered feeds in registration order.
func (r Registry) Feeds() []Feed {
	return slices.Clone(r.feeds)
}

// Keywords returns a copy of the relevance keywords.
func (r Registry) Keywords() []string {
	return slices.Clone(r.keywords)
}
