package writer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Shape identifies which response form a reply was recovered from.
type Shape int

const (
	ShapeObject     Shape = iota // the whole reply is a JSON object
	ShapeFencedJSON              // a ```json fenced block
	ShapeFenced                  // text between the first and last ``` fence
	ShapeFallback                // nothing parsed; the reply is the content
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeFencedJSON:
		return "fenced_json"
	case ShapeFenced:
		return "fenced"
	default:
		return "fallback"
	}
}

const (
	FallbackTitle   = "Pan-African Weekly Review"
	FallbackExcerpt = "AI-generated weekly review of Pan-African developments"
)

// FallbackTags returns the tags used when the model supplies none.
func FallbackTags() []string {
	return []string{"weekly-review", "pan-african"}
}

// Parsed holds the fields recovered from a model reply.
type Parsed struct {
	Shape   Shape
	Title   string
	Content string
	Excerpt string
	Tags    []string
}

var fencedJSONRe = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")

// ParseResponse recovers title, content, excerpt and tags from raw. It tries
// a bare JSON object, then a ```json block, then whatever sits between the
// first and last ``` fence. When none of those decode, the trimmed reply
// becomes the content and the fallback title, excerpt and tags are used.
// It never fails.
func ParseResponse(raw string) Parsed {
	trimmed := strings.TrimSpace(raw)

	if p, ok := decodeObject(trimmed); ok {
		p.Shape = ShapeObject
		return p
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if p, ok := decodeObject(m[1]); ok {
			p.Shape = ShapeFencedJSON
			return p
		}
	}

	first := strings.Index(trimmed, "```")
	last := strings.LastIndex(trimmed, "```")
	if first >= 0 && last > first {
		inner := trimmed[first+3 : last]
		if p, ok := decodeObject(inner); ok {
			p.Shape = ShapeFenced
			return p
		}
		// Drop an info string such as "JSON" or "javascript" on the fence line.
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			if p, ok := decodeObject(inner[nl+1:]); ok {
				p.Shape = ShapeFenced
				return p
			}
		}
	}

	return Parsed{
		Shape:   ShapeFallback,
		Title:   FallbackTitle,
		Content: trimmed,
		Excerpt: FallbackExcerpt,
		Tags:    FallbackTags(),
	}
}

// decodeObject decodes s as a JSON object with at least a title or content.
// Missing titles and tags take their fallback values.
func decodeObject(s string) (Parsed, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return Parsed{}, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return Parsed{}, false
	}

	p := Parsed{
		Title:   stringField(obj, "title"),
		Content: stringField(obj, "content"),
		Excerpt: stringField(obj, "excerpt"),
		Tags:    tagsField(obj["tags"]),
	}
	if p.Title == "" && p.Content == "" {
		return Parsed{}, false
	}
	if p.Title == "" {
		p.Title = FallbackTitle
	}
	if _, ok := obj["tags"]; !ok {
		p.Tags = FallbackTags()
	}
	return p, true
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

// tagsField accepts a list of strings or a single comma-separated string.
func tagsField(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
