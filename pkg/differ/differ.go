// Package differ compares two versions of a markdown document paragraph by
// paragraph.
package differ

import (
	"fmt"
	"strings"
)

// Result holds the paragraphs that differ between two versions.
type Result struct {
	Changed   bool     `json:"changed"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged int      `json:"unchanged"`
}

// Paragraphs splits markdown text on blank lines, trimming each paragraph
// and dropping empty ones.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Compare reports which paragraphs of newText are not in oldText and vice
// versa. Repeated paragraphs are counted, so a duplicated paragraph shows
// up as one addition.
func Compare(oldText, newText string) Result {
	oldParas := Paragraphs(oldText)
	newParas := Paragraphs(newText)

	remaining := make(map[string]int, len(oldParas))
	for _, p := range oldParas {
		remaining[p]++
	}

	var r Result
	for _, p := range newParas {
		if remaining[p] > 0 {
			remaining[p]--
			r.Unchanged++
			continue
		}
		r.Added = append(r.Added, p)
	}
	for _, p := range oldParas {
		if remaining[p] > 0 {
			remaining[p]--
			r.Removed = append(r.Removed, p)
		}
	}
	r.Changed = len(r.Added) > 0 || len(r.Removed) > 0
	return r
}

// Unified renders removed paragraphs prefixed with "-" and added ones with "+".
func (r Result) Unified() string {
	if !r.Changed {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("--- previous\n+++ current\n")
	for _, p := range r.Removed {
		fmt.Fprintf(&sb, "-%s\n", firstLine(p))
	}
	for _, p := range r.Added {
		fmt.Fprintf(&sb, "+%s\n", firstLine(p))
	}
	return sb.String()
}

// Summary returns a short human-readable description.
func (r Result) Summary() string {
	if !r.Changed {
		return "no changes"
	}
	return fmt.Sprintf("%d paragraphs added, %d removed, %d kept", len(r.Added), len(r.Removed), r.Unchanged)
}

func firstLine(p string) string {
	if i := strings.IndexByte(p, '\n'); i >= 0 {
		return p[:i] + " ..."
	}
	return p
}
