// Package scraper turns HTML fragments found in feeds into plain text.
package scraper

import (
	"strings"

	"golang.org/x/net/html"
)

var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"svg": true, "iframe": true, "object": true, "form": true,
}

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "figcaption": true,
}

// ExtractText strips markup from an HTML fragment and returns its visible
// text with entities decoded and whitespace collapsed to single spaces.
// Input that contains no markup is only whitespace-normalized.
func ExtractText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpace(fragment)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode,
		Data: "body",
	})
	if err != nil {
		return collapseSpace(fragment)
	}

	var sb strings.Builder
	for _, n := range nodes {
		writeText(n, &sb)
	}
	return collapseSpace(sb.String())
}

func writeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		if skipTags[n.Data] {
			return
		}
		if blockTags[n.Data] {
			sb.WriteByte(' ')
		}
	case html.TextNode:
		sb.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(c, sb)
	}

	if n.Type == html.ElementNode && blockTags[n.Data] {
		sb.WriteByte(' ')
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
