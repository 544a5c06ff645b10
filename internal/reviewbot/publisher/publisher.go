// Package publisher announces freshly written drafts to reviewers.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
	"github.com/RobinCoderZhao/panafrican-review/pkg/notify"
)

// Sender is the subset of notify.Dispatcher used here.
type Sender interface {
	SendAll(ctx context.Context, msg notify.Message) error
}

// Publisher sends a "draft ready" message after a post has been saved.
type Publisher struct {
	sender  Sender
	baseURL string
	logger  *slog.Logger
}

// New creates a Publisher. baseURL, when set, is joined with the slug to
// link the draft in the message.
func New(sender Sender, baseURL string) *Publisher {
	return &Publisher{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
	}
}

// DraftReady notifies every configured channel about post. Errors are
// logged and returned; callers treat them as non-fatal.
func (p *Publisher) DraftReady(ctx context.Context, post *writer.Post, path string) error {
	if p == nil || p.sender == nil {
		return nil
	}
	msg := FormatDraftReady(post, path)
	if p.baseURL != "" {
		msg.URL = p.baseURL + "/" + post.Slug
	}
	if err := p.sender.SendAll(ctx, msg); err != nil {
		p.logger.Warn("draft notification failed", "slug", post.Slug, "error", err)
		return fmt.Errorf("notify draft %s: %w", post.Slug, err)
	}
	return nil
}

// FormatDraftReady renders the review message for post.
func FormatDraftReady(post *writer.Post, path string) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", post.Excerpt)
	fmt.Fprintf(&b, "Week of %s\n", post.Date.Format("January 02, 2006"))
	fmt.Fprintf(&b, "Reading time: %d min\n", post.ReadingTime)
	fmt.Fprintf(&b, "Sources: %d articles\n", len(post.Sources))
	if len(post.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(post.Tags, ", "))
	}
	fmt.Fprintf(&b, "Saved to: %s\n\n", path)
	b.WriteString("Next steps:\n")
	b.WriteString("1. Review the generated content\n")
	b.WriteString("2. Edit if needed\n")
	fmt.Fprintf(&b, "3. Change status from %q to %q when ready to publish\n", writer.StatusDraft, writer.StatusPublished)

	return notify.Message{
		Title:  "Draft ready: " + post.Title,
		Body:   b.String(),
		Format: "plain",
	}
}
