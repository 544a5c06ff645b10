package differ

import "testing"

func TestCompare_NoChanges(t *testing.T) {
	r := Compare("para one\n\npara two", "para one\n\n\npara two\n")
	if r.Changed {
		t.Fatalf("expected no changes, got %+v", r)
	}
	if r.Summary() != "no changes" || r.Unified() != "" {
		t.Fatalf("unexpected output: %q %q", r.Summary(), r.Unified())
	}
}

func TestCompare_WithChanges(t *testing.T) {
	old := "## Intro\n\nMali signs pact.\n\nOutlook stays uncertain."
	new := "## Intro\n\nMali and Niger sign pact.\n\nOutlook stays uncertain.\n\nA new closing note."
	r := Compare(old, new)

	if !r.Changed {
		t.Fatal("expected changes")
	}
	if len(r.Added) != 2 || len(r.Removed) != 1 || r.Unchanged != 2 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Summary() != "2 paragraphs added, 1 removed, 2 kept" {
		t.Fatalf("summary = %q", r.Summary())
	}
	want := "--- previous\n+++ current\n-Mali signs pact.\n+Mali and Niger sign pact.\n+A new closing note.\n"
	if r.Unified() != want {
		t.Fatalf("unified = %q", r.Unified())
	}
}

func TestCompare_RepeatedParagraph(t *testing.T) {
	r := Compare("a\n\nb", "a\n\na\n\nb")
	if len(r.Added) != 1 || r.Added[0] != "a" || len(r.Removed) != 0 {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestCompare_FromEmpty(t *testing.T) {
	r := Compare("", "new content\nhere")
	if !r.Changed || len(r.Added) != 1 {
		t.Fatalf("unexpected result %+v", r)
	}
	if r.Unified() != "--- previous\n+++ current\n+new content ...\n" {
		t.Fatalf("unified = %q", r.Unified())
	}
}
