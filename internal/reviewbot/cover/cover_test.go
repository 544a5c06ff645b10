package cover

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
)

func TestRender(t *testing.T) {
	post := writer.Assemble(writer.Parsed{
		Title: strings.Repeat("Sahel states deepen cooperation as ECOWAS talks stall ", 4),
		Tags:  []string{"aes", "sahel", "ecowas", "sovereignty", "extra"},
	}, nil, time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC), "")

	out := filepath.Join(t.TempDir(), "covers", FileName(post.Slug))
	r := NewRenderer()
	if err := r.Render(post, out); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("expected a valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 630 {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
	if got := filepath.Base(out); got != "week-of-2025-12-08.png" {
		t.Fatalf("unexpected file name %s", got)
	}
}

func TestRender_MissingFont(t *testing.T) {
	r := NewRenderer()
	r.FontPath = filepath.Join(t.TempDir(), "missing.ttf")
	post := &writer.Post{Title: "x", Slug: "s"}
	if err := r.Render(post, filepath.Join(t.TempDir(), "s.png")); err == nil {
		t.Fatal("expected error for missing font")
	}
}
