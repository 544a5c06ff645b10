// Package store persists generated posts as JSON files and keeps an SQLite
// index of pipeline runs.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
)

// ErrNotFound is returned when no post exists for a slug.
var ErrNotFound = errors.New("post not found")

// FileStore keeps one JSON document per post slug in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, logger: slog.Default()}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the file path for slug.
func (s *FileStore) Path(slug string) string {
	return filepath.Join(s.dir, slug+".json")
}

func validSlug(slug string) error {
	if slug == "" || slug != filepath.Base(slug) || strings.HasPrefix(slug, ".") {
		return fmt.Errorf("invalid slug %q", slug)
	}
	return nil
}

// Encode renders post as indented JSON without HTML escaping.
func Encode(post *writer.Post) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(post); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes post to <dir>/<slug>.json, replacing any existing file. The
// document is written to a temporary file in the same directory and renamed
// into place, so readers never observe a partial file.
func (s *FileStore) Save(post *writer.Post) (string, error) {
	if err := validSlug(post.Slug); err != nil {
		return "", fmt.Errorf("save post: %w", err)
	}
	data, err := Encode(post)
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}

	path := s.Path(post.Slug)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write post %s: %w", post.Slug, err)
	}
	s.logger.Info("post saved", "slug", post.Slug, "path", path, "bytes", len(data))
	return path, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return syncDir(filepath.Dir(path))
}

// syncDir flushes a directory entry so a completed rename survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	return d.Close()
}

// Load reads the post stored under slug.
func (s *FileStore) Load(slug string) (*writer.Post, error) {
	if err := validSlug(slug); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(slug))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("read post %s: %w", slug, err)
	}
	var post writer.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", slug, err)
	}
	return &post, nil
}

// Summary is the listing view of a post, without content or sources.
type Summary struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Excerpt     string        `json:"excerpt"`
	Date        time.Time     `json:"date"`
	Tags        []string      `json:"tags"`
	ReadingTime int           `json:"reading_time,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Status      writer.Status `json:"status"`
}

// List returns summaries of stored posts, newest first. An empty status
// lists every post. Unreadable files are logged and skipped; a missing
// directory yields an empty list.
func (s *FileStore) List(status writer.Status) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		post, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			s.logger.Warn("skipping unreadable post", "file", name, "error", err)
			continue
		}
		if status != "" && post.Status != status {
			continue
		}
		out = append(out, Summary{
			Slug:        post.Slug,
			Title:       post.Title,
			Excerpt:     post.Excerpt,
			Date:        post.Date,
			Tags:        post.Tags,
			ReadingTime: post.ReadingTime,
			ImageURL:    post.ImageURL,
			Status:      post.Status,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
