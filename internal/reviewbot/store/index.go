package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RobinCoderZhao/panafrican-review/pkg/storage"
)

// Schema is the SQLite schema for the run index.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id             TEXT PRIMARY KEY,
    slug           TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    excerpt        TEXT NOT NULL DEFAULT '',
    tags           TEXT NOT NULL DEFAULT '[]',
    reading_time   INTEGER NOT NULL DEFAULT 0,
    article_count  INTEGER NOT NULL DEFAULT 0,
    model          TEXT NOT NULL DEFAULT '',
    response_shape TEXT NOT NULL DEFAULT '',
    tokens_in      INTEGER NOT NULL DEFAULT 0,
    tokens_out     INTEGER NOT NULL DEFAULT 0,
    cost           REAL NOT NULL DEFAULT 0,
    path           TEXT NOT NULL DEFAULT '',
    image_url      TEXT NOT NULL DEFAULT '',
    error          TEXT NOT NULL DEFAULT '',
    started_at     TEXT NOT NULL,
    finished_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS posts (
    slug       TEXT PRIMARY KEY,
    run_id     TEXT NOT NULL REFERENCES runs(id),
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_slug ON runs(slug);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// RunStatus is the final state of a pipeline run.
type RunStatus string

const (
	RunWritten RunStatus = "written"
	RunEmpty   RunStatus = "empty"
	RunFailed  RunStatus = "failed"
	RunDryRun  RunStatus = "dry_run"
)

// Run is one row of the run index.
type Run struct {
	ID            string
	Slug          string
	Status        RunStatus
	Title         string
	Excerpt       string
	Tags          []string
	ReadingTime   int
	ArticleCount  int
	Model         string
	ResponseShape string
	TokensIn      int
	TokensOut     int
	Cost          float64
	Path          string
	ImageURL      string
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Index records pipeline runs. For every slug it also tracks the run that
// last wrote the post file, so overwritten drafts remain traceable.
type Index struct {
	db *storage.DB
}

// OpenIndex opens the index database at path and applies the schema.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	db, err := storage.Open(ctx, storage.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// RecordRun stores run, assigning an ID when empty. Written runs become the
// current run for their slug.
func (ix *Index) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tags, err := json.Marshal(nonNil(run.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	return ix.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, slug, status, title, excerpt, tags, reading_time, article_count,
				model, response_shape, tokens_in, tokens_out, cost, path, image_url, error, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.Slug, string(run.Status), run.Title, run.Excerpt, string(tags), run.ReadingTime, run.ArticleCount,
			run.Model, run.ResponseShape, run.TokensIn, run.TokensOut, run.Cost, run.Path, run.ImageURL, run.Error,
			formatTime(run.StartedAt), formatTime(run.FinishedAt))
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		if run.Status != RunWritten {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO posts (slug, run_id, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET run_id = excluded.run_id, updated_at = excluded.updated_at
		`, run.Slug, run.ID, formatTime(run.FinishedAt))
		if err != nil {
			return fmt.Errorf("upsert post: %w", err)
		}
		return nil
	})
}

const runColumns = `r.id, r.slug, r.status, r.title, r.excerpt, r.tags, r.reading_time, r.article_count,
	r.model, r.response_shape, r.tokens_in, r.tokens_out, r.cost, r.path, r.image_url, r.error, r.started_at, r.finished_at`

// LatestRuns returns up to limit runs, most recent first.
func (ix *Index) LatestRuns(ctx context.Context, limit int) ([]Run, error) {
	return ix.queryRuns(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC LIMIT ?`, limit)
}

// RunsForSlug returns every run for slug, most recent first.
func (ix *Index) RunsForSlug(ctx context.Context, slug string) ([]Run, error) {
	return ix.queryRuns(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.slug = ? ORDER BY r.started_at DESC`, slug)
}

// CurrentPosts returns, for each slug, the run whose output is on disk,
// newest first.
func (ix *Index) CurrentPosts(ctx context.Context, limit int) ([]Run, error) {
	return ix.queryRuns(ctx, `SELECT `+runColumns+` FROM posts p JOIN runs r ON r.id = p.run_id
		ORDER BY p.updated_at DESC LIMIT ?`, limit)
}

func (ix *Index) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			status, tags      string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Slug, &status, &r.Title, &r.Excerpt, &tags, &r.ReadingTime, &r.ArticleCount,
			&r.Model, &r.ResponseShape, &r.TokensIn, &r.TokensOut, &r.Cost, &r.Path, &r.ImageURL, &r.Error,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = RunStatus(status)
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return nil, fmt.Errorf("decode run %s tags: %w", r.ID, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("decode run %s started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("decode run %s finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
