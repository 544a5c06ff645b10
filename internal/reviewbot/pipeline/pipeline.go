// Package pipeline runs one weekly review: fetch, select, synthesize,
// render the cover, persist, index and notify.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/cover"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/publisher"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/selector"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/store"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
	"github.com/RobinCoderZhao/panafrican-review/pkg/differ"
	"github.com/RobinCoderZhao/panafrican-review/pkg/llm"
	"github.com/RobinCoderZhao/panafrican-review/pkg/metrics"
)

// ErrInvalidOptions is returned by Run when Options fail validation.
var ErrInvalidOptions = errors.New("invalid run options")

// Options are the parameters of a single run.
type Options struct {
	Model              string
	DaysBack           int
	MaxArticles        int
	ApplyKeywordFilter bool
	// Temperature is sent as given, including 0.
	Temperature float64
	MaxTokens          int
	// DryRun stops after synthesis; nothing is written.
	DryRun bool
}

// Validate reports the first invalid field, wrapped in ErrInvalidOptions.
func (o Options) Validate() error {
	switch {
	case o.DaysBack < 0:
		return fmt.Errorf("%w: days back must be >= 0, got %d", ErrInvalidOptions, o.DaysBack)
	case o.MaxArticles < 1:
		return fmt.Errorf("%w: max articles must be >= 1, got %d", ErrInvalidOptions, o.MaxArticles)
	case o.Temperature < 0 || o.Temperature > 2:
		return fmt.Errorf("%w: temperature must be within [0, 2], got %g", ErrInvalidOptions, o.Temperature)
	case o.MaxTokens < 0:
		return fmt.Errorf("%w: max tokens must be >= 0, got %d", ErrInvalidOptions, o.MaxTokens)
	}
	return nil
}

// Deps are the collaborators of a Pipeline. Index, Cover and Publisher are
// optional.
type Deps struct {
	Fetcher  *sources.Fetcher
	Keywords []string
	Store    *store.FileStore
	Index    *store.Index

	// LLM is the base client configuration; Options override model and
	// generation parameters per run. NewClient defaults to llm.NewClient.
	LLM       llm.Config
	NewClient func(llm.Config) (llm.Client, error)
	Writer    writer.Config

	Cover          *cover.Renderer
	CoverDir       string
	CoverURLPrefix string

	Publisher *publisher.Publisher

	Clock            clock.Clock
	RunTimeout       time.Duration
	SynthesisTimeout time.Duration
	Logger           *slog.Logger
}

// Pipeline executes runs. Concurrent runs writing the same slug are not
// supported; callers serialize them (see the scheduler).
type Pipeline struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	if deps.NewClient == nil {
		deps.NewClient = llm.NewClient
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{deps: deps, logger: deps.Logger}
}

// Result describes a finished run.
type Result struct {
	Run      *store.Run
	Fetched  int
	Selected []sources.Article
	Post     *writer.Post
	Shape    writer.Shape
	Path     string
}

// Preview fetches and selects articles without calling the model.
func (p *Pipeline) Preview(ctx context.Context, opts Options) (fetched, selected []sources.Article, err error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	fetched, err = p.deps.Fetcher.FetchAll(ctx, p.deps.Fetcher.Cutoff(opts.DaysBack))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch articles: %w", err)
	}
	selected, err = selector.Select(fetched, selector.Options{
		Keywords:           p.deps.Keywords,
		ApplyKeywordFilter: opts.ApplyKeywordFilter,
		MaxArticles:        opts.MaxArticles,
	})
	metrics.ArticlesSelected.Set(float64(len(selected)))
	return fetched, selected, err
}

// Run executes one pipeline run. When no article survives selection it
// returns selector.ErrNothingToSynthesize and writes nothing.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Model == "" {
		opts.Model = p.deps.LLM.Model
	}
	if p.deps.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deps.RunTimeout)
		defer cancel()
	}

	startedAt := p.deps.Clock.Now()
	res := &Result{Run: &store.Run{
		Slug:      writer.SlugFor(startedAt),
		Model:     opts.Model,
		StartedAt: startedAt,
	}}
	p.logger.Info("run started", "slug", res.Run.Slug, "model", opts.Model,
		"days_back", opts.DaysBack, "max_articles", opts.MaxArticles, "keyword_filter", opts.ApplyKeywordFilter)

	fetched, selected, err := p.Preview(ctx, opts)
	res.Fetched = len(fetched)
	res.Selected = selected
	res.Run.ArticleCount = len(selected)
	if errors.Is(err, selector.ErrNothingToSynthesize) {
		p.logger.Warn("no articles selected, skipping synthesis", "fetched", len(fetched))
		p.finish(ctx, res.Run, store.RunEmpty, nil)
		return res, err
	}
	if err != nil {
		p.finish(ctx, res.Run, store.RunFailed, err)
		return res, err
	}
	p.logger.Info("articles selected", "fetched", len(fetched), "selected", len(selected))

	wr, err := p.synthesize(ctx, opts, selected)
	if err != nil {
		p.finish(ctx, res.Run, store.RunFailed, err)
		return res, err
	}
	post := wr.Post
	res.Post = post
	res.Shape = wr.Shape
	run := res.Run
	run.Slug = post.Slug
	run.Title = post.Title
	run.Excerpt = post.Excerpt
	run.Tags = post.Tags
	run.ReadingTime = post.ReadingTime
	run.ResponseShape = wr.Shape.String()
	run.TokensIn = wr.TokensIn
	run.TokensOut = wr.TokensOut
	run.Cost = wr.Cost
	if wr.Model != "" {
		run.Model = wr.Model
	}

	if opts.DryRun {
		p.finish(ctx, run, store.RunDryRun, nil)
		return res, nil
	}

	p.renderCover(post)
	run.ImageURL = post.ImageURL
	p.noteOverwrite(post)

	path, err := p.deps.Store.Save(post)
	if err != nil {
		err = fmt.Errorf("persist post: %w", err)
		p.finish(ctx, run, store.RunFailed, err)
		return res, err
	}
	res.Path = path
	run.Path = path
	p.finish(ctx, run, store.RunWritten, nil)

	// Notification failures are logged by the publisher and never fail the run.
	_ = p.deps.Publisher.DraftReady(ctx, post, path)
	return res, nil
}

func (p *Pipeline) synthesize(ctx context.Context, opts Options, selected []sources.Article) (*writer.Result, error) {
	cfg := p.deps.LLM
	if opts.Model != cfg.Model {
		// A different model may belong to a different provider.
		cfg.Model = opts.Model
		cfg.Provider = ""
	}
	// Options always carry the temperature; 0 is a valid request.
	cfg.Temperature = opts.Temperature
	if opts.MaxTokens > 0 {
		cfg.MaxTokens = opts.MaxTokens
	}
	client, err := p.deps.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	defer client.Close()

	wcfg := p.deps.Writer
	wcfg.MaxTokens = cfg.MaxTokens
	wcfg.Temperature = cfg.Temperature
	w := writer.New(client, p.deps.Clock, wcfg)

	if p.deps.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.deps.SynthesisTimeout)
		defer cancel()
	}
	return w.Write(ctx, selected)
}

// renderCover sets post.ImageURL when a cover was rendered.
func (p *Pipeline) renderCover(post *writer.Post) {
	if p.deps.Cover == nil {
		return
	}
	name := cover.FileName(post.Slug)
	path := filepath.Join(p.deps.CoverDir, name)
	if err := p.deps.Cover.Render(post, path); err != nil {
		p.logger.Warn("cover rendering failed, saving post without image", "slug", post.Slug, "error", err)
		return
	}
	post.ImageURL = strings.TrimRight(p.deps.CoverURLPrefix, "/") + "/" + name
	p.logger.Info("cover rendered", "path", path, "image_url", post.ImageURL)
}

// noteOverwrite logs what a same-day run is about to replace. The file is
// still overwritten; the run index keeps the history.
func (p *Pipeline) noteOverwrite(post *writer.Post) {
	prev, err := p.deps.Store.Load(post.Slug)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		p.logger.Warn("existing post unreadable, overwriting", "slug", post.Slug, "error", err)
		return
	}
	diff := differ.Compare(prev.Content, post.Content)
	p.logger.Warn("overwriting existing post",
		"slug", post.Slug,
		"previous_title", prev.Title,
		"previous_status", prev.Status,
		"changes", diff.Summary(),
	)
	if diff.Changed {
		p.logger.Debug("content diff", "slug", post.Slug, "diff", diff.Unified())
	}
}

// finish stamps run, counts it and stores it in the index. Index failures
// are logged only.
func (p *Pipeline) finish(ctx context.Context, run *store.Run, status store.RunStatus, runErr error) {
	run.Status = status
	run.FinishedAt = p.deps.Clock.Now()
	if runErr != nil {
		run.Error = runErr.Error()
	}
	metrics.RunsTotal.WithLabelValues(string(status)).Inc()

	if p.deps.Index != nil {
		if err := p.deps.Index.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			p.logger.Warn("record run failed", "slug", run.Slug, "error", err)
		}
	}
	attrs := []any{"slug", run.Slug, "status", status, "run_id", run.ID}
	if runErr != nil {
		p.logger.Error("run failed", append(attrs, "error", runErr)...)
		return
	}
	p.logger.Info("run finished", attrs...)
}
