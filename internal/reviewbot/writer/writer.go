package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/selector"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
	"github.com/RobinCoderZhao/panafrican-review/pkg/llm"
	"github.com/RobinCoderZhao/panafrican-review/pkg/metrics"
)

// Config holds generation settings for the writer.
type Config struct {
	Author       string
	MaxTokens    int
	Temperature  float64
	FocusTopics  []string
	SystemPrompt string
}

// Writer produces a draft post from selected articles.
type Writer struct {
	client llm.Client
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a Writer. A nil clock uses the system clock.
func New(client llm.Client, clk clock.Clock, cfg Config) *Writer {
	if clk == nil {
		clk = clock.System()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = SystemPrompt
	}
	if cfg.Author == "" {
		cfg.Author = DefaultAuthor
	}
	return &Writer{client: client, clock: clk, cfg: cfg, logger: slog.Default()}
}

// Result is the outcome of one synthesis.
type Result struct {
	Post      *Post
	Shape     Shape
	Model     string
	TokensIn  int
	TokensOut int
	Cost      float64
	Latency   time.Duration
}

// Write sends one request to the model and assembles the reply into a
// draft post. Call failures are returned as-is; an unparseable reply still
// yields a post built from the raw text.
func (w *Writer) Write(ctx context.Context, articles []sources.Article) (*Result, error) {
	if len(articles) == 0 {
		return nil, selector.ErrNothingToSynthesize
	}

	runAt := w.clock.Now()
	w.logger.Info("generating review", "articles", len(articles), "provider", w.client.Provider())

	start := time.Now()
	resp, err := w.client.Generate(ctx, &llm.Request{
		System:      w.cfg.SystemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: BuildPrompt(articles, runAt, w.cfg.FocusTopics)}},
		MaxTokens:   w.cfg.MaxTokens,
		Temperature: llm.Temperature(w.cfg.Temperature),
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis call: %w", err)
	}
	latency := time.Since(start)
	metrics.ObserveGeneration(resp.Model, latency, resp.TokensIn, resp.TokensOut)

	parsed := ParseResponse(resp.Content)
	if parsed.Shape == ShapeFallback {
		w.logger.Warn("model reply was not JSON, using raw text as content", "length", len(resp.Content))
	}
	if resp.FinishReason == "MAX_TOKENS" || resp.FinishReason == "length" {
		w.logger.Warn("model reply was cut off by the token limit", "max_tokens", w.cfg.MaxTokens)
	}

	post := Assemble(parsed, articles, runAt, w.cfg.Author)
	w.logger.Info("review generated",
		"title", post.Title,
		"shape", parsed.Shape,
		"chars", len(post.Content),
		"reading_time", post.ReadingTime,
		"tokens_in", resp.TokensIn,
		"tokens_out", resp.TokensOut,
	)

	return &Result{
		Post:      post,
		Shape:     parsed.Shape,
		Model:     resp.Model,
		TokensIn:  resp.TokensIn,
		TokensOut: resp.TokensOut,
		Cost:      resp.Cost,
		Latency:   latency,
	}, nil
}
