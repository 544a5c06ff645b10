package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/cover"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/pipeline"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/publisher"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/store"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
	"github.com/RobinCoderZhao/panafrican-review/pkg/clock"
	"github.com/RobinCoderZhao/panafrican-review/pkg/notify"
)

// newPipeline wires a pipeline from the loaded configuration. The returned
// func releases the run index.
func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	cfg := a.cfg
	clk := clock.System()

	parser := sources.NewFeedParser(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	fetcher := sources.NewFeedFetcher(cfg.Registry(), parser,
		sources.WithClock(clk),
		sources.WithConcurrency(cfg.Fetch.Concurrency),
	)

	deps := pipeline.Deps{
		Fetcher:  fetcher,
		Keywords: cfg.Keywords,
		Store:    store.NewFileStore(cfg.Output.Dir),
		LLM:      cfg.LLM,
		Writer: writer.Config{
			Author:      cfg.Run.Author,
			FocusTopics: cfg.Run.FocusTopics,
		},
		Clock:            clk,
		RunTimeout:       cfg.Run.Timeout,
		SynthesisTimeout: cfg.Run.SynthesisTimeout,
	}

	closeFn := func() {}
	if cfg.Output.IndexPath != "" {
		ix, err := store.OpenIndex(ctx, cfg.Output.IndexPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open run index: %w", err)
		}
		deps.Index = ix
		closeFn = func() { ix.Close() }
	}

	if cfg.Cover.Enabled {
		r := cover.NewRenderer()
		r.FontPath = cfg.Cover.FontPath
		deps.Cover = r
		deps.CoverDir = cfg.Cover.Dir
		deps.CoverURLPrefix = cfg.Cover.URLPrefix
	}

	dispatcher := notify.NewDispatcher(nil)
	if cfg.Notify.Webhook.URL != "" {
		dispatcher.Register(notify.NewWebhookNotifier(cfg.Notify.Webhook))
	}
	if cfg.Notify.Telegram.BotToken != "" && cfg.Notify.Telegram.ChannelID != "" {
		dispatcher.Register(notify.NewTelegramNotifier(cfg.Notify.Telegram))
	}
	if channels := dispatcher.Channels(); len(channels) > 0 {
		slog.Debug("draft notifications enabled", "channels", channels)
		deps.Publisher = publisher.New(dispatcher, cfg.Notify.BaseURL)
	}

	return pipeline.New(deps), closeFn, nil
}

// options returns run options from the configuration.
func (a *app) options() pipeline.Options {
	return pipeline.Options{
		Model:              a.cfg.LLM.Model,
		DaysBack:           a.cfg.Run.DaysBack,
		MaxArticles:        a.cfg.Run.MaxArticles,
		ApplyKeywordFilter: a.cfg.Run.ApplyKeywordFilter,
		Temperature:        a.cfg.LLM.Temperature,
		MaxTokens:          a.cfg.LLM.MaxTokens,
	}
}
