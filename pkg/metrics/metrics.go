// Package metrics exposes Prometheus collectors for review runs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbot_feed_fetch_total",
		Help: "Feed fetch attempts by source and outcome.",
	}, []string{"source", "status"})

	FeedFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewbot_feed_fetch_duration_seconds",
		Help:    "Time spent fetching and parsing one feed.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	FeedEntriesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbot_feed_entries_skipped_total",
		Help: "Feed entries skipped because they could not be parsed.",
	}, []string{"source"})

	ArticlesSelected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reviewbot_articles_selected",
		Help: "Articles handed to synthesis in the last run.",
	})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewbot_llm_generation_duration_seconds",
		Help:    "Latency of the synthesis call.",
		Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180},
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbot_llm_tokens_total",
		Help: "Tokens consumed by synthesis calls.",
	}, []string{"model", "type"})

	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewbot_runs_total",
		Help: "Pipeline runs by final status.",
	}, []string{"status"})
)

var registerOnce sync.Once

// MustRegister registers all collectors with registerer. Subsequent calls are no-ops.
func MustRegister(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			FeedFetchTotal,
			FeedFetchDuration,
			FeedEntriesSkipped,
			ArticlesSelected,
			LLMGenerationDuration,
			LLMTokensTotal,
			RunsTotal,
		)
	})
}

// ObserveFeedFetch records the outcome of a single feed fetch.
func ObserveFeedFetch(source string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	FeedFetchTotal.WithLabelValues(source, status).Inc()
	FeedFetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveGeneration records latency and token usage of a synthesis call.
func ObserveGeneration(model string, d time.Duration, tokensIn, tokensOut int) {
	LLMGenerationDuration.WithLabelValues(model).Observe(d.Seconds())
	LLMTokensTotal.WithLabelValues(model, "input").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "output").Add(float64(tokensOut))
}

// StartServer serves /metrics on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server shutdown failed", "error", err)
		}
	}()

	go func() {
		slog.Info("metrics server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
}
