package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveFeedFetch(t *testing.T) {
	before := testutil.ToFloat64(FeedFetchTotal.WithLabelValues("test-feed", "error"))
	ObserveFeedFetch("test-feed", errors.New("boom"), 150*time.Millisecond)
	after := testutil.ToFloat64(FeedFetchTotal.WithLabelValues("test-feed", "error"))
	if after-before != 1 {
		t.Fatalf("expected error counter to grow by 1, got %v", after-before)
	}
}

func TestObserveGeneration(t *testing.T) {
	ObserveGeneration("test-model", 2*time.Second, 100, 40)
	if got := testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test-model", "output")); got < 40 {
		t.Fatalf("expected at least 40 output tokens, got %v", got)
	}
}

func TestMustRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	MustRegister(reg)
}
