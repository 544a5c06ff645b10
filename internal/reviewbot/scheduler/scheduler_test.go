package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNew_InvalidTimezone(t *testing.T) {
	if _, err := New("Mars/Olympus_Mons"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestAdd_InvalidExpression(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	err = s.Add(context.Background(), Job{Name: "bad", Schedule: "not a cron", Fn: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestRunOnce(t *testing.T) {
	s, err := New("UTC")
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, name := range []string{"a", "b"} {
		name := name
		if err := s.Add(context.Background(), Job{Name: name, Schedule: DefaultSchedule, Fn: func(context.Context) error {
			order = append(order, name)
			return nil
		}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v", order)
	}
}

func TestRunOnce_StopsOnError(t *testing.T) {
	s, _ := New("")
	boom := errors.New("boom")
	called := false
	s.Add(context.Background(), Job{Name: "fail", Schedule: DefaultSchedule, Fn: func(context.Context) error { return boom }})
	s.Add(context.Background(), Job{Name: "next", Schedule: DefaultSchedule, Fn: func(context.Context) error { called = true; return nil }})
	if err := s.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if called {
		t.Fatal("jobs after a failure should not run")
	}
}

func TestNextRun(t *testing.T) {
	lagos, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Wednesday 10 Dec 2025 12:00 UTC.
	after := time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)
	next, err := NextRun(DefaultSchedule, lagos, after)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 12, 15, 6, 0, 0, 0, lagos)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	s, _ := New("")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
