// Package scheduler runs review generation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs every Monday at 06:00.
const DefaultSchedule = "0 6 * * 1"

// Job represents a scheduled task.
type Job struct {
	Name     string
	Schedule string // standard 5-field cron expression or descriptor like "@weekly"
	Fn       func(ctx context.Context) error
}

// Scheduler runs jobs with robfig/cron. A job still running when its next
// tick fires is skipped for that tick.
type Scheduler struct {
	cron     *cron.Cron
	jobs     []Job
	location *time.Location
	logger   *slog.Logger
}

// New creates a scheduler in the named timezone ("" means UTC).
func New(timezone string) (*Scheduler, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}
	logger := slog.Default()
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	return &Scheduler{cron: c, location: loc, logger: logger}, nil
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location { return s.location }

// Add registers a job. ctx is passed to every invocation of job.Fn.
func (s *Scheduler) Add(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() { s.run(ctx, job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.jobs = append(s.jobs, job)
	if next, err := NextRun(job.Schedule, s.location, time.Now()); err == nil {
		s.logger.Info("job scheduled", "name", job.Name, "cron", job.Schedule, "timezone", s.location.String(), "next", next)
	}
	return nil
}

// RunOnce executes all registered jobs once, in registration order.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	for _, job := range s.jobs {
		if err := s.run(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Info("running job", "name", job.Name)
	start := time.Now()
	if err := job.Fn(ctx); err != nil {
		s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	return nil
}

// Start runs the scheduler until ctx is cancelled, then waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("scheduler started", "jobs", len(s.jobs), "timezone", s.location.String())
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// NextRun returns the first activation of expr strictly after t.
func NextRun(expr string, loc *time.Location, after time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return sched.Next(after.In(loc)), nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
