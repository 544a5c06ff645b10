package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/scheduler"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/selector"
	"github.com/RobinCoderZhao/panafrican-review/pkg/metrics"
)

func scheduleCmd(a *app) *cobra.Command {
	var cronExpr, timezone, metricsAddr string
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate reviews on a cron schedule",
		Long:  "Run generate on a cron schedule until interrupted. A run still in progress when the next one is due causes that tick to be skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Schedule
			if cmd.Flags().Changed("cron") {
				sc.Cron = cronExpr
			}
			if cmd.Flags().Changed("timezone") {
				sc.Timezone = timezone
			}
			if cmd.Flags().Changed("metrics-addr") {
				sc.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("run-now") {
				sc.RunOnStart = runOnStart
			}
			return runSchedule(a, sc.Cron, sc.Timezone, sc.MetricsAddr, sc.RunOnStart)
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", scheduler.DefaultSchedule, "cron expression")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "timezone for the cron expression")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&runOnStart, "run-now", false, "also run once at startup")
	return cmd
}

func runSchedule(a *app, cronExpr, timezone, metricsAddr string, runOnStart bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		metrics.MustRegister(prometheus.DefaultRegisterer)
		metrics.StartServer(ctx, metricsAddr)
	}

	p, closeFn, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := scheduler.New(timezone)
	if err != nil {
		return err
	}
	job := scheduler.Job{
		Name:     "weekly-review",
		Schedule: cronExpr,
		Fn: func(ctx context.Context) error {
			_, err := p.Run(ctx, a.options())
			if errors.Is(err, selector.ErrNothingToSynthesize) {
				return nil
			}
			return err
		},
	}
	if err := s.Add(ctx, job); err != nil {
		return err
	}
	if runOnStart {
		// Failures are logged by the scheduler; keep serving the schedule.
		_ = s.RunOnce(ctx)
	}
	s.Start(ctx)
	return nil
}
