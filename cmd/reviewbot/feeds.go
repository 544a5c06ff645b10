package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/pipeline"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/selector"
)

func feedsCmd(a *app) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Fetch the feeds and show which articles would be selected",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.apply(cmd, a)
			return runFeeds(cmd.Context(), a, opts)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func runFeeds(ctx context.Context, a *app, opts pipeline.Options) error {
	p, closeFn, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, f := range a.cfg.Registry().Feeds() {
		fmt.Printf("feed: %-22s %s\n", f.Name, f.URL)
	}

	fetched, selected, err := p.Preview(ctx, opts)
	if err != nil && !errors.Is(err, selector.ErrNothingToSynthesize) {
		return err
	}
	fmt.Printf("\n%d articles fetched from the last %d days, %d selected (keyword filter: %t)\n\n",
		len(fetched), opts.DaysBack, len(selected), opts.ApplyKeywordFilter)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPUBLISHED\tSOURCE\tTITLE")
	for i, art := range selected {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, humanize.Time(art.Published), art.SourceName, art.Title)
	}
	return tw.Flush()
}
