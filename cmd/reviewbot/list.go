package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/store"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
)

func listCmd(a *app) *cobra.Command {
	var status string
	var runs bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved posts, or recent runs with --runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs {
				return listRuns(cmd.Context(), a, limit)
			}
			return listPosts(a, status)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "all", "filter posts by status: draft, published or all")
	cmd.Flags().BoolVar(&runs, "runs", false, "list pipeline runs from the index instead of posts")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}

func listPosts(a *app, status string) error {
	var filter writer.Status
	switch status {
	case "all", "":
	case string(writer.StatusDraft), string(writer.StatusPublished):
		filter = writer.Status(status)
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	posts, err := store.NewFileStore(a.cfg.Output.Dir).List(filter)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Printf("No posts in %s.\n", a.cfg.Output.Dir)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tSTATUS\tDATE\tREAD\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d min\t%s\n", p.Slug, p.Status, humanize.Time(p.Date), p.ReadingTime, p.Title)
	}
	return tw.Flush()
}

func listRuns(ctx context.Context, a *app, limit int) error {
	if a.cfg.Output.IndexPath == "" {
		return errors.New("run index disabled (output.index_path is empty)")
	}
	ix, err := store.OpenIndex(ctx, a.cfg.Output.IndexPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	runs, err := ix.LatestRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tSTATUS\tSLUG\tARTICLES\tTOKENS\tCOST\tMODEL")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t$%.4f\t%s\n",
			humanize.Time(r.FinishedAt), r.Status, r.Slug, r.ArticleCount,
			humanize.Comma(int64(r.TokensIn+r.TokensOut)), r.Cost, r.Model)
	}
	return tw.Flush()
}

func showCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print a saved post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := store.NewFileStore(a.cfg.Output.Dir).Load(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(post)
			}
			printPost(post)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON")
	return cmd
}

func printPost(p *writer.Post) {
	fmt.Printf("# %s\n\n", p.Title)
	fmt.Printf("%s | %s | %s | %d min read\n", p.Date.Format("January 02, 2006"), p.Author, p.Status, p.ReadingTime)
	if len(p.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Printf("\n> %s\n\n%s\n\n", p.Excerpt, p.Content)
	fmt.Printf("## Sources (%d)\n\n", len(p.Sources))
	for i, s := range p.Sources {
		fmt.Printf("%d. %s (%s, %s)\n   %s\n", i+1, s.Title, s.SourceName, s.Published.Format("Jan 02"), s.URL)
	}
}
