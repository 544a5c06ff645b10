package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/config"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/pipeline"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/selector"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/store"
	"github.com/RobinCoderZhao/panafrican-review/pkg/llm"
)

// runFlags are the run parameters shared by generate and feeds. Only flags
// that were set override the configuration.
type runFlags struct {
	model       string
	days        int
	maxArticles int
	temperature float64
	maxTokens   int
	noFilter    bool
}

func (f *runFlags) register(cmd *cobra.Command, withModel bool) {
	cmd.Flags().IntVarP(&f.days, "days", "d", 7, "days of news to include")
	cmd.Flags().IntVarP(&f.maxArticles, "max-articles", "n", 15, "maximum articles sent to the model")
	cmd.Flags().BoolVar(&f.noFilter, "no-filter", false, "disable the keyword filter")
	if withModel {
		cmd.Flags().StringVarP(&f.model, "model", "m", "", "LLM model (default from config)")
		cmd.Flags().Float64VarP(&f.temperature, "temperature", "t", 0.7, "sampling temperature")
		cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 2000, "maximum output tokens")
	}
}

func (f *runFlags) apply(cmd *cobra.Command, a *app) pipeline.Options {
	if cmd.Flags().Changed("model") {
		a.cfg.SetModel(f.model)
	}
	opts := a.options()
	if cmd.Flags().Changed("days") {
		opts.DaysBack = f.days
	}
	if cmd.Flags().Changed("max-articles") {
		opts.MaxArticles = f.maxArticles
	}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = f.temperature
	}
	if cmd.Flags().Changed("max-tokens") {
		opts.MaxTokens = f.maxTokens
	}
	if f.noFilter {
		opts.ApplyKeywordFilter = false
	}
	return opts
}

func generateCmd(a *app) *cobra.Command {
	var flags runFlags
	var outputDir string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate this week's review draft",
		Long:  "Fetch the configured feeds, select relevant articles, ask the LLM for a review and save it as a draft JSON post.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.apply(cmd, a)
			opts.DryRun = dryRun
			if cmd.Flags().Changed("output-dir") {
				a.cfg.Output.Dir = outputDir
			}
			return runGenerate(a, opts)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for post JSON files (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the post instead of saving it")
	return cmd
}

func runGenerate(a *app, opts pipeline.Options) error {
	if a.cfg.LLM.APIKey == "" {
		provider := a.cfg.LLM.Provider
		if provider == "" {
			provider = llm.ProviderForModel(a.cfg.LLM.Model)
		}
		return fmt.Errorf("LLM API key not set: export LLM_API_KEY or %s", config.APIKeyEnv(provider))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeFn, err := a.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := p.Run(ctx, opts)
	if errors.Is(err, selector.ErrNothingToSynthesize) {
		fmt.Printf("No relevant articles in the last %d days; nothing to write.\n", opts.DaysBack)
		return nil
	}
	if err != nil {
		return err
	}

	if opts.DryRun {
		data, err := store.Encode(res.Post)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	post := res.Post
	fmt.Println("Review draft generated.")
	fmt.Printf("  Title:        %s\n", post.Title)
	fmt.Printf("  Slug:         %s\n", post.Slug)
	fmt.Printf("  Reading time: %d min\n", post.ReadingTime)
	fmt.Printf("  Sources:      %d of %d fetched articles\n", len(post.Sources), res.Fetched)
	if post.ImageURL != "" {
		fmt.Printf("  Cover:        %s\n", post.ImageURL)
	}
	fmt.Printf("  Saved to:     %s\n", res.Path)
	fmt.Printf("  Tokens:       %d in / %d out | Cost: $%.4f\n", res.Run.TokensIn, res.Run.TokensOut, res.Run.Cost)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review the generated content")
	fmt.Println("  2. Edit if needed")
	fmt.Println(`  3. Change status from "draft" to "published" when ready`)
	return nil
}
