// reviewbot drafts a weekly Pan-African news review with an LLM.
//
// Usage:
//
//	reviewbot generate   # fetch, select, synthesize and save a draft
//	reviewbot list       # list saved posts or recent runs
//	reviewbot show SLUG  # print a saved post
//	reviewbot schedule   # run generate on a cron schedule
//	reviewbot feeds      # preview the article selection
//	reviewbot version
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/config"
)

var version = "dev"

// app carries the global flags and the configuration loaded from them.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	cfg        config.Config
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "reviewbot",
		Short:         "AI-assisted weekly Pan-African news review",
		Long:          "reviewbot fetches Pan-African news feeds, selects the week's relevant stories and drafts a review post with an LLM for human editing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	rootCmd.AddCommand(generateCmd(a))
	rootCmd.AddCommand(listCmd(a))
	rootCmd.AddCommand(showCmd(a))
	rootCmd.AddCommand(scheduleCmd(a))
	rootCmd.AddCommand(feedsCmd(a))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if err := setupLogger(cfg.Log); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func setupLogger(cfg config.LogConfig) error {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("reviewbot %s\n", version)
		},
	}
}
