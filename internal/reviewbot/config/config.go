// Package config provides reviewbot configuration management.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/scheduler"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/sources"
	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
	appconfig "github.com/RobinCoderZhao/panafrican-review/pkg/config"
	"github.com/RobinCoderZhao/panafrican-review/pkg/llm"
	"github.com/RobinCoderZhao/panafrican-review/pkg/notify"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "reviewbot.yaml"

// Config is the main configuration for reviewbot.
type Config struct {
	LLM      llm.Config     `yaml:"llm"`
	Run      RunConfig      `yaml:"run"`
	Feeds    []sources.Feed `yaml:"feeds"`
	Keywords []string       `yaml:"keywords" env:"REVIEWBOT_KEYWORDS"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Output   OutputConfig   `yaml:"output"`
	Cover    CoverConfig    `yaml:"cover"`
	Notify   NotifyConfig   `yaml:"notify"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`
}

// RunConfig holds the per-run selection and attribution settings.
type RunConfig struct {
	DaysBack           int           `yaml:"days_back" env:"REVIEWBOT_DAYS"`
	MaxArticles        int           `yaml:"max_articles" env:"REVIEWBOT_MAX_ARTICLES"`
	ApplyKeywordFilter bool          `yaml:"apply_keyword_filter"`
	Author             string        `yaml:"author"`
	FocusTopics        []string      `yaml:"focus_topics"`
	Timeout            time.Duration `yaml:"timeout"`           // whole run
	SynthesisTimeout   time.Duration `yaml:"synthesis_timeout"` // LLM call only
}

// FetchConfig controls feed retrieval.
type FetchConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

// OutputConfig controls where posts and the run index live.
type OutputConfig struct {
	Dir       string `yaml:"dir" env:"REVIEWBOT_OUTPUT_DIR"`
	IndexPath string `yaml:"index_path" env:"REVIEWBOT_DB"`
}

// CoverConfig controls cover image rendering.
type CoverConfig struct {
	Enabled   bool   `yaml:"enabled" env:"REVIEWBOT_COVER"`
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
	FontPath  string `yaml:"font_path"`
}

// NotifyConfig holds draft notification channels. A channel is enabled
// when its destination is set.
type NotifyConfig struct {
	BaseURL  string                `yaml:"base_url"`
	Webhook  notify.WebhookConfig  `yaml:"webhook"`
	Telegram notify.TelegramConfig `yaml:"telegram"`
}

// ScheduleConfig holds settings for the schedule command.
type ScheduleConfig struct {
	Cron        string `yaml:"cron" env:"REVIEWBOT_CRON"`
	Timezone    string `yaml:"timezone" env:"REVIEWBOT_TIMEZONE"`
	RunOnStart  bool   `yaml:"run_on_start"`
	MetricsAddr string `yaml:"metrics_addr" env:"REVIEWBOT_METRICS_ADDR"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"REVIEWBOT_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"REVIEWBOT_LOG_FORMAT"` // text or json
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LLM: llm.DefaultConfig(),
		Run: RunConfig{
			DaysBack:           7,
			MaxArticles:        15,
			ApplyKeywordFilter: true,
			Author:             writer.DefaultAuthor,
			Timeout:            10 * time.Minute,
			SynthesisTimeout:   3 * time.Minute,
		},
		Feeds:    sources.DefaultFeeds(),
		Keywords: sources.DefaultKeywords(),
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "reviewbot/1.0 (+https://github.com/RobinCoderZhao/panafrican-review)",
		},
		Output: OutputConfig{
			Dir:       "data/blogs",
			IndexPath: "data/reviewbot.db",
		},
		Cover: CoverConfig{
			Dir:       "data/covers",
			URLPrefix: "/covers",
		},
		Schedule: ScheduleConfig{
			Cron:     scheduler.DefaultSchedule,
			Timezone: "UTC",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath
	}
	if err := appconfig.LoadOrDefault(path, &cfg); err != nil {
		return cfg, err
	}
	cfg.resolveAPIKey()
	return cfg, cfg.Validate()
}

// SetModel switches the model, re-inferring the provider and the API key
// fallback for it.
func (c *Config) SetModel(model string) {
	if model == c.LLM.Model {
		return
	}
	c.LLM.Model = model
	c.LLM.Provider = ""
	if os.Getenv("LLM_API_KEY") == "" {
		c.LLM.APIKey = ""
		c.resolveAPIKey()
	}
}

// resolveAPIKey falls back to the provider's conventional variable when
// LLM_API_KEY is unset.
func (c *Config) resolveAPIKey() {
	if c.LLM.APIKey != "" {
		return
	}
	provider := c.LLM.Provider
	if provider == "" {
		provider = llm.ProviderForModel(c.LLM.Model)
	}
	c.LLM.APIKey = os.Getenv(APIKeyEnv(provider))
}

// APIKeyEnv returns the provider-specific API key variable.
func APIKeyEnv(p llm.Provider) string {
	switch p {
	case llm.Gemini:
		return "GEMINI_API_KEY"
	case llm.DeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Registry builds the feed registry for a run.
func (c Config) Registry() sources.Registry {
	return sources.NewRegistry(c.Feeds, c.Keywords)
}

// Validate checks values that cannot be repaired by defaults.
func (c Config) Validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("config: no feeds configured")
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("config: feed %d (%q) has no url", i, f.Name)
		}
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("config: output.dir is empty")
	}
	return nil
}
