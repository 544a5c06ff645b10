// Package llm provides a small, provider-neutral client for text generation.
// Gemini is reached through its REST API; DeepSeek and OpenAI share the
// OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	Gemini   Provider = "gemini"
	OpenAI   Provider = "openai"
	DeepSeek Provider = "deepseek"
)

const (
	defaultGeminiBase   = "https://generativelanguage.googleapis.com/v1beta"
	defaultOpenAIBase   = "https://api.openai.com/v1"
	defaultDeepSeekBase = "https://api.deepseek.com/v1"
)

// Config holds configuration for an LLM client.
type Config struct {
	Provider    Provider      `yaml:"provider" json:"provider" env:"LLM_PROVIDER"`
	Model       string        `yaml:"model" json:"model" env:"LLM_MODEL"`
	APIKey      string        `yaml:"api_key" json:"-" env:"LLM_API_KEY"`
	BaseURL     string        `yaml:"base_url" json:"base_url" env:"LLM_BASE_URL"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
}

// DefaultConfig returns the configuration used for weekly reviews. The
// provider is left empty so it follows the model.
func DefaultConfig() Config {
	return Config{
		Model:       "gemini-2.0-flash-exp",
		Timeout:     120 * time.Second,
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// ProviderForModel infers the provider from a model identifier.
func ProviderForModel(model string) Provider {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gemini"):
		return Gemini
	case strings.HasPrefix(m, "deepseek"):
		return DeepSeek
	default:
		return OpenAI
	}
}

// Client is the interface the rest of the codebase uses for generation.
type Client interface {
	// Generate sends a single request and returns the model's reply.
	// Implementations never retry.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Provider returns the name of the provider.
	Provider() Provider

	// Close releases any resources held by the client.
	Close() error
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request holds the parameters for a generation request. A zero MaxTokens
// and a nil Temperature fall back to the client's Config; a Temperature of
// 0 is sent as is.
type Request struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	JSONMode    bool      `json:"json_mode,omitempty"`
}

// Temperature returns a pointer to t for use in Request.
func Temperature(t float64) *float64 { return &t }

// Response holds the result of a generation.
type Response struct {
	Content      string  `json:"content"`
	FinishReason string  `json:"finish_reason,omitempty"`
	TokensIn     int     `json:"tokens_in"`
	TokensOut    int     `json:"tokens_out"`
	Cost         float64 `json:"cost"`
	Model        string  `json:"model"`
	LatencyMs    int64   `json:"latency_ms"`
}

// APIError is returned when a provider answers with a non-2xx status.
type APIError struct {
	Provider   Provider
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Message)
}

// NewClient creates a client for cfg. An empty Provider is inferred from the model.
func NewClient(cfg Config) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("LLM model is required")
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderForModel(cfg.Model)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	switch cfg.Provider {
	case Gemini:
		return newGeminiClient(cfg)
	case OpenAI:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOpenAIBase
		}
		return newOpenAIClient(cfg)
	case DeepSeek:
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultDeepSeekBase
		}
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func pick(reqVal, cfgVal int) int {
	if reqVal > 0 {
		return reqVal
	}
	return cfgVal
}

// temperature resolves the sampling temperature sent to the provider. The
// result is never nil, so 0 reaches the API instead of the provider default.
func temperature(req *Request, cfg Config) *float64 {
	if req.Temperature != nil {
		return Temperature(*req.Temperature)
	}
	return Temperature(cfg.Temperature)
}
