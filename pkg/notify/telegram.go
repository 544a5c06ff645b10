package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token" json:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChannelID string `yaml:"channel_id" json:"channel_id" env:"TELEGRAM_CHANNEL_ID"`
	APIBase   string `yaml:"api_base" json:"api_base,omitempty"`
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	config TelegramConfig
	http   *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPI
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &TelegramNotifier{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Channel() Channel { return ChannelTelegram }

// Send sends a message via Telegram. Plain bodies are escaped for
// MarkdownV2; markdown bodies are sent as-is.
func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	text := msg.Body
	if msg.Format != "markdown" {
		text = EscapeMarkdown(text)
	}
	if msg.Title != "" {
		text = fmt.Sprintf("*%s*\n\n%s", EscapeMarkdown(msg.Title), text)
	}
	if msg.URL != "" {
		text += fmt.Sprintf("\n\n[Open draft](%s)", msg.URL)
	}

	payload := map[string]any{
		"chat_id":    t.config.ChannelID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.config.APIBase, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("telegram API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// EscapeMarkdown escapes special characters for Telegram MarkdownV2.
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
