package llm

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

// openaiClient implements Client for OpenAI-compatible chat completion APIs
// (OpenAI itself and DeepSeek).
type openaiClient struct {
	cfg  Config
	http *http.Client
	base string
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}
	return &openaiClient{
		cfg:  cfg,
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type openaiRequest struct {
	Model          string                `json:"model"`
	Messages       []Message             `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    *float64              `json:"temperature,omitempty"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
}

type openaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openaiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	messages := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	oReq := openaiRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   pick(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: temperature(req, c.cfg),
	}
	if req.JSONMode {
		oReq.ResponseFormat = &openaiResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(oReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp openaiErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, &APIError{Provider: c.cfg.Provider, StatusCode: httpResp.StatusCode, Message: msg}
	}

	var oResp openaiResponse
	if err := json.Unmarshal(respBody, &oResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(oResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	model := oResp.Model
	if model == "" {
		model = c.cfg.Model
	}
	return &Response{
		Content:      oResp.Choices[0].Message.Content,
		FinishReason: oResp.Choices[0].FinishReason,
		TokensIn:     oResp.Usage.PromptTokens,
		TokensOut:    oResp.Usage.CompletionTokens,
		Cost:         EstimateCost(model, oResp.Usage.PromptTokens, oResp.Usage.CompletionTokens),
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (c *openaiClient) Provider() Provider { return c.cfg.Provider }
func (c *openaiClient) Close() error       { return nil }
