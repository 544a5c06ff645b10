package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// geminiClient implements Client for the Gemini generateContent API.
type geminiClient struct {
	cfg  Config
	http *http.Client
	base string
}

func newGeminiClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	base := defaultGeminiBase
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &geminiClient{
		cfg:  cfg,
		base: base,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *geminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	gReq := geminiRequest{
		GenerationConfig: &geminiGenConfig{
			MaxOutputTokens: pick(req.MaxTokens, c.cfg.MaxTokens),
			Temperature:     temperature(req, c.cfg),
		},
	}
	if req.System != "" {
		gReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		gReq.Contents = append(gReq.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	if req.JSONMode {
		gReq.GenerationConfig.ResponseMimeType = "application/json"
	}
	// 2.5 models think by default and spend the output budget doing it.
	if strings.HasPrefix(c.cfg.Model, "gemini-2.5") {
		gReq.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: 0}
	}

	body, err := json.Marshal(gReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.base, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var gResp geminiResponse
	if err := json.Unmarshal(respBody, &gResp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, &APIError{Provider: Gemini, StatusCode: httpResp.StatusCode, Message: string(respBody)}
		}
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if gResp.Error != nil {
		return nil, &APIError{Provider: Gemini, StatusCode: gResp.Error.Code, Message: gResp.Error.Message}
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: Gemini, StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in Gemini response")
	}

	var text strings.Builder
	for _, p := range gResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	in, out := gResp.UsageMetadata.PromptTokenCount, gResp.UsageMetadata.CandidatesTokenCount
	return &Response{
		Content:      text.String(),
		FinishReason: gResp.Candidates[0].FinishReason,
		TokensIn:     in,
		TokensOut:    out,
		Cost:         EstimateCost(c.cfg.Model, in, out),
		Model:        c.cfg.Model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, nil
}

func (c *geminiClient) Provider() Provider { return Gemini }
func (c *geminiClient) Close() error       { return nil }
