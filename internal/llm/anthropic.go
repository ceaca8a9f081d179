package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

// anthropicClient implements LLMClient against the Messages API.
type anthropicClient struct {
	runner
	http *http.Client
}

// NewAnthropicClient creates an LLMClient for the Anthropic Messages API.
func NewAnthropicClient(cfg LLMConfig, observer Observer) LLMClient {
	return &anthropicClient{runner: newRunner(cfg, observer), http: newHTTPClient()}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (c *anthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return c.generate(ctx, req, func(ctx context.Context, p callParams) (string, string, error) {
		body := anthropicRequest{
			Model:       c.cfg.Model,
			MaxTokens:   p.MaxTokens,
			System:      p.System,
			Messages:    []anthropicMessage{{Role: "user", Content: p.Prompt}},
			Temperature: p.Temperature,
		}
		headers := map[string]string{
			"x-api-key":         c.cfg.APIKey,
			"anthropic-version": anthropicVersion,
		}

		var resp anthropicResponse
		if err := postJSON(ctx, c.http, ProviderAnthropic, c.cfg.Endpoint+"/messages", headers, body, &resp); err != nil {
			return "", "", err
		}

		var text strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		if text.Len() == 0 {
			return "", "", fmt.Errorf("%w: no text content returned", ErrInvalidOutput)
		}
		return strings.TrimSpace(text.String()), resp.Model, nil
	})
}

func (c *anthropicClient) Available(context.Context) bool {
	return c.cfg.APIKey != ""
}
