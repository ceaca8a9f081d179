package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// openAIClient implements LLMClient against the Chat Completions API.
type openAIClient struct {
	runner
	http *http.Client
}

// NewOpenAIClient creates an LLMClient for OpenAI-compatible endpoints.
func NewOpenAIClient(cfg LLMConfig, observer Observer) LLMClient {
	return &openAIClient{runner: newRunner(cfg, observer), http: newHTTPClient()}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *openAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return c.generate(ctx, req, func(ctx context.Context, p callParams) (string, string, error) {
		var msgs []openAIMessage
		if strings.TrimSpace(p.System) != "" {
			msgs = append(msgs, openAIMessage{Role: "system", Content: p.System})
		}
		msgs = append(msgs, openAIMessage{Role: "user", Content: p.Prompt})

		body := openAIRequest{
			Model:       c.cfg.Model,
			Messages:    msgs,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
		}
		headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

		var resp openAIResponse
		if err := postJSON(ctx, c.http, ProviderOpenAI, c.cfg.Endpoint+"/chat/completions", headers, body, &resp); err != nil {
			return "", "", err
		}
		if len(resp.Choices) == 0 {
			return "", "", fmt.Errorf("%w: no choices returned", ErrInvalidOutput)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), resp.Model, nil
	})
}

func (c *openAIClient) Available(context.Context) bool {
	return c.cfg.APIKey != ""
}
