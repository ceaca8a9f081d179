package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiClient implements LLMClient through the Google GenAI SDK.
type geminiClient struct {
	runner
	client *genai.Client
}

// NewGeminiClient creates an LLMClient for the Gemini API. A non-empty
// cfg.Endpoint overrides the SDK's base URL.
func NewGeminiClient(ctx context.Context, cfg LLMConfig, observer Observer) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &geminiClient{runner: newRunner(cfg, observer), client: client}, nil
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	return c.generate(ctx, req, func(ctx context.Context, p callParams) (string, string, error) {
		gc := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(p.Temperature)),
			MaxOutputTokens: int32(p.MaxTokens),
		}
		if strings.TrimSpace(p.System) != "" {
			gc.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
		}

		resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(p.Prompt), gc)
		if err != nil {
			return "", "", err
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", "", fmt.Errorf("%w: empty candidate", ErrInvalidOutput)
		}
		return text, resp.ModelVersion, nil
	})
}

func (c *geminiClient) Available(context.Context) bool {
	return c.cfg.APIKey != ""
}
