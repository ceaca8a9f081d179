package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// GenerateRequest holds the parameters for a generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
}

// GenerateResponse holds the result of a generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// LLMClient provides access to a language model for text generation.
type LLMClient interface {
	// Generate sends a prompt and returns the raw text response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Available reports whether the provider looks usable.
	Available(ctx context.Context) bool
}

// NewClient builds the LLMClient for cfg.Provider.
func NewClient(cfg LLMConfig, observer Observer) (LLMClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, observer), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, observer), nil
	case ProviderGemini:
		return NewGeminiClient(context.Background(), cfg, observer)
	case ProviderOllama:
		return NewOllamaClient(cfg, observer), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

// callParams is a request with task defaults applied.
type callParams struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// callFunc performs one provider round trip and returns the text and the
// model name the provider reported.
type callFunc func(ctx context.Context, p callParams) (text, model string, err error)

// runner carries what every provider shares: config, retry loop, timeout
// mapping and observer events.
type runner struct {
	cfg      LLMConfig
	observer Observer
}

func newRunner(cfg LLMConfig, observer Observer) runner {
	if observer == nil {
		observer = NoopObserver{}
	}
	return runner{cfg: cfg, observer: observer}
}

func (r runner) params(req GenerateRequest) callParams {
	taskCfg := r.cfg.Tasks[req.Task]
	p := callParams{
		System:      req.SystemPrompt,
		Prompt:      req.UserPrompt,
		Temperature: taskCfg.Temperature,
		MaxTokens:   taskCfg.MaxTokens,
	}
	if req.Temperature != nil {
		p.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		p.MaxTokens = *req.MaxTokens
	}
	return p
}

func (r runner) generate(ctx context.Context, req GenerateRequest, call callFunc) (*GenerateResponse, error) {
	start := time.Now()
	p := r.params(req)

	timeoutMs := r.cfg.TaskTimeout(req.Task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	made := 0

	for made < 1+r.cfg.MaxRetries {
		made++
		text, model, err := call(ctx, p)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			if model == "" {
				model = r.cfg.Model
			}
			r.observer.OnCallComplete(LLMCallEvent{
				Provider:  r.cfg.Provider,
				Task:      req.Task,
				Model:     model,
				LatencyMs: latency,
				Attempts:  made,
				Success:   true,
			})
			return &GenerateResponse{Text: text, Model: model, LatencyMs: latency}, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil {
			break
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
	}

	err := classify(ctx, lastErr, made)
	r.observer.OnCallComplete(LLMCallEvent{
		Provider:  r.cfg.Provider,
		Task:      req.Task,
		Model:     r.cfg.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  made,
		Success:   false,
		ErrorCode: errorCode(err),
	})
	return nil, err
}

// classify maps a raw provider failure onto the package sentinels.
func classify(ctx context.Context, err error, attempts int) error {
	if errors.Is(err, ErrGeneration) {
		return err
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var se *statusError
	if errors.As(err, &se) && se.unauthorized() {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if attempts > 1 {
		return fmt.Errorf("%w: %v", ErrRetryExhausted, err)
	}
	return fmt.Errorf("%w: %v", ErrGeneration, err)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
		},
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrCanceled):
		return "CANCELED"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	case errors.Is(err, ErrRetryExhausted):
		return "RETRY_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}
