package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TaskType identifies the kind of generation call being made.
type TaskType string

const (
	TaskChat       TaskType = "chat"
	TaskFactual    TaskType = "factual"
	TaskEngagement TaskType = "engagement"
	TaskReport     TaskType = "report"
)

// Provider names a hosted or local model backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the generation subsystem.
type LLMConfig struct {
	Provider   Provider
	LogCalls   bool
	Endpoint   string
	Model      string
	APIKey     string
	TimeoutMs  int
	MaxRetries int
	Tasks      map[TaskType]TaskConfig
}

var providerDefaults = map[Provider]struct {
	endpoint string
	model    string
	keyEnv   string
}{
	ProviderAnthropic: {"https://api.anthropic.com/v1", "claude-sonnet-4-5", "ANTHROPIC_API_KEY"},
	ProviderOpenAI:    {"https://api.openai.com/v1", "gpt-4o", "OPENAI_API_KEY"},
	ProviderGemini:    {"", "gemini-2.5-flash", "GEMINI_API_KEY"},
	ProviderOllama:    {"http://localhost:11434", "llama3.2", ""},
}

// DefaultConfig returns an LLMConfig with the OpenAI provider and the
// task parameters the assistant was tuned with.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:   ProviderOpenAI,
		Endpoint:   providerDefaults[ProviderOpenAI].endpoint,
		Model:      providerDefaults[ProviderOpenAI].model,
		TimeoutMs:  30000,
		MaxRetries: 0,
		Tasks: map[TaskType]TaskConfig{
			TaskChat:       {Temperature: 0.3, MaxTokens: 600},
			TaskFactual:    {Temperature: 0.1, MaxTokens: 350},
			TaskEngagement: {Temperature: 0.7, MaxTokens: 500},
			TaskReport:     {Temperature: 0.2, MaxTokens: 3000, TimeoutMs: 120000},
		},
	}
}

// LoadConfig reads configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("JESS_LLM_PROVIDER"); v != "" {
		cfg.Provider = Provider(strings.ToLower(strings.TrimSpace(v)))
		if d, ok := providerDefaults[cfg.Provider]; ok {
			cfg.Endpoint = d.endpoint
			cfg.Model = d.model
		}
	}
	if v := os.Getenv("JESS_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("JESS_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("JESS_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	cfg.APIKey = os.Getenv("JESS_LLM_API_KEY")
	if cfg.APIKey == "" {
		if env := providerDefaults[cfg.Provider].keyEnv; env != "" {
			cfg.APIKey = os.Getenv(env)
		}
	}
	if v := os.Getenv("JESS_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("JESS_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskChat, "JESS_LLM_CHAT_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskFactual, "JESS_LLM_FACTUAL_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskEngagement, "JESS_LLM_ENGAGEMENT_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskReport, "JESS_LLM_REPORT_TIMEOUT_MS")

	return cfg
}

// Validate checks that the provider is known and, for hosted providers,
// that an API key is present.
func (c LLMConfig) Validate() error {
	d, ok := providerDefaults[c.Provider]
	if !ok {
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if d.keyEnv != "" && c.APIKey == "" {
		return fmt.Errorf("%s provider needs JESS_LLM_API_KEY or %s", c.Provider, d.keyEnv)
	}
	return nil
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
