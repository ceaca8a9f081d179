package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_TaskParameters(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, TaskConfig{Temperature: 0.1, MaxTokens: 350}, cfg.Tasks[TaskFactual])
	assert.Equal(t, TaskConfig{Temperature: 0.7, MaxTokens: 500}, cfg.Tasks[TaskEngagement])
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Less(t, cfg.Tasks[TaskFactual].Temperature, cfg.Tasks[TaskEngagement].Temperature)
}

func TestLoadConfig_ProviderSwitchesDefaults(t *testing.T) {
	t.Setenv("JESS_LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "from-fallback")

	cfg := LoadConfig()

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "https://api.anthropic.com/v1", cfg.Endpoint)
	assert.Equal(t, "from-fallback", cfg.APIKey)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_ExplicitKeyWins(t *testing.T) {
	t.Setenv("JESS_LLM_PROVIDER", "openai")
	t.Setenv("JESS_LLM_API_KEY", "explicit")
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("JESS_LLM_ENDPOINT", "http://proxy.local/v1/")

	cfg := LoadConfig()

	assert.Equal(t, "explicit", cfg.APIKey)
	assert.Equal(t, "http://proxy.local/v1", cfg.Endpoint)
}

func TestLoadConfig_TaskTimeoutOverrides(t *testing.T) {
	t.Setenv("JESS_LLM_TIMEOUT_MS", "9000")
	t.Setenv("JESS_LLM_FACTUAL_TIMEOUT_MS", "15000")
	t.Setenv("JESS_LLM_MAX_RETRIES", "2")

	cfg := LoadConfig()

	assert.Equal(t, 9000, cfg.TimeoutMs)
	assert.Equal(t, 15000, cfg.TaskTimeout(TaskFactual))
	assert.Equal(t, 9000, cfg.TaskTimeout(TaskEngagement))
	assert.Equal(t, 120000, cfg.TaskTimeout(TaskReport))
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLoadConfig_InvalidTaskTimeoutOverrideIgnored(t *testing.T) {
	t.Setenv("JESS_LLM_REPORT_TIMEOUT_MS", "not-a-number")

	cfg := LoadConfig()

	assert.Equal(t, 120000, cfg.TaskTimeout(TaskReport))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = ""
	assert.ErrorContains(t, cfg.Validate(), "OPENAI_API_KEY")

	cfg.Provider = ProviderOllama
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "bard"
	assert.Error(t, cfg.Validate())
}
