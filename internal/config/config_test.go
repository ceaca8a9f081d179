package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".jess", "jess.db"), cfg.App.DBPath)
	assert.Equal(t, filepath.Join(home, ".jess", "logs", "jess.log"), cfg.App.LogFile)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.App.SessionTTL)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, domain.ModeSimple, cfg.App.ResponseMode)
	assert.Equal(t, domain.ComposeCarry, cfg.App.Composition)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("JESS_HTTP_ADDR=:9999\nJESS_LLM_PROVIDER=ollama\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JESS_HTTP_ADDR")
		os.Unsetenv("JESS_LLM_PROVIDER")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.App.HTTPAddr)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Provider)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("JESS_DB", "/tmp/custom.db")
	t.Setenv("JESS_ENV", "Production")
	t.Setenv("JESS_SESSION_TTL", "15m")
	t.Setenv("JESS_RESPONSE_MODE", "Dual")
	t.Setenv("JESS_COMPOSITION", "structured")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.ModeDual, cfg.App.ResponseMode)
	assert.Equal(t, domain.ComposeStructured, cfg.App.Composition)

	assert.Equal(t, "/tmp/custom.db", cfg.App.DBPath)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.App.SessionTTL)
}

func TestLoad_RejectsBadTTL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("JESS_SESSION_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "JESS_SESSION_TTL")
}

func TestLoad_RejectsUnknownComposition(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("JESS_COMPOSITION", "interleave")

	_, err := Load()
	assert.ErrorContains(t, err, "JESS_COMPOSITION")
}
