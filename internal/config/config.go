// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/jess/internal/domain"
	"github.com/alexanderramin/jess/internal/llm"
	"github.com/joho/godotenv"
)

// Config is everything cmd/jess needs to wire the application.
type Config struct {
	App App
	LLM llm.LLMConfig
}

// App holds non-model settings.
type App struct {
	DBPath      string
	LogFile     string
	Environment string
	HTTPAddr    string
	SessionTTL  time.Duration

	// ResponseMode is the chat mode new sessions start in.
	ResponseMode domain.ResponseMode
	Composition  domain.Composition
}

// IsProduction reports whether JESS_ENV selects production logging.
func (a App) IsProduction() bool {
	return strings.EqualFold(a.Environment, "production")
}

// Load reads .env (if present) and then the process environment.
// A missing .env is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("finding home directory: %w", err)
	}
	base := filepath.Join(home, ".jess")

	ttl, err := time.ParseDuration(getEnv("JESS_SESSION_TTL", "2h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("invalid JESS_SESSION_TTL %q", os.Getenv("JESS_SESSION_TTL"))
	}

	mode, ok := domain.ParseResponseMode(strings.ToLower(os.Getenv("JESS_RESPONSE_MODE")))
	if !ok {
		return nil, fmt.Errorf("invalid JESS_RESPONSE_MODE %q", os.Getenv("JESS_RESPONSE_MODE"))
	}
	composition, ok := domain.ParseComposition(strings.ToLower(os.Getenv("JESS_COMPOSITION")))
	if !ok {
		return nil, fmt.Errorf("invalid JESS_COMPOSITION %q", os.Getenv("JESS_COMPOSITION"))
	}

	return &Config{
		App: App{
			DBPath:      getEnv("JESS_DB", filepath.Join(base, "jess.db")),
			LogFile:     getEnv("JESS_LOG_FILE", filepath.Join(base, "logs", "jess.log")),
			Environment: getEnv("JESS_ENV", "development"),
			HTTPAddr:    getEnv("JESS_HTTP_ADDR", ":8080"),
			SessionTTL:  ttl,

			ResponseMode: mode,
			Composition:  composition,
		},
		LLM: llm.LoadConfig(),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
