package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Supported LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	LLMProvider      string
	ModelName        string
	BackendModelName string // cheaper model for routing and extraction
	AnthropicAPIKey  string
	OllamaURL        string

	RedisURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		LLMProvider:      strings.ToLower(getEnv("LLM_PROVIDER", ProviderOllama)),
		ModelName:        getEnv("MODEL_NAME", "llama3.1"),
		BackendModelName: os.Getenv("BACKEND_MODEL_NAME"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
	}

	switch cfg.LLMProvider {
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=%s", ProviderAnthropic)
		}
	case ProviderOllama:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %q", cfg.LLMProvider)
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
