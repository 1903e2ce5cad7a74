package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int
	DatabasePath        string
	LogLevel            string
	LogPretty           bool
	AllowedOrigins      []string
	Providers           provider.Registry
	ProviderTimeout     time.Duration
	PromptRateLimit     int // requests per minute per client, 0 disables
	PromptRetentionDays int // 0 keeps prompts forever
	RetentionCron       string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvInt("PROMPT_RATE_LIMIT", 60)
	if err != nil {
		return nil, err
	}
	retentionDays, err := getEnvInt("PROMPT_RETENTION_DAYS", 0)
	if err != nil {
		return nil, err
	}
	if rateLimit < 0 || retentionDays < 0 {
		return nil, fmt.Errorf("PROMPT_RATE_LIMIT and PROMPT_RETENTION_DAYS must not be negative")
	}
	pretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}
	timeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}

	return &Config{
		ServerPort:          port,
		DatabasePath:        getEnv("DATABASE_PATH", "./llm-admin.db"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           pretty,
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		Providers:           loadProviders(splitList(getEnv("LLM_PROVIDERS", "GPT4,CLAUDE"))),
		ProviderTimeout:     timeout,
		PromptRateLimit:     rateLimit,
		PromptRetentionDays: retentionDays,
		RetentionCron:       getEnv("RETENTION_CRON", "@daily"),
	}, nil
}

// loadProviders reads <KEY>_ENDPOINT and <KEY>_API_KEY for every provider key.
// Keys without an endpoint are left out so dispatch reports them as unconfigured.
func loadProviders(keys []string) provider.Registry {
	registry := provider.Registry{}
	for _, key := range keys {
		key = strings.ToUpper(key)
		endpoint := getEnv(key+"_ENDPOINT", "")
		if endpoint == "" {
			continue
		}
		registry[key] = provider.Endpoint{
			URL:    endpoint,
			APIKey: getEnv(key+"_API_KEY", ""),
		}
	}
	return registry
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
