package config

import (
	"testing"
	"time"

	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_PATH", "LLM_PROVIDERS", "GPT4_ENDPOINT", "CLAUDE_ENDPOINT",
		"PROMPT_RATE_LIMIT", "PROMPT_RETENTION_DAYS", "LOG_PRETTY", "PROVIDER_TIMEOUT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	// t.Setenv with "" still counts as set for LookupEnv, so reset the ones with string defaults.
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("PROVIDER_TIMEOUT", "60s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	t.Setenv("LLM_PROVIDERS", "GPT4,CLAUDE")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 60, cfg.PromptRateLimit)
	assert.Equal(t, 0, cfg.PromptRetentionDays)
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.Providers)
}

func TestFromEnv_ProviderMap(t *testing.T) {
	t.Setenv("LLM_PROVIDERS", "gpt4, claude ,MISTRAL")
	t.Setenv("GPT4_ENDPOINT", "https://gpt.example/v1")
	t.Setenv("GPT4_API_KEY", "k1")
	t.Setenv("CLAUDE_ENDPOINT", "https://claude.example/v1")
	t.Setenv("CLAUDE_API_KEY", "k2")
	t.Setenv("MISTRAL_ENDPOINT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, provider.Registry{
		"GPT4":   {URL: "https://gpt.example/v1", APIKey: "k1"},
		"CLAUDE": {URL: "https://claude.example/v1", APIKey: "k2"},
	}, cfg.Providers)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("PORT", "eighty")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("PORT", "9000")
	t.Setenv("PROMPT_RATE_LIMIT", "-1")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv("PROMPT_RATE_LIMIT", "5")
	t.Setenv("PROVIDER_TIMEOUT", "soon")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
