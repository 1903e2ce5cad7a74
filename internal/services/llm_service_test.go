package services

import (
	"context"
	"testing"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLLM(name, provider string) models.LLM {
	return models.LLM{Name: name, Provider: provider, Enabled: true, Config: models.DefaultLLMConfig()}
}

func TestCreateLLM_AppearsInListWithSameValues(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	ctx := context.Background()

	in := newLLM("GPT4", "OpenAI")
	in.Endpoint = "https://api.example/v1"
	in.APIKey = "k"
	created, err := s.CreateLLM(ctx, in)
	require.NoError(t, err)
	assert.True(t, created.HasAPIKey)

	all, err := s.GetAllLLMs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Provider, got.Provider)
	assert.Equal(t, created.Endpoint, got.Endpoint)
	assert.Equal(t, created.APIKey, got.APIKey)
	assert.Equal(t, created.Enabled, got.Enabled)
	assert.Equal(t, created.Config, got.Config)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateLLM_RequiresNameAndProvider(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	ctx := context.Background()

	_, err := s.CreateLLM(ctx, newLLM("", "OpenAI"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateLLM(ctx, newLLM("GPT4", " "))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateLLM_RejectsOutOfRangeConfig(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	in := newLLM("GPT4", "OpenAI")
	in.Config.Temperature = 5
	_, err := s.CreateLLM(context.Background(), in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateLLM_AllowsDuplicates(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	ctx := context.Background()

	a, err := s.CreateLLM(ctx, newLLM("GPT4", "OpenAI"))
	require.NoError(t, err)
	b, err := s.CreateLLM(ctx, newLLM("GPT4", "OpenAI"))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	all, err := s.GetAllLLMs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateLLM_OnlyChangesSubmittedFields(t *testing.T) {
	n := &recordingNotifier{}
	s := NewLLMService(setupDB(t), n)
	ctx := context.Background()

	in := newLLM("GPT4", "OpenAI")
	in.Endpoint = "https://api.example/v1"
	created, err := s.CreateLLM(ctx, in)
	require.NoError(t, err)

	provider := "Azure OpenAI"
	maxTokens := 512
	updated, err := s.UpdateLLM(ctx, created.ID, models.LLMPatch{Provider: &provider, MaxTokens: &maxTokens})
	require.NoError(t, err)

	got, err := s.GetLLMByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Provider, got.Provider)
	assert.Equal(t, "Azure OpenAI", got.Provider)
	assert.Equal(t, "GPT4", got.Name)
	assert.Equal(t, "https://api.example/v1", got.Endpoint)
	assert.True(t, got.Enabled)
	assert.Equal(t, 512, got.Config.MaxTokens)
	assert.Equal(t, 0.7, got.Config.Temperature)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, []string{"llm.created", "llm.updated"}, n.Actions())
}

func TestUpdateLLM_NotFound(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	name := "x"
	_, err := s.UpdateLLM(context.Background(), "nope", models.LLMPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteLLM_RemovesFromList(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	ctx := context.Background()

	keep, err := s.CreateLLM(ctx, newLLM("CLAUDE", "Anthropic"))
	require.NoError(t, err)
	gone, err := s.CreateLLM(ctx, newLLM("GPT4", "OpenAI"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteLLM(ctx, gone.ID))

	all, err := s.GetAllLLMs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	assert.ErrorIs(t, s.DeleteLLM(ctx, gone.ID), ErrNotFound)
}

func TestToggleAndConfigLifecycle(t *testing.T) {
	s := NewLLMService(setupDB(t), nil)
	ctx := context.Background()

	created, err := s.CreateLLM(ctx, newLLM("GPT4", "OpenAI"))
	require.NoError(t, err)

	toggled, err := s.ToggleLLM(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	cfg := models.LLMConfig{MaxTokens: 100, Temperature: 1.5, TopP: 0.9, FrequencyPenalty: 1, PresencePenalty: -1}
	saved, err := s.UpdateLLMConfig(ctx, created.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, saved.Config)

	cfg.TopP = 2
	_, err = s.UpdateLLMConfig(ctx, created.ID, cfg)
	assert.ErrorIs(t, err, ErrValidation)

	reset, err := s.ResetLLMConfig(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLLMConfig(), reset.Config)
	assert.False(t, reset.Enabled)
}
