package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endpointCompleter answers per endpoint URL and is safe for concurrent use.
type endpointCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
}

func (c *endpointCompleter) Complete(_ context.Context, ep provider.Endpoint, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ep.URL)
	if err := c.failures[ep.URL]; err != nil {
		return "", err
	}
	return c.responses[ep.URL], nil
}

func TestEvaluate_RecordsResultPerModel(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	llms := NewLLMService(db, nil)
	history := NewPromptHistoryService(db)

	gpt, err := llms.CreateLLM(ctx, newLLM("GPT4", "OpenAI"))
	require.NoError(t, err)
	claude, err := llms.CreateLLM(ctx, newLLM("Claude", "Anthropic"))
	require.NoError(t, err)
	mistral, err := llms.CreateLLM(ctx, newLLM("Mistral", "Mistral AI"))
	require.NoError(t, err)
	off := newLLM("Gemini", "Google")
	off.Enabled = false
	gemini, err := llms.CreateLLM(ctx, off)
	require.NoError(t, err)

	registry := provider.Registry{
		"GPT4":   {URL: "gpt"},
		"CLAUDE": {URL: "claude"},
		"GEMINI": {URL: "gemini"},
	}
	c := &endpointCompleter{
		responses: map[string]string{"gpt": "two words"},
		failures:  map[string]error{"claude": errors.New("status 500")},
	}
	n := &recordingNotifier{}
	s := NewEvaluationService(llms, registry, c, history, n)
	s.clock = stepClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	s.parallelism = 1

	h, err := s.Evaluate(ctx, models.EvaluationRequest{
		UserID:   "u1",
		Prompt:   "say hello",
		ModelIDs: []string{gpt.ID, claude.ID, mistral.ID, gemini.ID, "missing", gpt.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{gpt.ID, claude.ID, mistral.ID, gemini.ID, "missing"}, h.Models)
	assert.Equal(t, models.DefaultEvaluationCriteria, h.Criteria)
	require.Len(t, h.Results, 5)

	ok := h.Results[0]
	assert.True(t, ok.Success)
	assert.Equal(t, "GPT4", ok.ModelName)
	assert.Equal(t, "two words", ok.Response)
	assert.Equal(t, 4, ok.Tokens)
	assert.Equal(t, int64(1000), ok.ResponseTime)
	assert.Empty(t, ok.Error)

	assert.False(t, h.Results[1].Success)
	assert.Equal(t, "Claude", h.Results[1].ModelName)
	assert.Contains(t, h.Results[1].Error, "status 500")

	assert.Equal(t, "API config missing for LLM", h.Results[2].Error)
	assert.Equal(t, "LLM is disabled", h.Results[3].Error)
	assert.Equal(t, "Unknown Model", h.Results[4].ModelName)
	assert.Equal(t, "LLM not found", h.Results[4].Error)

	assert.Equal(t, models.OutcomePartial, h.Summary.Outcome)
	assert.Equal(t, 5, h.Summary.TotalModels)
	assert.Equal(t, 1, h.Summary.SuccessfulModels)
	assert.Equal(t, 4, h.Summary.TotalTokens)

	assert.ElementsMatch(t, []string{"gpt", "claude"}, c.calls)
	assert.Equal(t, []string{"evaluation.completed"}, n.Actions())

	stored, err := history.GetHistoryByID(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Results, stored.Results)
	assert.Equal(t, h.Summary, stored.Summary)
}

func TestEvaluate_Validation(t *testing.T) {
	db := setupDB(t)
	c := &endpointCompleter{}
	s := NewEvaluationService(NewLLMService(db, nil), provider.Registry{}, c, NewPromptHistoryService(db), nil)
	ctx := context.Background()

	cases := map[string]models.EvaluationRequest{
		"no user":       {Prompt: "p", ModelIDs: []string{"m1"}},
		"blank prompt":  {UserID: "u1", Prompt: "  ", ModelIDs: []string{"m1"}},
		"no models":     {UserID: "u1", Prompt: "p"},
		"blank models":  {UserID: "u1", Prompt: "p", ModelIDs: []string{" ", ""}},
		"bad criterion": {UserID: "u1", Prompt: "p", ModelIDs: []string{"m1"}, Criteria: []string{"vibes"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Evaluate(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, c.calls)
	assert.Equal(t, 0, countRows(t, db, "prompt_histories"))
}

func TestEvaluate_AllFailuresStillRecorded(t *testing.T) {
	db := setupDB(t)
	s := NewEvaluationService(NewLLMService(db, nil), provider.Registry{}, &endpointCompleter{}, NewPromptHistoryService(db), nil)

	h, err := s.Evaluate(context.Background(), models.EvaluationRequest{
		UserID:   "u1",
		Prompt:   "p",
		ModelIDs: []string{"ghost"},
		Criteria: []string{"coherence"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeError, h.Summary.Outcome)
	assert.Equal(t, []string{"coherence"}, h.Criteria)
	assert.Equal(t, 1, countRows(t, db, "prompt_histories"))
}
