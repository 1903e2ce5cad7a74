package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLLMConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultLLMConfig().Validate())
}

func TestLLMConfig_Validate_RejectsOutOfRange(t *testing.T) {
	cases := map[string]LLMConfig{
		"maxTokens zero":      {MaxTokens: 0, Temperature: 0.7, TopP: 1},
		"maxTokens too large": {MaxTokens: MaxMaxTokens + 1, Temperature: 0.7, TopP: 1},
		"temperature high":    {MaxTokens: 10, Temperature: 2.1, TopP: 1},
		"topP negative":       {MaxTokens: 10, Temperature: 1, TopP: -0.1},
		"frequency penalty":   {MaxTokens: 10, Temperature: 1, TopP: 1, FrequencyPenalty: -2.5},
		"presence penalty":    {MaxTokens: 10, Temperature: 1, TopP: 1, PresencePenalty: 3},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLLMPatch_Apply_OnlyTouchesSetFields(t *testing.T) {
	llm := LLM{ID: "id-1", Name: "GPT4", Provider: "OpenAI", Enabled: true, Config: DefaultLLMConfig()}
	temp := 1.2
	name := "GPT4o"

	LLMPatch{Name: &name, Temperature: &temp}.Apply(&llm)

	assert.Equal(t, "id-1", llm.ID)
	assert.Equal(t, "GPT4o", llm.Name)
	assert.Equal(t, "OpenAI", llm.Provider)
	assert.True(t, llm.Enabled)
	assert.Equal(t, 1.2, llm.Config.Temperature)
	assert.Equal(t, 2048, llm.Config.MaxTokens)
}

func TestLLM_PrepareRoundTrip_HidesKey(t *testing.T) {
	llm := LLM{APIKey: "secret", Config: LLMConfig{MaxTokens: 5, Temperature: 0.1, TopP: 0.5}}
	llm.PrepareForSave()

	loaded := LLM{APIKey: llm.APIKey, ConfigJSON: llm.ConfigJSON}
	loaded.PrepareForAPI()

	assert.Equal(t, llm.Config, loaded.Config)
	assert.True(t, loaded.HasAPIKey)
}

func TestOwnerFromRefs(t *testing.T) {
	o, err := OwnerFromRefs("", "")
	require.NoError(t, err)
	assert.Equal(t, OwnerNone, o.Kind)

	o, err = OwnerFromRefs("u1", "")
	require.NoError(t, err)
	assert.Equal(t, UserOwner("u1"), o)

	o, err = OwnerFromRefs("", "a1")
	require.NoError(t, err)
	assert.Equal(t, AdminOwner("a1"), o)

	_, err = OwnerFromRefs("u1", "a1")
	assert.ErrorIs(t, err, ErrAmbiguousOwner)
}

func TestUpdateSummary_Outcomes(t *testing.T) {
	h := PromptHistory{}
	h.UpdateSummary()
	assert.Equal(t, OutcomeError, h.Summary.Outcome)
	assert.Zero(t, h.Summary.TotalModels)

	h.Results = []ModelResult{
		{ModelID: "a", ModelName: "A", Accuracy: 0.8, Tokens: 10, ResponseTime: 100, Success: true},
		{ModelID: "b", ModelName: "B", Accuracy: 0.9, Tokens: 20, ResponseTime: 201, Success: true},
	}
	h.UpdateSummary()
	assert.Equal(t, OutcomeSuccess, h.Summary.Outcome)
	assert.Equal(t, 2, h.Summary.SuccessfulModels)
	assert.Equal(t, "B", h.Summary.BestModel)
	assert.Equal(t, 0.9, h.Summary.BestAccuracy)
	assert.Equal(t, int64(151), h.Summary.AverageResponseTime)
	assert.Equal(t, 30, h.Summary.TotalTokens)

	h.Results[1].Error = "timeout"
	h.UpdateSummary()
	assert.Equal(t, OutcomePartial, h.Summary.Outcome)
	assert.Equal(t, "A", h.Summary.BestModel)
	assert.Equal(t, 10, h.Summary.TotalTokens)

	h.Results[0].Error = "boom"
	h.UpdateSummary()
	assert.Equal(t, OutcomeError, h.Summary.Outcome)
	assert.Equal(t, 2, h.Summary.TotalModels)
}

func TestUpdateSummary_HonoursSuccessFlag(t *testing.T) {
	var h PromptHistory
	require.NoError(t, json.Unmarshal([]byte(`{
		"results": [
			{"modelId": "a", "modelName": "A", "success": false, "response": ""},
			{"modelId": "b", "modelName": "B", "success": true, "response": "ok", "accuracy": 0.5}
		]
	}`), &h))

	h.UpdateSummary()
	assert.Equal(t, OutcomePartial, h.Summary.Outcome)
	assert.Equal(t, 1, h.Summary.SuccessfulModels)
	assert.Equal(t, "B", h.Summary.BestModel)

	h.Results[1].Success = false
	h.UpdateSummary()
	assert.Equal(t, OutcomeError, h.Summary.Outcome)
	assert.Zero(t, h.Summary.SuccessfulModels)
}

func TestPromptHistory_PrepareRoundTrip(t *testing.T) {
	h := PromptHistory{
		Models:   []string{"m1"},
		Criteria: []string{"accuracy"},
		Results:  []ModelResult{{ModelID: "m1", Response: "hi", Success: true}},
		Feedback: &Feedback{Rating: RatingPositive, Comment: "nice"},
	}
	h.UpdateSummary()
	h.PrepareForSave()

	loaded := PromptHistory{
		ModelsJSON:   h.ModelsJSON,
		CriteriaJSON: h.CriteriaJSON,
		ResultsJSON:  h.ResultsJSON,
		SummaryJSON:  h.SummaryJSON,
		FeedbackJSON: h.FeedbackJSON,
	}
	loaded.PrepareForAPI()

	assert.Equal(t, h.Models, loaded.Models)
	assert.Equal(t, h.Results, loaded.Results)
	assert.Equal(t, h.Summary, loaded.Summary)
	require.NotNil(t, loaded.Feedback)
	assert.Equal(t, RatingPositive, loaded.Feedback.Rating)
}
