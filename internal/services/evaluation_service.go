package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultEvaluationParallelism = 4
	unknownModelName             = "Unknown Model"
)

// EvaluationServiceProvider defines the interface for multi-model prompt evaluation.
type EvaluationServiceProvider interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (models.PromptHistory, error)
}

// EvaluationService runs one prompt against several models and records the
// comparison as a prompt history entry.
type EvaluationService struct {
	llms        LLMServiceProvider
	providers   provider.Registry
	completer   Completer
	history     PromptHistoryServiceProvider
	notifier    Notifier
	parallelism int
	clock       func() time.Time
}

// NewEvaluationService creates a new EvaluationService sharing the prompt
// pipeline's registry and completer.
func NewEvaluationService(llms LLMServiceProvider, providers provider.Registry, completer Completer, history PromptHistoryServiceProvider, notifier Notifier) *EvaluationService {
	return &EvaluationService{
		llms:        llms,
		providers:   providers,
		completer:   completer,
		history:     history,
		notifier:    notifierOrNop(notifier),
		parallelism: defaultEvaluationParallelism,
		clock:       time.Now,
	}
}

// Evaluate dispatches the prompt to every requested model. A model that fails
// yields an error result instead of failing the whole evaluation.
func (s *EvaluationService) Evaluate(ctx context.Context, req models.EvaluationRequest) (models.PromptHistory, error) {
	if req.UserID == "" {
		return models.PromptHistory{}, fmt.Errorf("userId is required: %w", ErrValidation)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return models.PromptHistory{}, fmt.Errorf("prompt is required: %w", ErrValidation)
	}
	ids := uniqueIDs(req.ModelIDs)
	if len(ids) == 0 {
		return models.PromptHistory{}, fmt.Errorf("modelIds must be a non-empty array: %w", ErrValidation)
	}
	criteria := req.Criteria
	if len(criteria) == 0 {
		criteria = models.DefaultEvaluationCriteria
	}
	for _, c := range criteria {
		if !models.ValidCriterion(c) {
			return models.PromptHistory{}, fmt.Errorf("unknown evaluation criterion %q: %w", c, ErrValidation)
		}
	}

	results := make([]models.ModelResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = s.evaluateModel(gctx, id, req.Prompt)
			return nil
		})
	}
	g.Wait()

	saved, err := s.history.CreateHistory(ctx, models.PromptHistory{
		UserID:   req.UserID,
		Prompt:   req.Prompt,
		Models:   ids,
		Criteria: criteria,
		Results:  results,
	})
	if err != nil {
		return models.PromptHistory{}, err
	}

	log.Info().
		Str("history_id", saved.ID).
		Int("models", saved.Summary.TotalModels).
		Int("successful", saved.Summary.SuccessfulModels).
		Msg("Prompt evaluation completed")
	s.notifier.Publish("evaluation.completed", saved)
	return saved, nil
}

func (s *EvaluationService) evaluateModel(ctx context.Context, id, prompt string) models.ModelResult {
	result := models.ModelResult{ModelID: id, ModelName: unknownModelName}

	llm, err := s.llms.GetLLMByID(ctx, id)
	if err != nil {
		result.Error = evaluationError(err)
		return result
	}
	result.ModelName = llm.Name
	if !llm.Enabled {
		result.Error = "LLM is disabled"
		return result
	}

	start := s.clock()
	response, err := dispatch(ctx, s.providers, s.completer, llm, prompt)
	result.ResponseTime = s.clock().Sub(start).Milliseconds()
	if err != nil {
		log.Warn().Err(err).Str("llm_id", id).Msg("Model failed during evaluation")
		result.Error = evaluationError(err)
		return result
	}

	result.Response = response
	result.Tokens = estimateTokens(prompt) + estimateTokens(response)
	result.Success = true
	return result
}

func evaluationError(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "LLM not found"
	case errors.Is(err, ErrConfigurationMissing):
		return "API config missing for LLM"
	}
	return err.Error()
}

// estimateTokens approximates a token count by whitespace-separated words.
func estimateTokens(s string) int {
	return len(strings.Fields(s))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
