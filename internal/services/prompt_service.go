package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/rs/zerolog/log"
)

// Completer sends a prompt to a provider endpoint and returns the response text.
type Completer interface {
	Complete(ctx context.Context, ep provider.Endpoint, prompt string) (string, error)
}

// PromptServiceProvider defines the interface for prompt services.
type PromptServiceProvider interface {
	SubmitPrompt(ctx context.Context, req models.PromptRequest) (models.Prompt, error)
	GetAllPrompts(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, error)
	DeletePromptsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PromptService resolves a model, dispatches the prompt to its provider and stores the exchange.
type PromptService struct {
	db        *sql.DB
	llms      LLMServiceProvider
	providers provider.Registry
	completer Completer
	notifier  Notifier
	now       func() time.Time
}

// NewPromptService creates a new PromptService. The provider registry is fixed for the
// lifetime of the service.
func NewPromptService(db *sql.DB, llms LLMServiceProvider, providers provider.Registry, completer Completer, notifier Notifier) *PromptService {
	return &PromptService{
		db:        db,
		llms:      llms,
		providers: providers,
		completer: completer,
		notifier:  notifierOrNop(notifier),
		now:       time.Now,
	}
}

// SubmitPrompt runs the dispatch pipeline. Nothing is stored unless every step succeeds.
func (s *PromptService) SubmitPrompt(ctx context.Context, req models.PromptRequest) (models.Prompt, error) {
	if req.LLMID == "" || strings.TrimSpace(req.PromptText) == "" {
		return models.Prompt{}, fmt.Errorf("llmId and promptText are required: %w", ErrValidation)
	}

	llm, err := s.llms.GetLLMByID(ctx, req.LLMID)
	if err != nil {
		return models.Prompt{}, err
	}

	responseText, err := dispatch(ctx, s.providers, s.completer, llm, req.PromptText)
	if err != nil {
		return models.Prompt{}, err
	}

	owner := req.Owner
	if owner.Kind == "" {
		owner = models.NoOwner()
	}
	prompt := models.Prompt{
		ID:           uuid.New().String(),
		Owner:        owner,
		LLMID:        llm.ID,
		PromptText:   req.PromptText,
		ResponseText: responseText,
		CreatedAt:    s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO prompts(id, owner_kind, owner_id, llm_id, prompt_text, response_text, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		prompt.ID, string(prompt.Owner.Kind), nullString(prompt.Owner.ID), prompt.LLMID, prompt.PromptText, prompt.ResponseText, prompt.CreatedAt,
	)
	if err != nil {
		return models.Prompt{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.notifier.Publish("prompt.created", prompt)
	return prompt, nil
}

// dispatch sends text to the provider endpoint mapped to the model's name.
func dispatch(ctx context.Context, providers provider.Registry, completer Completer, llm models.LLM, text string) (string, error) {
	ep, ok := providers.Lookup(llm.Name)
	if !ok {
		return "", fmt.Errorf("no provider mapping for model %q: %w", llm.Name, ErrConfigurationMissing)
	}

	start := time.Now()
	responseText, err := completer.Complete(ctx, ep, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	log.Debug().Str("llm_id", llm.ID).Dur("elapsed", time.Since(start)).Msg("Provider responded")
	return responseText, nil
}

// GetAllPrompts lists prompts newest first with their model expanded.
func (s *PromptService) GetAllPrompts(ctx context.Context, filter models.PromptFilter) ([]models.Prompt, error) {
	query := `
		SELECT p.id, p.owner_kind, p.owner_id, p.llm_id, p.prompt_text, p.response_text, p.created_at,
		       l.id, l.name, l.provider, l.endpoint, l.api_key, l.enabled, l.config_json, l.created_at, l.updated_at
		FROM prompts p LEFT JOIN llms l ON l.id = p.llm_id`

	var where []string
	var args []interface{}
	if filter.UserID != "" {
		where = append(where, "(p.owner_kind = 'user' AND p.owner_id = ?)")
		args = append(args, filter.UserID)
	}
	if filter.AdminID != "" {
		where = append(where, "(p.owner_kind = 'admin' AND p.owner_id = ?)")
		args = append(args, filter.AdminID)
	}
	if filter.LLMID != "" {
		where = append(where, "p.llm_id = ?")
		args = append(args, filter.LLMID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.rowid DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	prompts := []models.Prompt{}
	for rows.Next() {
		var p models.Prompt
		var ownerKind string
		var ownerID, responseText sql.NullString
		var llmID, llmName, llmProvider, llmEndpoint, llmKey, llmConfig sql.NullString
		var llmEnabled sql.NullBool
		var llmCreated, llmUpdated sql.NullTime

		if err := rows.Scan(
			&p.ID, &ownerKind, &ownerID, &p.LLMID, &p.PromptText, &responseText, &p.CreatedAt,
			&llmID, &llmName, &llmProvider, &llmEndpoint, &llmKey, &llmEnabled, &llmConfig, &llmCreated, &llmUpdated,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		p.Owner = models.Owner{Kind: models.OwnerKind(ownerKind), ID: ownerID.String}
		p.ResponseText = responseText.String
		p.CreatedAt = p.CreatedAt.UTC()
		if llmID.Valid {
			llm := models.LLM{
				ID:         llmID.String,
				Name:       llmName.String,
				Provider:   llmProvider.String,
				Endpoint:   llmEndpoint.String,
				APIKey:     llmKey.String,
				Enabled:    llmEnabled.Bool,
				ConfigJSON: llmConfig.String,
				CreatedAt:  llmCreated.Time.UTC(),
				UpdatedAt:  llmUpdated.Time.UTC(),
			}
			llm.PrepareForAPI()
			p.LLM = &llm
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return prompts, nil
}

// DeletePromptsBefore removes prompts created before cutoff and reports how many were deleted.
func (s *PromptService) DeletePromptsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM prompts WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
