package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/llm-admin-be/internal/models"
)

// LLMServiceProvider defines the interface for model registry services.
type LLMServiceProvider interface {
	GetAllLLMs(ctx context.Context) ([]models.LLM, error)
	GetLLMByID(ctx context.Context, id string) (models.LLM, error)
	CreateLLM(ctx context.Context, llm models.LLM) (models.LLM, error)
	UpdateLLM(ctx context.Context, id string, patch models.LLMPatch) (models.LLM, error)
	ToggleLLM(ctx context.Context, id string) (models.LLM, error)
	UpdateLLMConfig(ctx context.Context, id string, cfg models.LLMConfig) (models.LLM, error)
	ResetLLMConfig(ctx context.Context, id string) (models.LLM, error)
	DeleteLLM(ctx context.Context, id string) error
}

// LLMService provides business logic for model registry management.
type LLMService struct {
	db       *sql.DB
	notifier Notifier
	now      func() time.Time
}

// NewLLMService creates a new LLMService.
func NewLLMService(db *sql.DB, notifier Notifier) *LLMService {
	return &LLMService{db: db, notifier: notifierOrNop(notifier), now: time.Now}
}

const llmColumns = "id, name, provider, endpoint, api_key, enabled, config_json, created_at, updated_at"

// scanLLM is a helper to scan a model from a row or rows object.
func scanLLM(scanner interface{ Scan(...interface{}) error }) (models.LLM, error) {
	var llm models.LLM
	var endpoint, apiKey, configJSON sql.NullString
	err := scanner.Scan(&llm.ID, &llm.Name, &llm.Provider, &endpoint, &apiKey, &llm.Enabled, &configJSON, &llm.CreatedAt, &llm.UpdatedAt)
	if err != nil {
		return models.LLM{}, err
	}
	llm.Endpoint = endpoint.String
	llm.APIKey = apiKey.String
	llm.ConfigJSON = configJSON.String
	llm.CreatedAt = llm.CreatedAt.UTC()
	llm.UpdatedAt = llm.UpdatedAt.UTC()
	llm.PrepareForAPI()
	return llm, nil
}

// GetAllLLMs retrieves every registered model, oldest first.
func (s *LLMService) GetAllLLMs(ctx context.Context) ([]models.LLM, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+llmColumns+" FROM llms ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	llms := []models.LLM{}
	for rows.Next() {
		llm, err := scanLLM(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		llms = append(llms, llm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return llms, nil
}

// GetLLMByID retrieves a single model by its ID.
func (s *LLMService) GetLLMByID(ctx context.Context, id string) (models.LLM, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+llmColumns+" FROM llms WHERE id = ?", id)
	llm, err := scanLLM(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LLM{}, fmt.Errorf("llm with id %s: %w", id, ErrNotFound)
		}
		return models.LLM{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return llm, nil
}

// CreateLLM registers a new model. Duplicate name/provider pairs are allowed.
func (s *LLMService) CreateLLM(ctx context.Context, llm models.LLM) (models.LLM, error) {
	if err := validateLLM(&llm); err != nil {
		return models.LLM{}, err
	}

	now := s.now().UTC()
	llm.ID = uuid.New().String()
	llm.CreatedAt = now
	llm.UpdatedAt = now
	llm.PrepareForSave()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO llms("+llmColumns+") VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)",
		llm.ID, llm.Name, llm.Provider, llm.Endpoint, llm.APIKey, llm.Enabled, llm.ConfigJSON, llm.CreatedAt, llm.UpdatedAt,
	)
	if err != nil {
		return models.LLM{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	llm.PrepareForAPI()
	s.notifier.Publish("llm.created", llm)
	return llm, nil
}

// UpdateLLM merges the patch into the stored model.
func (s *LLMService) UpdateLLM(ctx context.Context, id string, patch models.LLMPatch) (models.LLM, error) {
	llm, err := s.GetLLMByID(ctx, id)
	if err != nil {
		return models.LLM{}, err
	}
	patch.Apply(&llm)
	return s.save(ctx, llm)
}

// ToggleLLM flips the enabled flag of a model.
func (s *LLMService) ToggleLLM(ctx context.Context, id string) (models.LLM, error) {
	llm, err := s.GetLLMByID(ctx, id)
	if err != nil {
		return models.LLM{}, err
	}
	llm.Enabled = !llm.Enabled
	return s.save(ctx, llm)
}

// UpdateLLMConfig replaces the whole generation config of a model.
func (s *LLMService) UpdateLLMConfig(ctx context.Context, id string, cfg models.LLMConfig) (models.LLM, error) {
	llm, err := s.GetLLMByID(ctx, id)
	if err != nil {
		return models.LLM{}, err
	}
	llm.Config = cfg
	return s.save(ctx, llm)
}

// ResetLLMConfig restores the default generation config of a model.
func (s *LLMService) ResetLLMConfig(ctx context.Context, id string) (models.LLM, error) {
	return s.UpdateLLMConfig(ctx, id, models.DefaultLLMConfig())
}

// DeleteLLM removes a model. Prompts referencing it are kept.
func (s *LLMService) DeleteLLM(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM llms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("llm with id %s: %w", id, ErrNotFound)
	}
	s.notifier.Publish("llm.deleted", map[string]string{"id": id})
	return nil
}

func (s *LLMService) save(ctx context.Context, llm models.LLM) (models.LLM, error) {
	if err := validateLLM(&llm); err != nil {
		return models.LLM{}, err
	}
	llm.UpdatedAt = s.now().UTC()
	llm.PrepareForSave()

	res, err := s.db.ExecContext(ctx,
		"UPDATE llms SET name = ?, provider = ?, endpoint = ?, api_key = ?, enabled = ?, config_json = ?, updated_at = ? WHERE id = ?",
		llm.Name, llm.Provider, llm.Endpoint, llm.APIKey, llm.Enabled, llm.ConfigJSON, llm.UpdatedAt, llm.ID,
	)
	if err != nil {
		return models.LLM{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.LLM{}, fmt.Errorf("llm with id %s: %w", llm.ID, ErrNotFound)
	}

	llm.PrepareForAPI()
	s.notifier.Publish("llm.updated", llm)
	return llm, nil
}

func validateLLM(llm *models.LLM) error {
	llm.Name = strings.TrimSpace(llm.Name)
	llm.Provider = strings.TrimSpace(llm.Provider)
	if llm.Name == "" || llm.Provider == "" {
		return fmt.Errorf("name and provider are required: %w", ErrValidation)
	}
	if err := llm.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
