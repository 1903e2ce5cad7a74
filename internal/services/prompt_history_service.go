package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/llm-admin-be/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PromptHistoryServiceProvider defines the interface for prompt history services.
type PromptHistoryServiceProvider interface {
	CreateHistory(ctx context.Context, h models.PromptHistory) (models.PromptHistory, error)
	ListHistory(ctx context.Context, filter models.HistoryFilter) (models.HistoryPage, error)
	GetHistoryByID(ctx context.Context, id string) (models.PromptHistory, error)
	DeleteHistory(ctx context.Context, id string) error
	DeleteHistories(ctx context.Context, ids []string) (int64, error)
	HistoryStats(ctx context.Context, userID string) (models.HistoryStats, error)
	AddFeedback(ctx context.Context, id string, rating models.Rating, comment string) (models.PromptHistory, error)
}

// PromptHistoryService stores multi-model prompt evaluations.
type PromptHistoryService struct {
	db  *sql.DB
	now func() time.Time
}

// NewPromptHistoryService creates a new PromptHistoryService.
func NewPromptHistoryService(db *sql.DB) *PromptHistoryService {
	return &PromptHistoryService{db: db, now: time.Now}
}

const historyColumns = "id, user_id, prompt, models_json, criteria_json, results_json, summary_json, feedback_json, created_at"

func scanHistory(scanner interface{ Scan(...interface{}) error }) (models.PromptHistory, error) {
	var h models.PromptHistory
	var modelsJSON, criteriaJSON, resultsJSON, summaryJSON, feedbackJSON sql.NullString
	err := scanner.Scan(&h.ID, &h.UserID, &h.Prompt, &modelsJSON, &criteriaJSON, &resultsJSON, &summaryJSON, &feedbackJSON, &h.CreatedAt)
	if err != nil {
		return models.PromptHistory{}, err
	}
	h.ModelsJSON = modelsJSON.String
	h.CriteriaJSON = criteriaJSON.String
	h.ResultsJSON = resultsJSON.String
	h.SummaryJSON = summaryJSON.String
	h.FeedbackJSON = feedbackJSON.String
	h.CreatedAt = h.CreatedAt.UTC()
	h.PrepareForAPI()
	return h, nil
}

// CreateHistory validates and stores a history entry, deriving its summary.
func (s *PromptHistoryService) CreateHistory(ctx context.Context, h models.PromptHistory) (models.PromptHistory, error) {
	if err := validateHistory(h); err != nil {
		return models.PromptHistory{}, err
	}

	h.ID = uuid.New().String()
	h.CreatedAt = s.now().UTC()
	h.Feedback = nil
	h.UpdateSummary()
	h.PrepareForSave()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO prompt_histories(id, user_id, prompt, prompt_search, outcome, models_json, criteria_json, results_json, summary_json, feedback_json, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		h.ID, h.UserID, h.Prompt, searchKey(h.Prompt), string(h.Summary.Outcome), h.ModelsJSON, h.CriteriaJSON, h.ResultsJSON, h.SummaryJSON, nullString(h.FeedbackJSON), h.CreatedAt,
	)
	if err != nil {
		return models.PromptHistory{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	h.PrepareForAPI()
	return h, nil
}

// ListHistory returns one page of history entries, newest first.
func (s *PromptHistoryService) ListHistory(ctx context.Context, filter models.HistoryFilter) (models.HistoryPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Limit > maxHistoryLimit {
		filter.Limit = maxHistoryLimit
	}

	// Outcome counts ignore the outcome filter itself so the dashboard can show every bucket.
	var base []string
	var baseArgs []interface{}
	if filter.UserID != "" {
		base = append(base, "user_id = ?")
		baseArgs = append(baseArgs, filter.UserID)
	}
	if filter.Search != "" {
		base = append(base, "prompt_search LIKE ? ESCAPE '\\'")
		baseArgs = append(baseArgs, "%"+escapeLike(searchKey(filter.Search))+"%")
	}
	if filter.Model != "" {
		base = append(base, "EXISTS (SELECT 1 FROM json_each(prompt_histories.models_json) WHERE json_each.value = ?)")
		baseArgs = append(baseArgs, filter.Model)
	}
	if since := filter.Date.Since(s.now()); !since.IsZero() {
		base = append(base, "created_at >= ?")
		baseArgs = append(baseArgs, since)
	}

	counts, err := s.countOutcomes(ctx, base, baseArgs)
	if err != nil {
		return models.HistoryPage{}, err
	}

	where := append([]string{}, base...)
	args := append([]interface{}{}, baseArgs...)
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM prompt_histories" + whereClause(where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return models.HistoryPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	query := "SELECT " + historyColumns + " FROM prompt_histories" + whereClause(where) +
		" ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, (filter.Page-1)*filter.Limit)...)
	if err != nil {
		return models.HistoryPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	history := []models.PromptHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return models.HistoryPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return models.HistoryPage{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit
	return models.HistoryPage{
		History: history,
		Pagination: models.Pagination{
			CurrentPage:  filter.Page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: filter.Limit,
			HasNext:      filter.Page < totalPages,
			HasPrev:      filter.Page > 1,
		},
		Filters: counts,
	}, nil
}

func (s *PromptHistoryService) countOutcomes(ctx context.Context, where []string, args []interface{}) (models.OutcomeCounts, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(*) FROM prompt_histories"+whereClause(where)+" GROUP BY outcome", args...)
	if err != nil {
		return models.OutcomeCounts{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var counts models.OutcomeCounts
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return models.OutcomeCounts{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		counts.Total += n
		switch models.Outcome(outcome) {
		case models.OutcomeSuccess:
			counts.Success = n
		case models.OutcomePartial:
			counts.Partial = n
		case models.OutcomeError:
			counts.Error = n
		}
	}
	if err := rows.Err(); err != nil {
		return models.OutcomeCounts{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return counts, nil
}

// GetHistoryByID retrieves a single history entry.
func (s *PromptHistoryService) GetHistoryByID(ctx context.Context, id string) (models.PromptHistory, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+historyColumns+" FROM prompt_histories WHERE id = ?", id)
	h, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.PromptHistory{}, fmt.Errorf("prompt history %s: %w", id, ErrNotFound)
		}
		return models.PromptHistory{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return h, nil
}

// DeleteHistory removes a history entry.
func (s *PromptHistoryService) DeleteHistory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM prompt_histories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("prompt history %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteHistories removes every listed entry and reports how many existed.
func (s *PromptHistoryService) DeleteHistories(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("ids must be a non-empty array: %w", ErrValidation)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM prompt_histories WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

const mostUsedModelsLimit = 5

// HistoryStats aggregates outcomes, token and timing totals, and model usage.
// An empty userID covers every user.
func (s *PromptHistoryService) HistoryStats(ctx context.Context, userID string) (models.HistoryStats, error) {
	var where []string
	var args []interface{}
	if userID != "" {
		where = append(where, "prompt_histories.user_id = ?")
		args = append(args, userID)
	}

	var o models.HistoryOverview
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(outcome = 'Success'), 0),
		       COALESCE(SUM(outcome = 'Partial'), 0),
		       COALESCE(SUM(outcome = 'Error'), 0),
		       COALESCE(SUM(json_extract(summary_json, '$.totalTokens')), 0),
		       COALESCE(AVG(json_extract(summary_json, '$.averageResponseTime')), 0.0),
		       COALESCE(SUM(json_extract(summary_json, '$.totalModels')), 0)
		FROM prompt_histories`+whereClause(where), args...,
	).Scan(&o.TotalPrompts, &o.SuccessfulPrompts, &o.PartialPrompts, &o.ErrorPrompts,
		&o.TotalTokens, &o.AverageResponseTime, &o.TotalModelsUsed)
	if err != nil {
		return models.HistoryStats{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if o.TotalPrompts > 0 {
		o.SuccessRate = int(math.Round(float64(o.SuccessfulPrompts) / float64(o.TotalPrompts) * 100))
	}

	recent := append(append([]string{}, where...), "created_at >= ?")
	recentArgs := append(append([]interface{}{}, args...), models.DateRangeWeek.Since(s.now()))
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM prompt_histories"+whereClause(recent), recentArgs...).Scan(&o.RecentActivity); err != nil {
		return models.HistoryStats{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.value, COUNT(*) AS uses
		FROM prompt_histories, json_each(prompt_histories.models_json) AS m`+whereClause(where)+`
		GROUP BY m.value
		ORDER BY uses DESC, m.value
		LIMIT ?`, append(args, mostUsedModelsLimit)...)
	if err != nil {
		return models.HistoryStats{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	usage := []models.ModelUsage{}
	for rows.Next() {
		var u models.ModelUsage
		if err := rows.Scan(&u.Model, &u.Count); err != nil {
			return models.HistoryStats{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		usage = append(usage, u)
	}
	if err := rows.Err(); err != nil {
		return models.HistoryStats{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return models.HistoryStats{Overview: o, MostUsedModels: usage}, nil
}

// AddFeedback attaches a rating and optional comment to a history entry.
func (s *PromptHistoryService) AddFeedback(ctx context.Context, id string, rating models.Rating, comment string) (models.PromptHistory, error) {
	if !models.ValidRating(rating) {
		return models.PromptHistory{}, fmt.Errorf("unknown rating %q: %w", rating, ErrValidation)
	}

	h, err := s.GetHistoryByID(ctx, id)
	if err != nil {
		return models.PromptHistory{}, err
	}
	h.Feedback = &models.Feedback{Rating: rating, Comment: comment, Timestamp: s.now().UTC()}
	h.PrepareForSave()

	if _, err := s.db.ExecContext(ctx, "UPDATE prompt_histories SET feedback_json = ? WHERE id = ?", h.FeedbackJSON, id); err != nil {
		return models.PromptHistory{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return h, nil
}

func validateHistory(h models.PromptHistory) error {
	if h.UserID == "" {
		return fmt.Errorf("userId is required: %w", ErrValidation)
	}
	if strings.TrimSpace(h.Prompt) == "" {
		return fmt.Errorf("prompt is required: %w", ErrValidation)
	}
	if utf8.RuneCountInString(h.Prompt) > models.MaxHistoryPromptLength {
		return fmt.Errorf("prompt exceeds %d characters: %w", models.MaxHistoryPromptLength, ErrValidation)
	}
	if len(h.Models) == 0 {
		return fmt.Errorf("at least one model is required: %w", ErrValidation)
	}
	for _, c := range h.Criteria {
		if !models.ValidCriterion(c) {
			return fmt.Errorf("unknown evaluation criterion %q: %w", c, ErrValidation)
		}
	}

	candidates := make(map[string]bool, len(h.Models))
	for _, m := range h.Models {
		candidates[m] = true
	}
	for _, r := range h.Results {
		if !candidates[r.ModelID] {
			return fmt.Errorf("result for model %q is not among the candidate models: %w", r.ModelID, ErrValidation)
		}
	}
	return nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// searchKey folds text for prompt search. SQLite's LOWER only folds ASCII, so
// both the stored column and the query term are folded here.
func searchKey(s string) string {
	return strings.ToLower(s)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
