package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/services"
)

// PromptHistoryHandler serves the multi-model evaluation history.
type PromptHistoryHandler struct {
	service services.PromptHistoryServiceProvider
}

// NewPromptHistoryHandler creates a new PromptHistoryHandler.
func NewPromptHistoryHandler(service services.PromptHistoryServiceProvider) *PromptHistoryHandler {
	return &PromptHistoryHandler{service: service}
}

// FeedbackPayload is the body accepted by the feedback endpoint.
type FeedbackPayload struct {
	Rating  models.Rating `json:"rating"`
	Comment string        `json:"comment"`
}

// BulkDeletePayload is the body accepted by the bulk delete endpoint.
type BulkDeletePayload struct {
	IDs []string `json:"ids"`
}

// List returns a page of history entries.
// Query parameters: page, limit, search, userId, outcome or outcomeFilter (Success,
// Partial, Error or all), modelFilter (a model ID or all) and dateFilter (today,
// week, month or all).
func (h *PromptHistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.HistoryFilter{
		UserID: q.Get("userId"),
		Search: strings.TrimSpace(q.Get("search")),
	}
	if model := strings.TrimSpace(q.Get("modelFilter")); model != "all" {
		filter.Model = model
	}

	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid page"})
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
		return
	}
	outcome, ok := parseOutcome(firstParam(q, "outcome", "outcomeFilter"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid outcome"})
		return
	}
	filter.Outcome = outcome
	date, ok := models.ParseDateRange(strings.ToLower(q.Get("dateFilter")))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid dateFilter"})
		return
	}
	filter.Date = date

	page, err := h.service.ListHistory(r.Context(), filter)
	if err != nil {
		logFailure(err).Msg("Failed to list prompt history")
		writeError(w, err, "Failed to fetch prompt history")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create stores a new history entry. The summary is derived server side.
func (h *PromptHistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry models.PromptHistory
	if err := decodeJSON(r, &entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	created, err := h.service.CreateHistory(r.Context(), entry)
	if err != nil {
		logFailure(err).Str("user_id", entry.UserID).Msg("Failed to save prompt history")
		writeError(w, err, "Failed to save prompt history")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "Prompt history saved", "history": created})
}

// Get returns a single history entry.
func (h *PromptHistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.service.GetHistoryByID(r.Context(), id)
	if err != nil {
		logFailure(err).Str("history_id", id).Msg("Failed to get prompt history")
		writeError(w, err, "Prompt history not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete removes a history entry.
func (h *PromptHistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteHistory(r.Context(), id); err != nil {
		logFailure(err).Str("history_id", id).Msg("Failed to delete prompt history")
		writeError(w, err, "Failed to delete prompt history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Prompt history deleted"})
}

// BulkDelete removes every listed history entry.
func (h *PromptHistoryHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var payload BulkDeletePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	n, err := h.service.DeleteHistories(r.Context(), payload.IDs)
	if err != nil {
		logFailure(err).Int("ids", len(payload.IDs)).Msg("Failed to bulk delete prompt history")
		writeError(w, err, "Failed to delete prompt history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      fmt.Sprintf("%d prompt history entries deleted", n),
		"deletedCount": n,
	})
}

// Stats returns aggregate history figures, optionally for a single userId.
func (h *PromptHistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	stats, err := h.service.HistoryStats(r.Context(), userID)
	if err != nil {
		logFailure(err).Str("user_id", userID).Msg("Failed to compute prompt history stats")
		writeError(w, err, "Failed to fetch prompt history stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Feedback attaches a rating to a history entry, replacing any previous one.
func (h *PromptHistoryHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload FeedbackPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	updated, err := h.service.AddFeedback(r.Context(), id, payload.Rating, payload.Comment)
	if err != nil {
		logFailure(err).Str("history_id", id).Msg("Failed to save feedback")
		writeError(w, err, "Failed to save feedback")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Feedback saved", "history": updated})
}

// intParam parses an optional positive integer; empty means zero so the service applies defaults.
func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// firstParam returns the first non-empty value among the given query keys.
func firstParam(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func parseOutcome(raw string) (models.Outcome, bool) {
	switch strings.ToLower(raw) {
	case "", "all":
		return "", true
	case "success":
		return models.OutcomeSuccess, true
	case "partial":
		return models.OutcomePartial, true
	case "error":
		return models.OutcomeError, true
	}
	return "", false
}
