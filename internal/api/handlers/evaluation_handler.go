package handlers

import (
	"net/http"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/services"
)

// EvaluationHandler runs a prompt against several models at once.
type EvaluationHandler struct {
	service services.EvaluationServiceProvider
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(service services.EvaluationServiceProvider) *EvaluationHandler {
	return &EvaluationHandler{service: service}
}

// TestPrompt evaluates the prompt and returns the stored history entry, which
// carries a result per model plus the derived summary.
func (h *EvaluationHandler) TestPrompt(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	history, err := h.service.Evaluate(r.Context(), req)
	if err != nil {
		logFailure(err).Str("user_id", req.UserID).Int("models", len(req.ModelIDs)).Msg("Failed to evaluate prompt")
		writeError(w, err, "Failed to test prompt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Prompt tested",
		"history": history,
		"results": history.Results,
		"summary": history.Summary,
	})
}
