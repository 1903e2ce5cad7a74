package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/services"
)

// PromptHandler handles prompt submission and listing.
type PromptHandler struct {
	service services.PromptServiceProvider
}

// NewPromptHandler creates a new PromptHandler.
func NewPromptHandler(service services.PromptServiceProvider) *PromptHandler {
	return &PromptHandler{service: service}
}

// SubmitPromptPayload is the body accepted by POST /prompts.
type SubmitPromptPayload struct {
	UserID     string `json:"userId"`
	AdminID    string `json:"adminId"`
	LLMID      string `json:"llmId"`
	PromptText string `json:"promptText"`
}

// GetAll lists prompts newest first, optionally filtered by userId, adminId or llmId.
func (h *PromptHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prompts, err := h.service.GetAllPrompts(r.Context(), models.PromptFilter{
		UserID:  q.Get("userId"),
		AdminID: q.Get("adminId"),
		LLMID:   q.Get("llmId"),
	})
	if err != nil {
		logFailure(err).Msg("Failed to retrieve prompts")
		writeError(w, err, "Failed to fetch prompts")
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

// Submit dispatches a prompt to the model's provider and stores the exchange.
func (h *PromptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload SubmitPromptPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	owner, err := models.OwnerFromRefs(payload.UserID, payload.AdminID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to process prompt"})
		return
	}

	prompt, err := h.service.SubmitPrompt(r.Context(), models.PromptRequest{
		Owner:      owner,
		LLMID:      payload.LLMID,
		PromptText: payload.PromptText,
	})
	if err != nil {
		logFailure(err).Str("llm_id", payload.LLMID).Msg("Failed to process prompt")
		writeError(w, err, promptErrorMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"prompt": prompt, "responseText": prompt.ResponseText})
}

func promptErrorMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return "LLM not found"
	case errors.Is(err, services.ErrConfigurationMissing):
		return "API config missing for LLM"
	default:
		return "Failed to process prompt"
	}
}
