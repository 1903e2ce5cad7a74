package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/services"
	"github.com/rs/zerolog/log"
)

// LLMHandler handles HTTP requests related to the model registry.
type LLMHandler struct {
	service services.LLMServiceProvider
}

// NewLLMHandler creates a new LLMHandler.
func NewLLMHandler(service services.LLMServiceProvider) *LLMHandler {
	return &LLMHandler{service: service}
}

// CreateLLMPayload defines the structure for model creation requests.
type CreateLLMPayload struct {
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	APIKey   string            `json:"apiKey"`
	Endpoint string            `json:"endpoint"`
	Enabled  *bool             `json:"enabled"`
	Config   *models.LLMConfig `json:"config"`
}

// GetAll handles the request to get all models.
func (h *LLMHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	llms, err := h.service.GetAllLLMs(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve LLMs")
		writeError(w, err, "Failed to fetch LLMs")
		return
	}
	writeJSON(w, http.StatusOK, llms)
}

// Get handles the request to get a single model by its ID.
func (h *LLMHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	llm, err := h.service.GetLLMByID(r.Context(), id)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to get LLM by ID")
		writeError(w, err, "LLM not found")
		return
	}
	writeJSON(w, http.StatusOK, llm)
}

// Create handles the request to register a new model.
func (h *LLMHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateLLMPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	llm := models.LLM{
		Name:     payload.Name,
		Provider: payload.Provider,
		APIKey:   payload.APIKey,
		Endpoint: payload.Endpoint,
		Enabled:  true,
		Config:   models.DefaultLLMConfig(),
	}
	if payload.Enabled != nil {
		llm.Enabled = *payload.Enabled
	}
	if payload.Config != nil {
		llm.Config = *payload.Config
	}

	created, err := h.service.CreateLLM(r.Context(), llm)
	if err != nil {
		logFailure(err).Str("name", payload.Name).Msg("Failed to add LLM")
		writeError(w, err, "Failed to add LLM")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "LLM added", "llm": created})
}

// Update handles the request to patch an existing model.
func (h *LLMHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.LLMPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	updated, err := h.service.UpdateLLM(r.Context(), id, patch)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to update LLM")
		writeError(w, err, "Failed to update LLM")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "LLM updated", "llm": updated})
}

// Toggle flips the enabled flag of a model.
func (h *LLMHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	updated, err := h.service.ToggleLLM(r.Context(), id)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to toggle LLM")
		writeError(w, err, "Failed to update LLM")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "LLM updated", "llm": updated})
}

// GetConfig returns the raw generation config of a model.
func (h *LLMHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	llm, err := h.service.GetLLMByID(r.Context(), id)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to get LLM config")
		writeError(w, err, "LLM not found")
		return
	}
	writeJSON(w, http.StatusOK, llm.Config)
}

// SaveConfig replaces the generation config of a model.
func (h *LLMHandler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cfg models.LLMConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	updated, err := h.service.UpdateLLMConfig(r.Context(), id, cfg)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to save LLM config")
		writeError(w, err, "Failed to save configuration")
		return
	}
	writeJSON(w, http.StatusOK, updated.Config)
}

// ResetConfig restores the default generation config of a model.
func (h *LLMHandler) ResetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	updated, err := h.service.ResetLLMConfig(r.Context(), id)
	if err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to reset LLM config")
		writeError(w, err, "Failed to reset configuration")
		return
	}
	writeJSON(w, http.StatusOK, updated.Config)
}

// Delete handles the request to delete a model.
func (h *LLMHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteLLM(r.Context(), id); err != nil {
		logFailure(err).Str("llm_id", id).Msg("Failed to delete LLM")
		writeError(w, err, "Failed to delete LLM")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "LLM deleted"})
}
