package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/llm-admin-be/internal/models"
	"github.com/isdelr/llm-admin-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserPayload defines the structure for user creation requests.
type CreateUserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetAll handles the request to list every user.
func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve users")
		writeError(w, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		logFailure(err).Str("user_id", id).Msg("Failed to get user by ID")
		writeError(w, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Create handles adding a new user.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		logFailure(err).Str("username", payload.Username).Msg("Failed to add user")
		writeError(w, err, "Failed to add user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "User added", "user": user})
}

// Update handles editing a user's enumerated fields.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch models.UserPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, patch)
	if err != nil {
		logFailure(err).Str("user_id", id).Msg("Failed to update user")
		writeError(w, err, "Failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User updated", "user": user})
}

// Toggle flips the active flag of a user.
func (h *UserHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.ToggleUserActive(r.Context(), id)
	if err != nil {
		logFailure(err).Str("user_id", id).Msg("Failed to toggle user")
		writeError(w, err, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User updated", "user": user})
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		logFailure(err).Str("user_id", id).Msg("Failed to delete user")
		writeError(w, err, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}
