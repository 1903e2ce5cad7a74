package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/llm-admin-be/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps a service error onto a coarse status code and a generic JSON body.
func writeError(w http.ResponseWriter, err error, message string) {
	writeJSON(w, statusFor(err), map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	default:
		// ErrConfigurationMissing, ErrPersistence and anything unexpected.
		return http.StatusInternalServerError
	}
}

// logFailure logs at warn for client-side failures and at error for everything else.
func logFailure(err error) *zerolog.Event {
	if statusFor(err) < http.StatusInternalServerError {
		return log.Warn().Err(err)
	}
	return log.Error().Err(err)
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
