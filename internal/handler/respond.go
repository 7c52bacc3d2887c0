package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shiftascent/shiftascent/internal/integrity"
	"github.com/shiftascent/shiftascent/internal/repository"
	"github.com/shiftascent/shiftascent/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps domain errors to HTTP statuses. Core rejections carry
// their kind and field so clients can highlight the right input; everything
// unclassified is a 500 with the detail kept server-side.
func respondError(w http.ResponseWriter, err error) {
	var coreErr *integrity.Error
	if errors.As(err, &coreErr) {
		status := http.StatusBadRequest
		switch coreErr.Kind {
		case integrity.KindConflict, integrity.KindInvalidState:
			status = http.StatusConflict
		case integrity.KindValidation, integrity.KindDeadlineExpired:
			status = http.StatusUnprocessableEntity
		}
		respondJSON(w, status, errorResponse{
			Error: coreErr.Message,
			Kind:  string(coreErr.Kind),
			Field: coreErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidEmail):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: "email"})
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, repository.ErrDuplicateEmail):
		respondJSON(w, http.StatusConflict, errorResponse{Error: "email already in use"})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrMilestoneNotFound),
		errors.Is(err, repository.ErrReflectionNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrTokenNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		slog.Error("request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
