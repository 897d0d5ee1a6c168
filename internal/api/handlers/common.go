// Package handlers implements the HTTP handlers for the progression API.
// Identity is carried by the X-User-ID header; the gateway in front of
// this service is expected to authenticate it.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/promptcraft/promptcraft/internal/api/middleware"
	"github.com/promptcraft/promptcraft/internal/domain"
)

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// domainError maps progression errors onto HTTP responses
func domainError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrQuestNotFound),
		errors.Is(err, domain.ErrWorldNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrLedgerNotFound),
		errors.Is(err, domain.ErrProgressNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrPrerequisiteNotMet):
		status, code = http.StatusForbidden, "LOCKED"
	case errors.Is(err, domain.ErrAttemptsExceeded):
		status, code = http.StatusConflict, "ATTEMPTS_EXCEEDED"
	case errors.Is(err, domain.ErrChallengeInactive):
		status, code = http.StatusConflict, "CHALLENGE_INACTIVE"
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidScoreVector),
		errors.Is(err, domain.ErrInvalidWeights):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("internal error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		message = "an unexpected error occurred"
	}
	jsonError(w, status, code, message)
}

// requireUser extracts the acting user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header required")
		return "", false
	}
	return userID, true
}
