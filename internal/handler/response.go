// Package handler provides the HTTP handlers for the LibReport API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/service"
	"github.com/prn-tf/libreport/internal/token"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps a service or domain error onto an HTTP status with
// the uniform {"error": "..."} body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorResponse{Error: messageForError(err)})
}

// writeErrorMsg writes an explicit status and message.
func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusForError classifies errors by sentinel.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInviteCodeInvalid),
		errors.Is(err, domain.ErrNoAvailableCopies),
		errors.Is(err, domain.ErrLoanAlreadyReturned),
		errors.Is(err, domain.ErrResetTokenInvalid):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUserInactive),
		errors.Is(err, token.ErrTokenInvalid):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAdminNotFound),
		errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrAdminKeyNotFound),
		errors.Is(err, domain.ErrHoursNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrAdminAlreadyExists),
		errors.Is(err, domain.ErrAdminKeyAlreadyExists):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// messageForError hides internal error detail from clients.
func messageForError(err error) string {
	if statusForError(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// decodeJSON decodes the request body into dst. Returns false after
// writing a 400 response when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
