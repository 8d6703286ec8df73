// ABOUTME: Maps board engine errors to HTTP status codes and writes JSON helpers.
// ABOUTME: Rejections become 4xx with their message; anything else is logged and becomes 500.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/scarson/taskboard/internal/board"
)

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writeJSON: encode failed", "error", err)
	}
}

// errInvalidInput marks a malformed request field. It maps to 400.
var errInvalidInput = errors.New("invalid input")

// statusOf returns the HTTP status for a board engine error, or 0 when err is
// not a rejection.
func statusOf(err error) int {
	switch {
	case errors.Is(err, board.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, board.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, board.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrMultipleOwners),
		errors.Is(err, board.ErrSelfDemotion),
		errors.Is(err, board.ErrDuplicateParticipant),
		errors.Is(err, board.ErrUnknownUser),
		errors.Is(err, errInvalidInput):
		return http.StatusBadRequest
	default:
		return 0
	}
}

// writeBoardError writes the response for err. op names the failed operation
// in the log line for unexpected errors.
func writeBoardError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if status := statusOf(err); status != 0 {
		http.Error(w, err.Error(), status)
		return
	}
	slog.ErrorContext(r.Context(), op, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// decodeBody decodes the JSON request body into v, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
