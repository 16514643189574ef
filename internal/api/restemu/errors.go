package restemu

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BearBump/LogiTrack/internal/storage/pgorders"
)

// apiError mirrors the PostgREST error body.
type apiError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, apiError{Code: code, Message: msg})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, "PGRST301"
	case errors.Is(err, errWriteForbidden):
		return http.StatusForbidden, "42501"
	case errors.Is(err, pgorders.ErrUnknownTable):
		return http.StatusNotFound, "PGRST205"
	case errors.Is(err, pgorders.ErrUnknownColumn):
		return http.StatusBadRequest, "42703"
	case errors.Is(err, pgorders.ErrInvalidValue), errors.Is(err, errBadBody):
		return http.StatusBadRequest, "22P02"
	case errors.Is(err, pgorders.ErrFilterRequired):
		return http.StatusBadRequest, "21000"
	case errors.Is(err, ErrUnsupportedQuery):
		return http.StatusBadRequest, "PGRST100"
	case errors.Is(err, pgorders.ErrConflict):
		return http.StatusConflict, "23505"
	default:
		return http.StatusInternalServerError, "XX000"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("emulator request failed", "method", r.Method, "path", r.URL.Path, "error", msg)
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}
