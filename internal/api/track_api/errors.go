package track_api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/BearBump/LogiTrack/internal/integrations/store"
	"github.com/BearBump/LogiTrack/internal/services/lookup"
	"github.com/BearBump/LogiTrack/internal/trackview"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors to status codes. Unknown errors are logged and
// answered with a generic message.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, lookup.ErrNotFound), errors.Is(err, lookup.ErrEmptyCode):
		writeError(w, http.StatusNotFound, lookup.Message(err))
	case errors.Is(err, lookup.ErrConnectionFailed):
		writeError(w, http.StatusBadGateway, lookup.Message(err))
	case errors.Is(err, trackview.ErrViewNotFound):
		writeError(w, http.StatusNotFound, "view not found")
	case errors.Is(err, trackview.ErrTooManyViews):
		writeError(w, http.StatusServiceUnavailable, "too many open views")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrConfigNotReady):
		writeError(w, http.StatusServiceUnavailable, "remote store is not configured")
	case errors.Is(err, store.ErrPermissionDenied), errors.Is(err, store.ErrRemote):
		slog.Error("remote store call failed", "error", err.Error())
		writeError(w, http.StatusBadGateway, "remote store request failed")
	default:
		slog.Error("request failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
