package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalkeep/internal/ctxkeys"
	"github.com/templui/goalkeep/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps a lifecycle failure to its HTTP status. Anything
// outside the domain taxonomy is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.Code(err)
	if code == service.CodeInternal {
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, code, "internal server error")
		return
	}

	writeError(w, statusFor(err), code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAuthorized), errors.Is(err, service.ErrNotValidator):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGoalNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidParameters), errors.Is(err, service.ErrInvalidMilestone):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
