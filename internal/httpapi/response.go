package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/cleanmedia/internal/media"
)

// Response is the envelope of structured endpoints.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any, meta map[string]any) {
	writeJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, Response{Error: &ErrorDetail{Code: code, Message: err.Error()}})
}

// classify maps an error to its status code and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, media.ErrInvalidID), errors.Is(err, ErrMissingID):
		return http.StatusBadRequest, "invalid_id"
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrQueueDisabled):
		return http.StatusNotImplemented, "queue_disabled"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
