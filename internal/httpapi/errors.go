package httpapi

import (
	"encoding/json"
	"net/http"

	"videod/internal/engine"
	"videod/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps well-known engine errors to HTTP status codes.
// Unknown errors become 500s.
func statusForError(err error) int {
	switch {
	case engine.IsInvalidPrompt(err):
		return http.StatusBadRequest
	case engine.IsBusy(err):
		return http.StatusTooManyRequests
	case engine.IsNoModel(err), engine.IsLoadError(err):
		return http.StatusServiceUnavailable
	case engine.IsGenerationFailed(err):
		return http.StatusInternalServerError
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("generate")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
