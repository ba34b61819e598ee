package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/rag"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps pipeline errors to HTTP status codes. Deadlines win over the
// collaborator that hit them.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, rag.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errors.Is(err, rag.ErrVectorStore):
		return http.StatusServiceUnavailable, "Vector store unavailable"
	case errors.Is(err, rag.ErrExternalService):
		return http.StatusBadGateway, "External service error"
	default:
		return http.StatusInternalServerError, "Failed to process question"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeError writes an error response carrying the request id.
func writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: contextutil.RequestIDFromContext(ctx),
	})
}
