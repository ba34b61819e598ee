package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/storage"
)

const (
	defaultTraceLimit = 20
	maxTraceLimit     = 200
)

// TraceLister reads recent request traces.
type TraceLister interface {
	Recent(ctx context.Context, limit int) ([]storage.TraceRecord, error)
}

// TraceResponse is one stored trace with its candidate lists decoded.
type TraceResponse struct {
	ID             int64           `json:"id"`
	Query          string          `json:"query"`
	Intent         string          `json:"intent"`
	ChapterID      int             `json:"chapter_id,omitempty"`
	RewrittenQuery string          `json:"rewritten_query,omitempty"`
	Candidates     json.RawMessage `json:"candidates"`
	Reranked       json.RawMessage `json:"reranked"`
	AnswerLength   int             `json:"answer_length"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TraceHandler serves GET /api/v1/traces?limit=N.
type TraceHandler struct {
	traces TraceLister
}

// NewTraceHandler creates a new TraceHandler.
func NewTraceHandler(traces TraceLister) *TraceHandler {
	return &TraceHandler{traces: traces}
}

// ServeHTTP lists the newest traces first.
func (h *TraceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := defaultTraceLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTraceLimit)
	}

	records, err := h.traces.Recent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list traces", "error", err)
		writeError(ctx, w, http.StatusInternalServerError, "Failed to list traces")
		return
	}

	out := make([]TraceResponse, len(records))
	for i, rec := range records {
		out[i] = TraceResponse{
			ID:             rec.ID,
			Query:          rec.Query,
			Intent:         rec.Intent,
			ChapterID:      rec.ChapterID,
			RewrittenQuery: rec.RewrittenQuery,
			Candidates:     rawList(rec.Candidates),
			Reranked:       rawList(rec.Reranked),
			AnswerLength:   rec.AnswerLength,
			CreatedAt:      rec.CreatedAt,
		}
	}
	_ = writeJSON(w, http.StatusOK, out)
}

// rawList passes stored JSON through, replacing invalid content with an empty list.
func rawList(s string) json.RawMessage {
	if !json.Valid([]byte(s)) {
		return json.RawMessage("[]")
	}
	return json.RawMessage(s)
}
