package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"webtoon-rag/internal/storage"
)

type fakeTraces struct {
	records []storage.TraceRecord
	err     error
	limit   int
}

func (f *fakeTraces) Recent(_ context.Context, limit int) ([]storage.TraceRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func TestTraceHandler(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		traces    *fakeTraces
		wantCode  int
		wantLimit int
	}{
		{
			name:      "default limit",
			traces:    &fakeTraces{records: []storage.TraceRecord{{ID: 1, Query: "q", Intent: "search", Candidates: `[{"unit_id":10001}]`, Reranked: "not json"}}},
			wantCode:  http.StatusOK,
			wantLimit: defaultTraceLimit,
		},
		{name: "clamped", query: "?limit=5000", traces: &fakeTraces{}, wantCode: http.StatusOK, wantLimit: maxTraceLimit},
		{name: "invalid limit", query: "?limit=abc", traces: &fakeTraces{}, wantCode: http.StatusBadRequest},
		{name: "store failure", traces: &fakeTraces{err: errors.New("locked")}, wantCode: http.StatusInternalServerError, wantLimit: defaultTraceLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewTraceHandler(tt.traces).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/traces"+tt.query, nil))

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.traces.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", tt.traces.limit, tt.wantLimit)
			}
			if w.Code != http.StatusOK {
				return
			}
			var out []TraceResponse
			if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if len(out) != len(tt.traces.records) {
				t.Fatalf("got %d traces", len(out))
			}
			if len(out) > 0 && string(out[0].Reranked) != "[]" {
				t.Errorf("invalid stored JSON should become [], got %s", out[0].Reranked)
			}
		})
	}
}
