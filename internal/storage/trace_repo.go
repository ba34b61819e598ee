package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"webtoon-rag/internal/rag"
)

// TraceRepo appends request traces to SQLite.
// It implements rag.TraceSink.
type TraceRepo struct {
	db *sql.DB
}

// NewTraceRepo creates a new TraceRepo.
func NewTraceRepo(db *sql.DB) *TraceRepo {
	return &TraceRepo{db: db}
}

// Record inserts one trace row.
func (r *TraceRepo) Record(ctx context.Context, trace rag.Trace) error {
	candidates, err := marshalList(trace.Candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	reranked, err := marshalList(trace.Reranked)
	if err != nil {
		return fmt.Errorf("failed to encode reranked: %w", err)
	}

	var chapter sql.NullInt64
	if trace.ChapterID > 0 {
		chapter = sql.NullInt64{Int64: int64(trace.ChapterID), Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO traces (query, intent, chapter_id, rewritten_query, candidates, reranked, answer_length)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trace.Query, string(trace.Intent), chapter, trace.RewrittenQuery, candidates, reranked, trace.AnswerLength,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trace: %w", err)
	}
	return nil
}

// Recent returns up to limit traces, newest first.
func (r *TraceRepo) Recent(ctx context.Context, limit int) ([]TraceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, query, intent, chapter_id, rewritten_query, candidates, reranked, answer_length, created_at
		FROM traces ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query traces: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []TraceRecord
	for rows.Next() {
		var (
			rec       TraceRecord
			chapter   sql.NullInt64
			rewritten sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Intent, &chapter, &rewritten,
			&rec.Candidates, &rec.Reranked, &rec.AnswerLength, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		rec.ChapterID = int(chapter.Int64)
		rec.RewrittenQuery = rewritten.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating traces: %w", err)
	}
	return out, nil
}

// Count returns the number of stored traces.
func (r *TraceRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM traces").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count traces: %w", err)
	}
	return n, nil
}

// marshalList encodes a slice as JSON, writing "[]" for nil.
func marshalList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ rag.TraceSink = (*TraceRepo)(nil)
