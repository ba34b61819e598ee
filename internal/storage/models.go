package storage

import "time"

// TraceRecord is one stored request trace. Candidates and Reranked hold JSON arrays.
type TraceRecord struct {
	ID             int64
	Query          string
	Intent         string
	ChapterID      int // 0 when the request did not target a chapter
	RewrittenQuery string
	Candidates     string
	Reranked       string
	AnswerLength   int
	CreatedAt      time.Time
}
