package rag

import "webtoon-rag/internal/narrative"

// Intent is the routing decision kind.
type Intent string

const (
	IntentLookupChapter Intent = "lookup_chapter"
	IntentSearch        Intent = "search"
)

// RouterDecision is the output of the intent router. ChapterID is 0 when absent.
type RouterDecision struct {
	Intent    Intent
	ChapterID int
}

// IsLookup reports whether the decision selects the chapter lookup path.
func (d RouterDecision) IsLookup() bool {
	return d.Intent == IntentLookupChapter && d.ChapterID > 0
}

// Candidate is an immutable retrieval record produced by hybrid search.
type Candidate struct {
	ID         uint64
	Scene      narrative.Scene
	FusedScore float64
	// VectorRank and LexicalRank are 1-based positions in each list, 0 when absent.
	VectorRank  int
	LexicalRank int
}

// Document is a candidate with its window-expanded text and the context shown to the reranker.
type Document struct {
	Candidate Candidate
	Extended  string
	Context   string
}

// ScoredDocument wraps a document with its cross-encoder score.
type ScoredDocument struct {
	Document
	Score float64
}

// AskRequest represents a question to answer.
type AskRequest struct {
	// Question is the user's question.
	Question string `json:"question"`
	// WindowSize optionally overrides the configured neighbour window.
	WindowSize *int `json:"window_size,omitempty"`
	// Debug enables debug mode, returning retrieval details.
	Debug bool `json:"debug,omitempty"`
}

// Reference is a scene that was used as evidence for the answer.
type Reference struct {
	UnitID    uint64  `json:"unit_id"`
	ChapterID int     `json:"chapter_id"`
	SceneIdx  int     `json:"scene_idx"`
	EventID   string  `json:"event_id,omitempty"`
	ImageFile string  `json:"image_file"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// AskResponse represents the answer and how it was produced.
type AskResponse struct {
	Answer     string      `json:"answer"`
	Intent     Intent      `json:"intent"`
	ChapterID  int         `json:"chapter_id,omitempty"`
	References []Reference `json:"references"`
	Debug      *DebugInfo  `json:"debug,omitempty"`
}

// DebugInfo contains retrieval details for inspection and evaluation.
type DebugInfo struct {
	RewrittenQuery string           `json:"rewritten_query,omitempty"`
	Fused          []FusedCandidate `json:"fused,omitempty"`
	Reranked       []Reference      `json:"reranked,omitempty"`
	StageLatencyMS map[string]int64 `json:"stage_latency_ms"`
}

// FusedCandidate is a hybrid search hit as reported in debug output.
type FusedCandidate struct {
	UnitID      uint64  `json:"unit_id"`
	Rank        int     `json:"rank"`
	FusedScore  float64 `json:"fused_score"`
	VectorRank  int     `json:"vector_rank,omitempty"`
	LexicalRank int     `json:"lexical_rank,omitempty"`
}

// Trace is the record handed to a TraceSink after each request.
type Trace struct {
	Query          string
	Intent         Intent
	ChapterID      int
	RewrittenQuery string
	Candidates     []FusedCandidate
	Reranked       []Reference
	AnswerLength   int
}
