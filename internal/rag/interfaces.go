package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks webtoon-rag/internal/rag LLM,Embedder,CrossEncoder,TraceSink,Engine

import (
	"context"

	"webtoon-rag/internal/lexical"
	"webtoon-rag/internal/llm"
)

// LLM is the language model used for routing, rewriting and generation.
type LLM interface {
	Ask(ctx context.Context, system, user string) (string, error)
}

// Embedder encodes a query into the vector space of the scene collection.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// CrossEncoder scores (query, text) pairs jointly.
type CrossEncoder interface {
	Predict(ctx context.Context, pairs []llm.Pair) ([]float64, error)
}

// LexicalSearcher is the keyword index. A nil searcher disables the lexical list.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]lexical.Hit, error)
}

// TraceSink records per-request diagnostics.
type TraceSink interface {
	Record(ctx context.Context, trace Trace) error
}
