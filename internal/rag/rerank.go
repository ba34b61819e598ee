package rag

import (
	"context"
	"fmt"
	"sort"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/llm"
)

// Reranker orders documents by a cross-encoder relevance score.
type Reranker struct {
	model CrossEncoder
}

// NewReranker creates a reranker backed by model.
func NewReranker(model CrossEncoder) *Reranker {
	return &Reranker{model: model}
}

// Rerank scores every (query, document context) pair in one batched call and
// returns the topK best as new records; docs is not modified.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	pairs := make([]llm.Pair, len(docs))
	for i, d := range docs {
		pairs[i] = llm.Pair{Query: query, Text: d.Context}
	}

	scores, err := r.model.Predict(ctx, pairs)
	if err != nil {
		return nil, externalError("rerank", err)
	}
	if len(scores) != len(docs) {
		return nil, externalError("rerank", fmt.Errorf("expected %d scores, got %d", len(docs), len(scores)))
	}

	scored := make([]ScoredDocument, len(docs))
	for i, d := range docs {
		scored[i] = ScoredDocument{Document: d, Score: scores[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}

	logger.InfoContext(ctx, "rerank completed", "candidates", len(docs), "kept", len(scored))
	return scored, nil
}
