package rag

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/narrative"
	"webtoon-rag/internal/vectorstore"
)

// HybridSearcher runs vector and lexical retrieval concurrently and fuses them.
type HybridSearcher struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	lexical    LexicalSearcher
	fusion     *RRFFusion
}

// NewHybridSearcher creates a hybrid searcher. lexical may be nil.
func NewHybridSearcher(embedder Embedder, store vectorstore.VectorStore, collection string, lexical LexicalSearcher, rrfK int) *HybridSearcher {
	return &HybridSearcher{
		embedder:   embedder,
		store:      store,
		collection: collection,
		lexical:    lexical,
		fusion:     NewRRFFusion(rrfK),
	}
}

type rankedScene struct {
	id    uint64
	scene narrative.Scene
}

// Search embeds expanded for the vector list and matches raw + expanded for the
// lexical list, then returns at most topK fused candidates without duplicates.
func (h *HybridSearcher) Search(ctx context.Context, raw, expanded string, topK int) ([]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return []Candidate{}, nil
	}

	var vecList, lexList []rankedScene

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, err := h.embedder.Encode(gctx, expanded)
		if err != nil {
			return externalError("embed", err)
		}
		results, err := h.store.Query(gctx, h.collection, vec, topK)
		if err != nil {
			return vectorStoreError("query", err)
		}
		for _, r := range results {
			scene, err := narrative.DecodeScene(r.Meta)
			if err != nil {
				logger.WarnContext(ctx, "skipping malformed vector payload", "unit_id", r.ID, "error", err)
				continue
			}
			vecList = append(vecList, rankedScene{id: r.ID, scene: scene})
		}
		return nil
	})
	g.Go(func() error {
		if h.lexical == nil {
			return nil
		}
		hits, err := h.lexical.Search(gctx, raw+" "+expanded, topK)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		for _, hit := range hits {
			scene, err := narrative.DecodeScene(hit.Payload)
			if err != nil {
				logger.WarnContext(ctx, "skipping malformed corpus payload", "unit_id", hit.ID, "error", err)
				continue
			}
			lexList = append(lexList, rankedScene{id: hit.ID, scene: scene})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scenes := make(map[uint64]narrative.Scene, len(vecList)+len(lexList))
	ids := func(list []rankedScene) []uint64 {
		out := make([]uint64, len(list))
		for i, r := range list {
			out[i] = r.id
			if _, ok := scenes[r.id]; !ok {
				scenes[r.id] = r.scene
			}
		}
		return out
	}
	vecIDs := ids(vecList)
	lexIDs := ids(lexList)

	fused := h.fusion.Fuse(vecIDs, lexIDs)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	candidates := make([]Candidate, len(fused))
	for i, f := range fused {
		candidates[i] = Candidate{
			ID:          f.ID,
			Scene:       scenes[f.ID],
			FusedScore:  f.Score,
			VectorRank:  f.VecRank,
			LexicalRank: f.LexRank,
		}
	}

	logger.InfoContext(ctx, "hybrid search completed",
		"vector_hits", len(vecList),
		"lexical_hits", len(lexList),
		"fused", len(candidates),
	)
	if logger.Enabled(ctx, slog.LevelDebug) && len(candidates) > 0 {
		top := make([]uint64, 0, 3)
		for i := 0; i < len(candidates) && i < 3; i++ {
			top = append(top, candidates[i].ID)
		}
		logger.DebugContext(ctx, "top fused candidates", "ids", top)
	}
	return candidates, nil
}
