package rag

import (
	"context"
	"sort"
	"strings"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/narrative"
	"webtoon-rag/internal/vectorstore"
)

// WindowExpander stitches each anchor scene together with its neighbours in the same chapter.
type WindowExpander struct {
	store      vectorstore.VectorStore
	collection string
}

// NewWindowExpander creates a window expander reading from store.
func NewWindowExpander(store vectorstore.VectorStore, collection string) *WindowExpander {
	return &WindowExpander{store: store, collection: collection}
}

// Expand returns anchor id -> text of scenes idx-w..idx+w joined in index order.
// Neighbours are fetched in one call; absent ids and payloads of another chapter
// are skipped. w <= 0 returns each anchor's own text without fetching.
func (w *WindowExpander) Expand(ctx context.Context, anchors []Candidate, window int) (map[uint64]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	out := make(map[uint64]string, len(anchors))
	if window <= 0 {
		for _, a := range anchors {
			out[a.ID] = a.Scene.Text
		}
		return out, nil
	}

	wanted := map[uint64]struct{}{}
	for _, a := range anchors {
		for _, id := range neighbourIDs(a.Scene.ChapterID, a.Scene.SceneIdx, window) {
			wanted[id] = struct{}{}
		}
	}
	ids := make([]uint64, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	records, err := w.store.Retrieve(ctx, w.collection, ids)
	if err != nil {
		return nil, vectorStoreError("retrieve", err)
	}

	texts := make(map[uint64]string, len(records))
	for _, r := range records {
		scene, err := narrative.DecodeScene(r.Meta)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed neighbour payload", "unit_id", r.ID, "error", err)
			continue
		}
		chapter, _ := narrative.SplitUnitID(r.ID)
		if scene.ChapterID != chapter {
			logger.WarnContext(ctx, "dropping neighbour from another chapter", "unit_id", r.ID, "chapter_id", scene.ChapterID)
			continue
		}
		texts[r.ID] = scene.Text
	}

	for _, a := range anchors {
		if _, ok := texts[a.ID]; !ok {
			texts[a.ID] = a.Scene.Text
		}
	}

	for _, a := range anchors {
		var parts []string
		for _, id := range neighbourIDs(a.Scene.ChapterID, a.Scene.SceneIdx, window) {
			if t, ok := texts[id]; ok {
				parts = append(parts, t)
			}
		}
		out[a.ID] = strings.Join(parts, "\n")
	}

	logger.InfoContext(ctx, "window expansion completed",
		"anchors", len(anchors),
		"window", window,
		"requested", len(ids),
		"fetched", len(records),
	)
	return out, nil
}

// neighbourIDs lists unit ids idx-w..idx+w of chapter, clamped to [0, SceneStride).
// The anchor's own id is always included.
func neighbourIDs(chapter, idx, window int) []uint64 {
	lo := idx - window
	if lo < 0 {
		lo = 0
	}
	hi := idx + window
	if hi >= narrative.SceneStride {
		hi = narrative.SceneStride - 1
	}
	ids := make([]uint64, 0, hi-lo+1)
	for j := lo; j <= hi; j++ {
		ids = append(ids, uint64(chapter)*narrative.SceneStride+uint64(j))
	}
	return ids
}
