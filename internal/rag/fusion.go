package rag

import "sort"

// DefaultRRFConstant is the reciprocal-rank-fusion smoothing constant.
const DefaultRRFConstant = 60

// FusedResult is one unit after fusing the vector and lexical lists.
type FusedResult struct {
	ID      uint64
	Score   float64
	VecRank int // 1-based, 0 if absent
	LexRank int // 1-based, 0 if absent
}

// RRFFusion merges ranked id lists by summing 1/(K+r+1) per list, r being 0-based.
type RRFFusion struct {
	K int
}

// NewRRFFusion creates a fusion with constant k; k <= 0 selects DefaultRRFConstant.
func NewRRFFusion(k int) *RRFFusion {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &RRFFusion{K: k}
}

// Fuse combines the lists and sorts by fused score descending. Equal scores keep
// first-seen order, and the vector list is visited first. Duplicate ids inside one
// list only count at their best rank.
func (f *RRFFusion) Fuse(vector, lexical []uint64) []FusedResult {
	byID := make(map[uint64]int, len(vector)+len(lexical))
	results := make([]FusedResult, 0, len(vector)+len(lexical))

	add := func(list []uint64, setRank func(*FusedResult, int) bool) {
		for r, id := range list {
			i, ok := byID[id]
			if !ok {
				i = len(results)
				byID[id] = i
				results = append(results, FusedResult{ID: id})
			}
			if setRank(&results[i], r+1) {
				results[i].Score += 1 / float64(f.K+r+1)
			}
		}
	}

	add(vector, func(fr *FusedResult, rank int) bool {
		if fr.VecRank != 0 {
			return false
		}
		fr.VecRank = rank
		return true
	})
	add(lexical, func(fr *FusedResult, rank int) bool {
		if fr.LexRank != 0 {
			return false
		}
		fr.LexRank = rank
		return true
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
