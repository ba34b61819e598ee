package rag

import (
	"math"
	"testing"
)

func TestFuse(t *testing.T) {
	f := NewRRFFusion(60)
	got := f.Fuse([]uint64{1, 2, 3}, []uint64{3, 4})

	want := map[uint64]float64{
		1: 1.0 / 61,
		2: 1.0 / 62,
		3: 1.0/63 + 1.0/61,
		4: 1.0 / 62,
	}
	if len(got) != len(want) {
		t.Fatalf("Fuse() returned %d results, want %d", len(got), len(want))
	}
	for _, r := range got {
		if math.Abs(r.Score-want[r.ID]) > 1e-12 {
			t.Errorf("score of %d = %v, want %v", r.ID, r.Score, want[r.ID])
		}
	}

	order := []uint64{3, 1, 2, 4}
	for i, id := range order {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), order)
		}
	}
	if got[0].VecRank != 3 || got[0].LexRank != 1 {
		t.Errorf("ranks of 3 = (%d, %d), want (3, 1)", got[0].VecRank, got[0].LexRank)
	}
	if got[3].VecRank != 0 || got[3].LexRank != 2 {
		t.Errorf("ranks of 4 = (%d, %d), want (0, 2)", got[3].VecRank, got[3].LexRank)
	}
}

func TestFuseTiesKeepVectorFirst(t *testing.T) {
	got := NewRRFFusion(60).Fuse([]uint64{7}, []uint64{9})
	if got[0].ID != 7 || got[1].ID != 9 {
		t.Errorf("tie order = %v, want [7 9]", ids(got))
	}
}

func TestFuseDuplicateInsideList(t *testing.T) {
	got := NewRRFFusion(60).Fuse([]uint64{5, 5, 6}, nil)
	if len(got) != 2 {
		t.Fatalf("Fuse() = %v, want two units", ids(got))
	}
	if math.Abs(got[0].Score-1.0/61) > 1e-12 || got[0].VecRank != 1 {
		t.Errorf("duplicate counted twice: %+v", got[0])
	}
}

func TestFuseMonotonic(t *testing.T) {
	f := NewRRFFusion(60)
	base := f.Fuse([]uint64{1, 2}, []uint64{2})
	boosted := f.Fuse([]uint64{1, 2}, []uint64{2, 1})

	score := func(rs []FusedResult, id uint64) float64 {
		for _, r := range rs {
			if r.ID == id {
				return r.Score
			}
		}
		return 0
	}
	if score(boosted, 1) <= score(base, 1) {
		t.Error("appearing in a second list must raise the fused score")
	}
}

func TestFuseEmptyAndDefaultK(t *testing.T) {
	if got := NewRRFFusion(60).Fuse(nil, nil); len(got) != 0 {
		t.Errorf("Fuse(nil, nil) = %v", got)
	}
	if k := NewRRFFusion(0).K; k != DefaultRRFConstant {
		t.Errorf("NewRRFFusion(0).K = %d", k)
	}
}

func ids(rs []FusedResult) []uint64 {
	out := make([]uint64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
