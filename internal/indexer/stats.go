package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// PipelineVersion identifies the scene flattening rules.
	// Update this when text extraction changes.
	PipelineVersion = "v1.0"
	// RunesPerToken approximates token counts from rune counts.
	RunesPerToken = 4.0
)

// Stats summarises one ingestion run.
type Stats struct {
	FilesProcessed int `json:"files_processed"`
	ScenesEmbedded int `json:"scenes_embedded"`
	ScenesSkipped  int `json:"scenes_skipped"`
	// SkippedReasons breaks skips down by cause (no_id, bad_id, empty_text, unreadable).
	SkippedReasons  map[string]int  `json:"skipped_reasons,omitempty"`
	SceneTokenStats SceneTokenStats `json:"scene_token_stats"`
	PipelineVersion string          `json:"pipeline_version"`
	// IndexVersion is a hash of the pipeline version, embedding model and batch size.
	IndexVersion string `json:"index_version"`

	tokenCounts []int
}

// SceneTokenStats describes the estimated token counts of indexed scenes.
type SceneTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newStats() *Stats {
	return &Stats{SkippedReasons: map[string]int{}, PipelineVersion: PipelineVersion}
}

func (s *Stats) skip(reason string) {
	s.ScenesSkipped++
	s.SkippedReasons[reason]++
}

func (s *Stats) observe(text string) {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / RunesPerToken))
	if n < 1 {
		n = 1
	}
	s.tokenCounts = append(s.tokenCounts, n)
}

func (s *Stats) finish(embeddingModel string) {
	s.SceneTokenStats = computeTokenStats(s.tokenCounts)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", PipelineVersion, embeddingModel, BatchSize)))
	s.IndexVersion = hex.EncodeToString(sum[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) SceneTokenStats {
	if len(tokenCounts) == 0 {
		return SceneTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range sorted {
		sum += c
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return SceneTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
