package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"webtoon-rag/internal/indexer"
	"webtoon-rag/internal/rag"
)

var (
	headerColor  = lipgloss.Color("#F780FF") // Bright pink
	answerColor  = lipgloss.Color("#E9E9F4") // Light purple/white
	contextColor = lipgloss.Color("#6272A4") // Muted purple
	errorColor   = lipgloss.Color("#FF5555") // Red
	successColor = lipgloss.Color("#50FA7B") // Green
	accentColor  = lipgloss.Color("#8BE9FD") // Cyan

	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	answerStyle  = lipgloss.NewStyle().Foreground(answerColor)
	contextStyle = lipgloss.NewStyle().Foreground(contextColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	accentStyle  = lipgloss.NewStyle().Foreground(accentColor)
)

func renderAnswer(w io.Writer, resp rag.AskResponse, verbose bool) {
	label := "Answer"
	if resp.Intent == rag.IntentLookupChapter {
		label = fmt.Sprintf("Answer (chapter %d summary)", resp.ChapterID)
	}
	fmt.Fprintln(w, headerStyle.Render(label+":"))
	fmt.Fprintln(w, answerStyle.Render(resp.Answer))

	if len(resp.References) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("References:"))
		for _, ref := range resp.References {
			line := fmt.Sprintf("  %d화 %d컷  %s  score=%.3f", ref.ChapterID, ref.SceneIdx, ref.ImageFile, ref.Score)
			fmt.Fprintln(w, accentStyle.Render(line))
		}
	}

	if verbose && resp.Debug != nil {
		fmt.Fprintln(w)
		if resp.Debug.RewrittenQuery != "" {
			fmt.Fprintln(w, contextStyle.Render("rewritten: "+resp.Debug.RewrittenQuery))
		}
		fmt.Fprintln(w, contextStyle.Render(fmt.Sprintf("fused candidates: %d", len(resp.Debug.Fused))))
		fmt.Fprintln(w, contextStyle.Render("latency: "+formatLatency(resp.Debug.StageLatencyMS)))
	}
}

var stageOrder = []string{"route", "rewrite", "retrieve", "window", "rerank", "generate"}

func formatLatency(ms map[string]int64) string {
	parts := make([]string, 0, len(ms))
	for _, stage := range stageOrder {
		if v, ok := ms[stage]; ok {
			parts = append(parts, fmt.Sprintf("%s=%dms", stage, v))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func renderStats(w io.Writer, stats *indexer.Stats) {
	fmt.Fprintln(w, successStyle.Render("✓ Ingestion complete"))
	fmt.Fprintf(w, "  files processed: %d\n", stats.FilesProcessed)
	fmt.Fprintf(w, "  scenes embedded: %d\n", stats.ScenesEmbedded)
	fmt.Fprintf(w, "  scenes skipped:  %d\n", stats.ScenesSkipped)
	for _, reason := range []string{"no_id", "bad_id", "empty_text", "unreadable"} {
		if n := stats.SkippedReasons[reason]; n > 0 {
			fmt.Fprintln(w, contextStyle.Render(fmt.Sprintf("    %s: %d", reason, n)))
		}
	}
	t := stats.SceneTokenStats
	fmt.Fprintf(w, "  scene tokens:    min=%d max=%d mean=%.1f p95=%d\n", t.Min, t.Max, t.Mean, t.P95)
	fmt.Fprintln(w, contextStyle.Render(fmt.Sprintf("  pipeline %s, index %s", stats.PipelineVersion, stats.IndexVersion)))
}
