package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtoon-rag/internal/indexer"
	"webtoon-rag/internal/rag"
)

type scriptedEngine struct {
	questions []string
}

func (e *scriptedEngine) Ask(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	e.questions = append(e.questions, req.Question)
	if req.Question == "fail" {
		return rag.AskResponse{}, errors.New("model down")
	}
	return rag.AskResponse{
		Answer:     "answer to " + req.Question,
		Intent:     rag.IntentSearch,
		References: []rag.Reference{{ChapterID: 3, SceneIdx: 12, ImageFile: "3_12.png", Score: 0.5}},
	}, nil
}

func TestRepl(t *testing.T) {
	engine := &scriptedEngine{}
	in := strings.NewReader("첫 질문\n\n   \nfail\n두번째\nexit\nnever asked\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), engine, rag.AskRequest{}, in, &out))

	assert.Equal(t, []string{"첫 질문", "fail", "두번째"}, engine.questions)
	assert.Contains(t, out.String(), "answer to 첫 질문")
	assert.Contains(t, out.String(), "model down")
	assert.Contains(t, out.String(), "3화 12컷")
}

func TestRepl_EOF(t *testing.T) {
	engine := &scriptedEngine{}
	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), engine, rag.AskRequest{}, strings.NewReader("q"), &out))
	assert.Equal(t, []string{"q"}, engine.questions)
}

func TestRenderAnswer(t *testing.T) {
	resp := rag.AskResponse{
		Answer:    "요약",
		Intent:    rag.IntentLookupChapter,
		ChapterID: 3,
		Debug:     &rag.DebugInfo{StageLatencyMS: map[string]int64{"generate": 12, "route": 3}},
	}

	var plain bytes.Buffer
	renderAnswer(&plain, resp, false)
	assert.Contains(t, plain.String(), "chapter 3 summary")
	assert.NotContains(t, plain.String(), "latency")

	var detailed bytes.Buffer
	renderAnswer(&detailed, resp, true)
	assert.Contains(t, detailed.String(), "latency: route=3ms generate=12ms")
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "-", formatLatency(nil))
	assert.Equal(t, "retrieve=5ms rerank=7ms", formatLatency(map[string]int64{"rerank": 7, "retrieve": 5, "other": 1}))
}

func TestRenderStats(t *testing.T) {
	var out bytes.Buffer
	renderStats(&out, &indexer.Stats{
		FilesProcessed:  3,
		ScenesEmbedded:  2,
		ScenesSkipped:   1,
		SkippedReasons:  map[string]int{"no_id": 1},
		PipelineVersion: indexer.PipelineVersion,
		IndexVersion:    "abc",
	})
	assert.Contains(t, out.String(), "scenes embedded: 2")
	assert.Contains(t, out.String(), "no_id: 1")
	assert.NotContains(t, out.String(), "bad_id")
}
