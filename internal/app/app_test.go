package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtoon-rag/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewLogger(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "json", want: `"msg":"hello"`},
		{format: "text", want: "msg=hello"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.LogFormat = tt.format
			var buf bytes.Buffer
			NewLogger(cfg, &buf).Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLoadKnowledge(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = dir
	cfg.CorpusPath = filepath.Join(dir, "bm25_corpus.json")
	cfg.LookupStorePath = filepath.Join(dir, "lookup_store.json")
	cfg.CharactersPath = filepath.Join(dir, "characters.json")
	cfg.EventsDir = filepath.Join(dir, "events")

	t.Run("missing files are empty", func(t *testing.T) {
		k, err := LoadKnowledge(cfg, testLogger)
		require.NoError(t, err)
		assert.Empty(t, k.Corpus)
		assert.Equal(t, 0, k.Lookup.Len())
		assert.Empty(t, k.Events)
		assert.Empty(t, k.Roster)
	})

	t.Run("files loaded", func(t *testing.T) {
		write := func(path, content string) {
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		}
		write(cfg.CorpusPath, `[{"id":10001,"text":"A meets B","payload":{"text":"A meets B","chapter_id":1,"scene_idx":1}}]`)
		write(cfg.LookupStorePath, `{"chapter_1":"A meets B.","event_1":"Arc one"}`)
		write(filepath.Join(cfg.EventsDir, "1.json"), `{"episode_range":"1~2","content":"Arc one"}`)
		write(cfg.CharactersPath, `{"characters":[{"name_candidates":["A"]}]}`)

		k, err := LoadKnowledge(cfg, testLogger)
		require.NoError(t, err)
		assert.Len(t, k.Corpus, 1)
		assert.Equal(t, "A meets B.", k.Lookup.Chapter(1))
		assert.Equal(t, "1", k.Events[2])
		require.Len(t, k.Roster, 1)
		assert.Equal(t, "A", k.Roster[0].Canonical())
	})

	t.Run("malformed corpus", func(t *testing.T) {
		require.NoError(t, os.WriteFile(cfg.CorpusPath, []byte("{"), 0o644))
		_, err := LoadKnowledge(cfg, testLogger)
		assert.Error(t, err)
	})
}

type sizedEmbedder struct {
	size int
	err  error
}

func (e sizedEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, e.size)
	}
	return out, nil
}

func (sizedEmbedder) ModelName() string { return "sized" }

func TestValidateEmbedder(t *testing.T) {
	assert.NoError(t, validateEmbedder(context.Background(), sizedEmbedder{size: 4}, 4))
	assert.ErrorContains(t, validateEmbedder(context.Background(), sizedEmbedder{size: 3}, 4), "expected 4, got 3")
	assert.Error(t, validateEmbedder(context.Background(), sizedEmbedder{err: errors.New("down")}, 4))
}

func TestClose(t *testing.T) {
	var order []int
	a := &App{closers: []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("boom") },
	}}
	err := a.Close()
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, a.Close(), "second close is a no-op")
}
