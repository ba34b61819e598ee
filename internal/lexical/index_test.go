package lexical

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtoon-rag/internal/narrative"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func entry(chapter, idx int, text string) narrative.CorpusEntry {
	s := narrative.Scene{Text: text, ChapterID: chapter, SceneIdx: idx, ID: "", Type: narrative.SceneType}
	return narrative.CorpusEntry{ID: s.UnitID(), Text: text, Payload: s.Payload()}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "particle stripped", in: "A와 B", want: []string{"a와", "a", "b"}},
		{name: "punctuation split", in: "철수는, 영희를!", want: []string{"철수는", "철수", "영희를", "영희"}},
		{name: "long particle first", in: "학교에서", want: []string{"학교에서", "학교"}},
		{name: "bare particle kept", in: "나 는", want: []string{"나", "는"}},
		{name: "latin untouched", in: "Hello World42", want: []string{"hello", "world42"}},
		{name: "empty", in: "  ...  ", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestIndexSearch(t *testing.T) {
	ctx := context.Background()
	idx, err := Build(ctx, []narrative.CorpusEntry{
		entry(1, 1, "A meets B"),
		entry(1, 2, "철수가 학교에 간다"),
		entry(2, 1, "영희와 철수는 친구다"),
		entry(2, 2, "   "),
	}, testLogger)
	require.NoError(t, err)
	defer idx.Close()

	assert.Equal(t, 3, idx.Len(), "blank texts are not indexed")

	t.Run("particles match stems", func(t *testing.T) {
		hits, err := idx.Search(ctx, "A와 B A와 B", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, uint64(10001), hits[0].ID)
		assert.Equal(t, "A meets B", hits[0].Text)
		assert.Greater(t, hits[0].Score, 0.0)
		assert.Equal(t, "A meets B", hits[0].Payload["text"])
	})

	t.Run("korean stems across scenes", func(t *testing.T) {
		hits, err := idx.Search(ctx, "철수는 어디에", 10)
		require.NoError(t, err)
		ids := make([]uint64, 0, len(hits))
		for _, h := range hits {
			ids = append(ids, h.ID)
		}
		assert.ElementsMatch(t, []uint64{10002, 20001}, ids)
	})

	t.Run("limit respected", func(t *testing.T) {
		hits, err := idx.Search(ctx, "철수", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("no match", func(t *testing.T) {
		hits, err := idx.Search(ctx, "존재하지않는단어", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("empty query", func(t *testing.T) {
		hits, err := idx.Search(ctx, "   ", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestEmptyIndex(t *testing.T) {
	idx, err := Build(context.Background(), nil, testLogger)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), "A와 B", 50)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close(), "close is idempotent")

	_, err = idx.Search(context.Background(), "A", 5)
	assert.Error(t, err)
}
