package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"webtoon-rag/internal/llm"
	"webtoon-rag/internal/rag"
	"webtoon-rag/internal/rag/mocks"
)

func docs(texts ...string) []rag.Document {
	out := make([]rag.Document, len(texts))
	for i, text := range texts {
		c := candidate(1, i+1, text)
		out[i] = rag.Document{Candidate: c, Extended: text, Context: "ctx:" + text}
	}
	return out
}

func TestRerank(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	model := mocks.NewMockCrossEncoder(ctrl)

	in := docs("a", "b", "c")
	original := append([]rag.Document(nil), in...)

	model.EXPECT().Predict(gomock.Any(), []llm.Pair{
		{Query: "q", Text: "ctx:a"},
		{Query: "q", Text: "ctx:b"},
		{Query: "q", Text: "ctx:c"},
	}).Return([]float64{0.1, 0.9, 0.5}, nil).Times(2)

	r := rag.NewReranker(model)
	got, err := r.Rerank(context.Background(), "q", in, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Extended)
	assert.Equal(t, 0.9, got[0].Score)
	assert.Equal(t, "c", got[1].Extended)
	assert.Equal(t, original, in, "input is not modified")

	again, err := r.Rerank(context.Background(), "q", in, 2)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestRerankTiesAreStable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	model := mocks.NewMockCrossEncoder(ctrl)
	model.EXPECT().Predict(gomock.Any(), gomock.Any()).Return([]float64{1, 1, 2}, nil)

	got, err := rag.NewReranker(model).Rerank(context.Background(), "q", docs("a", "b", "c"), 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Extended, got[1].Extended, got[2].Extended})
}

func TestRerankEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	got, err := rag.NewReranker(mocks.NewMockCrossEncoder(ctrl)).Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRerankErrors(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		err    error
	}{
		{name: "model failure", err: errors.New("500")},
		{name: "score count mismatch", scores: []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			model := mocks.NewMockCrossEncoder(ctrl)
			model.EXPECT().Predict(gomock.Any(), gomock.Any()).Return(tt.scores, tt.err)

			_, err := rag.NewReranker(model).Rerank(context.Background(), "q", docs("a", "b"), 5)
			assert.ErrorIs(t, err, rag.ErrExternalService)
		})
	}
}
