package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"webtoon-rag/internal/indexer"
)

// blockingIngester waits on release before returning.
type blockingIngester struct {
	release chan struct{}
}

func (b *blockingIngester) Run(ctx context.Context) (*indexer.Stats, error) {
	<-b.release
	return &indexer.Stats{ScenesEmbedded: 3}, nil
}

func TestIndexHandler(t *testing.T) {
	ing := &blockingIngester{release: make(chan struct{})}
	h := NewIndexHandler(ing)
	finished := make(chan *indexer.Stats, 1)
	h.done = func(s *indexer.Stats, _ error) { finished <- s }

	post := func() int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/index", nil))
		return w.Code
	}

	if code := post(); code != http.StatusAccepted {
		t.Fatalf("first POST = %d, want 202", code)
	}
	if code := post(); code != http.StatusConflict {
		t.Errorf("second POST while running = %d, want 409", code)
	}

	close(ing.release)
	select {
	case s := <-finished:
		if s.ScenesEmbedded != 3 {
			t.Errorf("stats = %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ingestion did not finish")
	}

	if code := post(); code != http.StatusAccepted {
		t.Errorf("POST after completion = %d, want 202", code)
	}
	<-finished
}

func TestIndexHandler_MethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	NewIndexHandler(&blockingIngester{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/index", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d", w.Code)
	}
}
