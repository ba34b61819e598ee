package handlers

import (
	"context"
	"net/http"
	"sync"

	"webtoon-rag/internal/contextutil"
	"webtoon-rag/internal/indexer"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context) (*indexer.Stats, error)
}

// IndexHandler handles HTTP requests for triggering re-ingestion.
// At most one run is active at a time.
type IndexHandler struct {
	ingester Ingester
	mu       sync.Mutex
	running  bool
	// done is signalled after each background run; used by tests.
	done func(*indexer.Stats, error)
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(ingester Ingester) *IndexHandler {
	return &IndexHandler{ingester: ingester}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP handles POST /api/v1/index. The run continues after the response;
// new scenes are served once the process reloads the lexical corpus.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeError(ctx, w, http.StatusConflict, "Ingestion already running")
		return
	}
	h.running = true
	h.mu.Unlock()

	logger.InfoContext(ctx, "re-ingestion triggered via API")

	runCtx := contextutil.WithLogger(context.Background(), logger)
	go func() {
		stats, err := h.ingester.Run(runCtx)
		if err != nil {
			logger.ErrorContext(runCtx, "re-ingestion failed", "error", err)
		} else {
			logger.InfoContext(runCtx, "re-ingestion completed", "embedded", stats.ScenesEmbedded, "skipped", stats.ScenesSkipped)
		}

		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		if h.done != nil {
			h.done(stats, err)
		}
	}()

	_ = writeJSON(w, http.StatusAccepted, IndexResponse{
		Message: "Ingestion started. Check server logs for progress.",
		Status:  "accepted",
	})
}
