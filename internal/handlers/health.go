package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"webtoon-rag/internal/contextutil"
)

// CollectionChecker reports whether the scene collection exists.
type CollectionChecker interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// DocumentCounter reports the size of the lexical index.
type DocumentCounter interface {
	Len() int
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        CollectionChecker
	lexical            DocumentCounter
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. lexical may be nil.
func NewHealthHandler(vectorStore CollectionChecker, lexical DocumentCounter, collectionName string) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		lexical:            lexical,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	// LexicalDocuments is the number of scenes in the keyword index
	LexicalDocuments int      `json:"lexical_documents"`
	Issues           []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// The vector store is required; an empty lexical index only degrades the status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	if h.checkVectorStore(checkCtx, logger) {
		checks["vector_store"] = "ok"
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	docs := 0
	if h.lexical != nil {
		docs = h.lexical.Len()
	}
	if docs > 0 {
		checks["lexical_index"] = "ok"
	} else {
		checks["lexical_index"] = "empty"
		issues = append(issues, "lexical_index_empty")
		if status == "healthy" {
			status = "degraded"
		}
	}

	response := HealthResponse{
		Status:           status,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Checks:           checks,
		LexicalDocuments: docs,
		Issues:           issues,
	}
	if err := writeJSON(w, httpStatus, response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}

func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collectionName)
		return false
	}
	return true
}
