package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"webtoon-rag/internal/handlers"
	"webtoon-rag/internal/rag"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine         rag.Engine
	VectorStore    handlers.CollectionChecker
	Lexical        handlers.DocumentCounter
	CollectionName string
	// Ingester enables POST /api/v1/index when set.
	Ingester handlers.Ingester
	// Traces enables GET /api/v1/traces when set.
	Traces handlers.TraceLister
	Logger *slog.Logger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(logger))
	r.Use(RequestLogger)
	r.Use(CORS)

	askHandler := handlers.NewAskHandler(deps.Engine)
	healthHandler := handlers.NewHealthHandler(deps.VectorStore, deps.Lexical, deps.CollectionName)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Route("/v1", func(r chi.Router) {
			r.Method(http.MethodPost, "/ask", askHandler)
			if deps.Ingester != nil {
				r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.Ingester))
			}
			if deps.Traces != nil {
				r.Method(http.MethodGet, "/traces", handlers.NewTraceHandler(deps.Traces))
			}
		})
	})

	return r
}
