package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apihttp "webtoon-rag/internal/http"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler over the app's components.
func (a *App) Router() http.Handler {
	deps := &apihttp.Deps{
		Engine:         a.Engine,
		VectorStore:    a.VectorStore,
		Lexical:        a.Lexical,
		CollectionName: a.Config.QdrantCollection,
		Ingester:       a.Pipeline,
		Logger:         a.Logger,
	}
	if a.Traces != nil {
		deps.Traces = a.Traces
	}
	return apihttp.NewRouter(deps)
}

// Serve listens on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.APIPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	return nil
}
