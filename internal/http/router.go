// Package http wires the API routes and middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docassist/internal/handlers"
	"docassist/internal/rag"
	"docassist/internal/vectorindex"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine    rag.Engine
	Builder   handlers.Rebuilder
	Indexes   *vectorindex.Manager
	CorpusDir string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.Engine)
	rebuildHandler := handlers.NewRebuildHandler(deps.Builder, deps.CorpusDir)
	indexInfoHandler := handlers.NewIndexInfoHandler(deps.Indexes)
	healthHandler := handlers.NewHealthHandler()

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/query", queryHandler)
		r.Method(http.MethodPost, "/rebuild", rebuildHandler)
		r.Method(http.MethodGet, "/index", indexInfoHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
