package routes

import (
	"net/http"

	"github.com/estimaihq/takeoff-backend/internal/api/handlers"
	"github.com/estimaihq/takeoff-backend/internal/api/middleware"
	"github.com/estimaihq/takeoff-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	takeoffHandler   *handlers.TakeoffHandler
	retrievalHandler *handlers.RetrievalHandler
	standardHandler  *handlers.StandardHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	takeoffHandler *handlers.TakeoffHandler,
	retrievalHandler *handlers.RetrievalHandler,
	standardHandler *handlers.StandardHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		takeoffHandler:   takeoffHandler,
		retrievalHandler: retrievalHandler,
		standardHandler:  standardHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Takeoff endpoints
	r.mux.HandleFunc("POST /api/takeoff/reconcile", r.takeoffHandler.Reconcile)

	// Retrieval diagnostics endpoints
	r.mux.HandleFunc("GET /api/retrieval/query", r.retrievalHandler.Query)

	// Standards endpoints
	if r.standardHandler != nil {
		r.mux.HandleFunc("GET /api/standards/search", r.standardHandler.SearchStandards)
		r.mux.HandleFunc("GET /api/standards/{id}", r.standardHandler.GetStandard)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight requests short-circuit early
	handler = middleware.CORSMiddleware(handler)

	return handler
}
