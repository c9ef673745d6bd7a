// Package api provides the HTTP surface of the sponsor register service:
// the PostgREST-style RPC routes the browser extension calls, the sync
// trigger, and health.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sponsorcheck/sponsorcheck-server/internal/http/response"
	"github.com/sponsorcheck/sponsorcheck-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	searchService    *service.SponsorSearchService
	syncService      *service.RegisterSyncService
	telemetryService *service.TelemetryService
	router           *chi.Mux
	api              huma.API
	logger           *slog.Logger
	syncToken        string
	corsOrigins      []string
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(searchService *service.SponsorSearchService, syncService *service.RegisterSyncService, telemetryService *service.TelemetryService, syncToken string, corsOrigins []string, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	RegisterErrorHandler()

	s := &Server{
		searchService:    searchService,
		syncService:      syncService,
		telemetryService: telemetryService,
		router:           router,
		logger:           logger,
		syncToken:        syncToken,
		corsOrigins:      corsOrigins,
	}

	// chi requires all middleware to be registered before any routes, and
	// humachi.New registers huma's spec/docs routes on the router.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("SponsorCheck API", "1.0.0")
	s.api = humachi.New(router, humaConfig)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The extension calls from a foreign origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Sync-Token", "X-Function-Token"},
		MaxAge:         300,
	}))

	// Transport-level protection on everything; 120 requests/min per IP.
	limiter := NewRateLimiter(120, time.Minute, 30)
	s.router.Use(RateLimitMiddleware(limiter, s.logger))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// Sync trigger, plain text contract.
	s.router.Post("/sync", s.handleSync)
	s.router.Get("/sync", s.handleSync)

	// PostgREST-style RPC routes.
	s.registerSearchRoutes()
	s.registerUpsertRoutes()
	s.registerTelemetryRoutes()
}

// handleHealthCheck returns server health status with register state.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	health := map[string]any{
		"status": "healthy",
	}

	if run, err := s.syncService.LastRun(); err == nil && run != nil {
		health["last_sync_at"] = run.CompletedAt
		health["last_sync_rows"] = run.RowsProcessed
	}

	response.Success(w, health, s.logger)
}
