package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/health-package-engine/internal/assessment"
	"github.com/terra-clan/health-package-engine/internal/config"
	"github.com/terra-clan/health-package-engine/internal/health"
	"github.com/terra-clan/health-package-engine/internal/models"
)

// Headers browsers may send on cross-origin calls to the engine
var allowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// CatalogLister exposes the loaded test catalog
type CatalogLister interface {
	List() []models.LabTest
	Version() string
}

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	service  *assessment.Service
	catalog  CatalogLister
	registry *health.Registry
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	service *assessment.Service,
	catalog CatalogLister,
	registry *health.Registry,
) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if registry == nil {
		registry = health.NewRegistry(0)
	}

	s := &Server{
		config:   cfg,
		service:  service,
		catalog:  catalog,
		registry: registry,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Preflights fall through to the explicit OPTIONS handlers so they
	// answer with an empty 200.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:     allowedHeaders,
		ExposedHeaders:     []string{"X-Request-ID"},
		AllowCredentials:   false,
		OptionsPassthrough: true,
		MaxAge:             300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ForwardCaller)

		// Long-lived connection, kept outside the request timeout
		r.Get("/health-packages/live", s.handleLive)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.config.RequestTimeout))

			r.Post("/health-packages", s.handleEvaluate)
			r.Options("/health-packages", s.handlePreflight)

			r.Get("/assessments/{id}", s.handleGetAssessment)
			r.Options("/assessments/{id}", s.handlePreflight)

			r.Get("/catalog", s.handleListCatalog)
			r.Options("/catalog", s.handlePreflight)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
