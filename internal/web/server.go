// Package web exposes item registration and image search over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/finder/internal/catalog"
	"github.com/kozaktomas/finder/internal/config"
	"github.com/kozaktomas/finder/internal/constants"
	"github.com/kozaktomas/finder/internal/fingerprint"
	"github.com/kozaktomas/finder/internal/ingest"
	"github.com/kozaktomas/finder/internal/search"
	"github.com/kozaktomas/finder/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config       *config.Config
	router       *chi.Mux
	httpServer   *http.Server
	catalog      catalog.Writer
	registrar    *ingest.Registrar
	orchestrator *search.Orchestrator
}

// NewServer creates a new web server backed by the given catalog.
func NewServer(cfg *config.Config, writer catalog.Writer, extractor *fingerprint.Extractor) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:    cfg,
		router:    r,
		catalog:   writer,
		registrar: ingest.NewRegistrar(writer, extractor, ingest.Options{
			MaxDescriptionLength: cfg.Ingest.MaxDescriptionLength,
			MaxLocationAge:       cfg.Ingest.MaxLocationAge,
		}),
		orchestrator: search.NewOrchestrator(writer, extractor, cfg.Matching.Workers),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(constants.RequestTimeout))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: constants.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
