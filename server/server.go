// Package server exposes the derived listing views over HTTP: search results,
// single listings and the comparison table as JSON, HTML and PDF.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"vehicle-marketplace/services"
	"vehicle-marketplace/utils"
)

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	Render(ctx context.Context, doc []byte) ([]byte, error)
}

// Server is the read-only view server.
type Server struct {
	httpServer *http.Server
	handlers   *Handlers
	logger     *utils.Logger
}

// NewServer creates a server listening on port.
func NewServer(port string, corsOrigins []string, catalogue *services.Catalogue, pdf PDFRenderer, logger *utils.Logger) *Server {
	h := NewHandlers(catalogue, pdf, logger)
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           NewRouter(h, corsOrigins, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		handlers: h,
		logger:   logger,
	}
}

// NewRouter wires the routes and middleware.
func NewRouter(h *Handlers, corsOrigins []string, logger *utils.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/search", h.Search)
	r.Get("/listings/{id}", h.GetListing)
	r.Get("/compare", h.Compare)
	r.Get("/compare.html", h.CompareHTML)
	r.Get("/compare.pdf", h.ComparePDF)

	return r
}

// Start runs the server until it is stopped.
func (s *Server) Start() error {
	s.logger.Info("starting view server", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("could not start server", "error", err)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping view server")
	return s.httpServer.Shutdown(ctx)
}
