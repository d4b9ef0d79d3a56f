// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/newthinker/cryptodesk/internal/api/handler/api"
	"github.com/newthinker/cryptodesk/internal/metrics"
)

// Server represents the HTTP server for cryptodesk
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// Dependencies holds the services behind the API handlers.
type Dependencies struct {
	Assistant apihandler.Asker
	Resolver  apihandler.Resolver
	Market    apihandler.Market
	Converter apihandler.Converter
	Metrics   *metrics.Registry // optional
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Assistant == nil || deps.Resolver == nil || deps.Market == nil || deps.Converter == nil {
		return nil, fmt.Errorf("creating server: missing dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	askHandler := apihandler.NewAskHandler(deps.Assistant)
	marketHandler := apihandler.NewMarketHandler(deps.Resolver, deps.Market, deps.Converter)

	s.mux.HandleFunc("POST /api/v1/ask", askHandler.Ask)
	s.mux.HandleFunc("GET /api/v1/resolve", marketHandler.Resolve)
	s.mux.HandleFunc("GET /api/v1/price/{ticker}", marketHandler.Price)
	s.mux.HandleFunc("GET /api/v1/stats/{ticker}", marketHandler.Stats)
	s.mux.HandleFunc("GET /api/v1/news/{ticker}", marketHandler.News)
	s.mux.HandleFunc("GET /api/v1/convert", marketHandler.Convert)
	s.mux.HandleFunc("GET /api/v1/assets", marketHandler.Assets)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle("GET "+path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
