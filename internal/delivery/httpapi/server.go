package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vaultkeep/audit-service/internal/infrastructure/config"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	cfg    *config.ServerConfig
}

// NewServer builds the router around the handler and wraps it with CORS and
// tracing instrumentation.
func NewServer(cfg *config.ServerConfig, corsCfg *config.CORSConfig, handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(metricsMiddleware)

	r.Route("/api/v1/logs", func(r chi.Router) {
		r.Get("/{category}", handler.GetPage)
		r.Post("/purge", handler.PostPurge)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", sessionHeader},
		MaxAge:           corsCfg.MaxAge,
		AllowCredentials: true,
	})

	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      otelhttp.NewHandler(corsHandler.Handler(r), "audit-service"),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	log.Info().Int("port", s.cfg.HTTPPort).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
