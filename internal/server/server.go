// Package server provides the HTTP API through which external drivers
// (visualizers, batch tooling) consume the simulation core.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/config"
	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/sim"
)

// Config holds server configuration.
type Config struct {
	Log     zerolog.Logger
	Cfg     *config.Config
	Runner  *sim.Runner
	Repo    *history.Repository
	Port    int
	DevMode bool
}

// Server is the HTTP front of one running simulation.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
	runner *sim.Runner
	repo   *history.Repository
	cron   *cron.Cron
}

// New creates the HTTP server and, when a snapshot cadence is configured,
// the periodic checkpoint job.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Cfg,
		runner: cfg.Runner,
		repo:   cfg.Repo,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.Cfg.Run.SnapshotEvery > 0 {
		s.cron = cron.New()
		spec := fmt.Sprintf("@every %ds", cfg.Cfg.Run.SnapshotEvery)
		if _, err := s.cron.AddFunc(spec, s.checkpointJob); err != nil {
			s.log.Error().Err(err).Str("spec", spec).Msg("Failed to schedule checkpoint job")
		}
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	simHandlers := NewSimHandlers(s.runner, s.repo, s.log)
	systemHandlers := NewSystemHandlers(s.runner, s.log)
	streamHandler := NewMetricsStreamHandler(s.runner, s.log)

	s.router.Route("/api", func(r chi.Router) {
		simHandlers.RegisterRoutes(r)
		systemHandlers.RegisterRoutes(r)
		r.Get("/metrics/ws", streamHandler.ServeHTTP)
	})
}

// checkpointJob persists a lattice snapshot, driven by the cron schedule.
func (s *Server) checkpointJob() {
	if err := s.runner.Checkpoint(); err != nil {
		s.log.Error().Err(err).Msg("Snapshot checkpoint failed")
	}
}

// Start begins serving and starts the checkpoint scheduler.
func (s *Server) Start() error {
	if s.cron != nil {
		s.cron.Start()
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return s.server.Shutdown(ctx)
}
