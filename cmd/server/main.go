// Package main is the entry point for the TRGI lattice simulation server.
// It wires the simulation core (lattice, dynamics, geometry, energy tensor,
// observables) behind an HTTP API consumed by external drivers such as
// visualizers, notebooks and batch tooling.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/emergentlab/trgi/internal/config"
	"github.com/emergentlab/trgi/internal/database"
	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/server"
	"github.com/emergentlab/trgi/internal/sim"
	"github.com/emergentlab/trgi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("rows", cfg.Lattice.Rows).
		Int("cols", cfg.Lattice.Cols).
		Str("mode", string(cfg.Lattice.Mode)).
		Str("boundary", string(cfg.Lattice.Boundary)).
		Msg("Starting TRGI simulation server")

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "results.db"),
		Name: "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results database")
	}
	defer db.Close()

	repo, err := history.NewRepository(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history repository")
	}

	runner, err := sim.NewRunner(cfg, repo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build simulation")
	}

	srv := server.New(server.Config{
		Log:     log,
		Cfg:     cfg,
		Runner:  runner,
		Repo:    repo,
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
