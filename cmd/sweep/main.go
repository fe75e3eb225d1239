// Package main runs automated TRGI simulations over a grid of coupling and
// field parameters, persisting one history per combination.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/config"
	"github.com/emergentlab/trgi/internal/database"
	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/sim"
	"github.com/emergentlab/trgi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	jList := parseFloats(os.Getenv("TRGI_SWEEP_J"), []float64{1.0})
	hList := parseFloats(os.Getenv("TRGI_SWEEP_H"), []float64{0.2, 0.5, 0.8})
	workers := parseInt(os.Getenv("TRGI_SWEEP_WORKERS"), 2)

	log.Info().
		Floats64("J", jList).
		Floats64("h", hList).
		Int("steps", cfg.Run.Steps).
		Int("workers", workers).
		Msg("Starting parameter sweep")

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := make([]sim.SweepJob, 0, len(jList)*len(hList))
	for _, j := range jList {
		for _, h := range hList {
			jobs = append(jobs, sim.SweepJob{J: j, H: h})
		}
	}

	failed := 0
	for _, res := range sim.RunSweep(ctx, cfg, repo, jobs, workers, log) {
		if res.Err != nil {
			failed++
			log.Error().Err(res.Err).Float64("J", res.Job.J).Float64("h", res.Job.H).Msg("Sweep cell failed")
			continue
		}
		if err := exportResult(cfg.DataDir, res, log); err != nil {
			failed++
			log.Error().Err(err).Str("run_id", res.RunID).Msg("Failed to export sweep results")
		}
	}

	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(jobs)).Msg("Parameter sweep finished with failures")
		os.Exit(1)
	}
	log.Info().Int("total", len(jobs)).Msg("Parameter sweep finished")
}

// exportResult writes one sweep cell's history as a JSON file in the data
// directory, named after the parameters and run ID.
func exportResult(dataDir string, res sim.SweepResult, log zerolog.Logger) error {
	exportPath := filepath.Join(dataDir, fmt.Sprintf("sweep_J%g_h%g_%s.json", res.Job.J, res.Job.H, res.RunID))
	f, err := os.Create(exportPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := res.Recorder.ExportJSON(f); err != nil {
		return err
	}
	log.Info().Str("path", exportPath).Msg("Sweep results saved")
	return nil
}

// parseFloats reads a comma-separated float list, falling back on the
// default when unset or malformed.
func parseFloats(s string, fallback []float64) []float64 {
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fallback
		}
		out = append(out, f)
	}
	return out
}

func parseInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
