// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/emergentlab/trgi/internal/lattice"
)

// Config holds the full simulator configuration. All values are immutable
// for the lifetime of the simulation they configure.
type Config struct {
	DataDir  string // base directory for the results database and exports
	LogLevel string
	Port     int
	DevMode  bool

	Lattice LatticeConfig
	Physics PhysicsConfig
	Run     RunConfig
}

// LatticeConfig describes the grid to construct.
type LatticeConfig struct {
	Rows     int
	Cols     int
	Mode     lattice.Mode
	Boundary lattice.Boundary
	Seed     int64
}

// PhysicsConfig holds the quantum-evolution parameters. Ignored in scalar mode.
type PhysicsConfig struct {
	J                 float64
	H                 float64
	Dt                float64
	GeometricCoupling bool
}

// RunConfig drives the outer simulation loop.
type RunConfig struct {
	Steps         int // steps per run (sweep and batch mode)
	SnapshotEvery int // checkpoint cadence in steps for the cron job, 0 disables
	MaxCorrDist   int // spatial correlation cutoff distance
}

// Load reads configuration from environment variables. A .env file is
// honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("TRGI_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("TRGI_PORT", 8010),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Lattice: LatticeConfig{
			Rows:     getEnvAsInt("TRGI_ROWS", 20),
			Cols:     getEnvAsInt("TRGI_COLS", 20),
			Mode:     lattice.Mode(getEnv("TRGI_MODE", string(lattice.ModeQubit))),
			Boundary: lattice.Boundary(getEnv("TRGI_BOUNDARY", string(lattice.BoundaryPeriodic))),
			Seed:     int64(getEnvAsInt("TRGI_SEED", 42)),
		},
		Physics: PhysicsConfig{
			J:                 getEnvAsFloat("TRGI_J", 1.0),
			H:                 getEnvAsFloat("TRGI_H", 0.5),
			Dt:                getEnvAsFloat("TRGI_DT", 0.1),
			GeometricCoupling: getEnvAsBool("TRGI_GEOMETRIC_COUPLING", true),
		},
		Run: RunConfig{
			Steps:         getEnvAsInt("TRGI_STEPS", 100),
			SnapshotEvery: getEnvAsInt("TRGI_SNAPSHOT_EVERY", 0),
			MaxCorrDist:   getEnvAsInt("TRGI_MAX_CORR_DIST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration names a constructible simulation.
func (c *Config) Validate() error {
	if c.Lattice.Rows <= 0 || c.Lattice.Cols <= 0 {
		return fmt.Errorf("lattice dimensions must be positive, got %dx%d", c.Lattice.Rows, c.Lattice.Cols)
	}
	if c.Lattice.Mode != lattice.ModeScalar && c.Lattice.Mode != lattice.ModeQubit {
		return fmt.Errorf("unknown infon mode %q", c.Lattice.Mode)
	}
	if c.Lattice.Boundary != lattice.BoundaryPeriodic && c.Lattice.Boundary != lattice.BoundaryFixed {
		return fmt.Errorf("unknown boundary condition %q", c.Lattice.Boundary)
	}
	if c.Physics.Dt <= 0 {
		return fmt.Errorf("time step must be positive, got %g", c.Physics.Dt)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
