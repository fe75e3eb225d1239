package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergentlab/trgi/internal/lattice"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRGI_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.Lattice.Rows)
	assert.Equal(t, 20, cfg.Lattice.Cols)
	assert.Equal(t, lattice.ModeQubit, cfg.Lattice.Mode)
	assert.Equal(t, lattice.BoundaryPeriodic, cfg.Lattice.Boundary)
	assert.Equal(t, int64(42), cfg.Lattice.Seed)
	assert.Equal(t, 1.0, cfg.Physics.J)
	assert.Equal(t, 0.5, cfg.Physics.H)
	assert.Equal(t, 0.1, cfg.Physics.Dt)
	assert.True(t, cfg.Physics.GeometricCoupling)
	assert.Equal(t, 100, cfg.Run.Steps)
	assert.Equal(t, 5, cfg.Run.MaxCorrDist)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRGI_DATA_DIR", dir)
	t.Setenv("TRGI_ROWS", "8")
	t.Setenv("TRGI_COLS", "12")
	t.Setenv("TRGI_MODE", "scalar")
	t.Setenv("TRGI_BOUNDARY", "fixed")
	t.Setenv("TRGI_J", "2.5")
	t.Setenv("TRGI_GEOMETRIC_COUPLING", "false")
	t.Setenv("TRGI_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(dir), cfg.DataDir)
	assert.Equal(t, 8, cfg.Lattice.Rows)
	assert.Equal(t, 12, cfg.Lattice.Cols)
	assert.Equal(t, lattice.ModeScalar, cfg.Lattice.Mode)
	assert.Equal(t, lattice.BoundaryFixed, cfg.Lattice.Boundary)
	assert.Equal(t, 2.5, cfg.Physics.J)
	assert.False(t, cfg.Physics.GeometricCoupling)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_InvalidModeFails(t *testing.T) {
	t.Setenv("TRGI_DATA_DIR", t.TempDir())
	t.Setenv("TRGI_MODE", "spinor")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Lattice: LatticeConfig{Rows: 5, Cols: 5, Mode: lattice.ModeQubit, Boundary: lattice.BoundaryPeriodic},
		Physics: PhysicsConfig{Dt: 0.1},
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero rows", func(c *Config) { c.Lattice.Rows = 0 }},
		{"negative cols", func(c *Config) { c.Lattice.Cols = -1 }},
		{"bad mode", func(c *Config) { c.Lattice.Mode = "spinor" }},
		{"bad boundary", func(c *Config) { c.Lattice.Boundary = "reflecting" }},
		{"zero dt", func(c *Config) { c.Physics.Dt = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
