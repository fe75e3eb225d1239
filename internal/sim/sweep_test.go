package sim

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSweep_RunsEveryCombination(t *testing.T) {
	cfg := qubitConfig()
	cfg.Lattice.Rows = 4
	cfg.Lattice.Cols = 4
	cfg.Run.Steps = 3

	jobs := []SweepJob{
		{J: 1.0, H: 0.2},
		{J: 1.0, H: 0.5},
		{J: 2.0, H: 0.2},
		{J: 2.0, H: 0.5},
	}

	results := RunSweep(context.Background(), cfg, nil, jobs, 2, zerolog.Nop())
	require.Len(t, results, 4)

	seen := make(map[string]bool)
	for i, res := range results {
		require.NoError(t, res.Err, "job %d", i)
		assert.Equal(t, jobs[i], res.Job)
		assert.NotEmpty(t, res.RunID)
		assert.False(t, seen[res.RunID], "run IDs must be distinct")
		seen[res.RunID] = true
		// Step 0 plus the configured steps.
		assert.Equal(t, cfg.Run.Steps+1, res.Recorder.Len())
	}
}

func TestRunSweep_CancelledContextMarksCells(t *testing.T) {
	cfg := qubitConfig()
	cfg.Lattice.Rows = 4
	cfg.Lattice.Cols = 4
	cfg.Run.Steps = 2

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []SweepJob{{J: 1.0, H: 0.2}, {J: 1.0, H: 0.5}}
	results := RunSweep(ctx, cfg, nil, jobs, 1, zerolog.Nop())

	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestRunSweep_BaseConfigUntouched(t *testing.T) {
	cfg := qubitConfig()
	cfg.Lattice.Rows = 4
	cfg.Lattice.Cols = 4
	cfg.Run.Steps = 1

	RunSweep(context.Background(), cfg, nil, []SweepJob{{J: 9.0, H: 9.0}}, 1, zerolog.Nop())
	assert.Equal(t, 1.0, cfg.Physics.J)
	assert.Equal(t, 0.5, cfg.Physics.H)
}
