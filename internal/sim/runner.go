// Package sim wires the lattice, dynamics, geometry, energy tensor and
// observables into a single driver that advances the simulation, samples the
// global metrics and records the run history.
package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/emergentlab/trgi/internal/config"
	"github.com/emergentlab/trgi/internal/dynamics"
	"github.com/emergentlab/trgi/internal/energy"
	"github.com/emergentlab/trgi/internal/geometry"
	"github.com/emergentlab/trgi/internal/history"
	"github.com/emergentlab/trgi/internal/lattice"
	"github.com/emergentlab/trgi/internal/observables"
)

// Metrics is one sampled view of the global state.
type Metrics struct {
	Step         int     `json:"step"`
	Entropy      float64 `json:"entropy"`
	AvgCurvature float64 `json:"avg_curvature"`
	AvgEnergy    float64 `json:"avg_energy"`
}

// Runner owns one simulation. All access goes through its mutex: Step is the
// sole writer of lattice state and every field recompute or read is
// serialized against it, which is the concurrency discipline the core
// assumes.
//
// Field recompute discipline: curvature and energy fields are recomputed
// explicitly at every sampling point, never implicitly inside Step.
type Runner struct {
	mu sync.Mutex

	cfg    *config.Config
	lat    *lattice.Lattice
	geo    *geometry.EmergentGeometry
	dyn    dynamics.Dynamics
	tensor *energy.Tensor // nil in scalar mode

	rec  *history.Recorder
	repo *history.Repository // optional persistence, may be nil

	step    int
	latest  Metrics
	baseLog zerolog.Logger // un-tagged logger handed to rebuilt components
	log     zerolog.Logger
}

// buildComponents constructs the lattice and its derived components for the
// configured mode. The lattice RNG is freshly seeded from the configuration,
// so two builds from the same config produce identical initial states.
func buildComponents(cfg *config.Config, log zerolog.Logger) (*lattice.Lattice, *geometry.EmergentGeometry, dynamics.Dynamics, *energy.Tensor, error) {
	rng := rand.New(rand.NewSource(cfg.Lattice.Seed))

	lat, err := lattice.New(cfg.Lattice.Rows, cfg.Lattice.Cols, cfg.Lattice.Mode, cfg.Lattice.Boundary, rng, log)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to build lattice: %w", err)
	}

	geo := geometry.New(lat, log)

	var dyn dynamics.Dynamics
	var tensor *energy.Tensor
	switch cfg.Lattice.Mode {
	case lattice.ModeScalar:
		if err := lat.InitializeScalar(lattice.InitRandom, lattice.InitOptions{}); err != nil {
			return nil, nil, nil, nil, err
		}
		dyn, err = dynamics.NewClassicalAutomaton(lat, nil, nil, log)
		if err != nil {
			return nil, nil, nil, nil, err
		}

	case lattice.ModeQubit:
		dyn, err = dynamics.NewHamiltonianEvolution(lat, geo, dynamics.Params{
			J:                 cfg.Physics.J,
			H:                 cfg.Physics.H,
			Dt:                cfg.Physics.Dt,
			GeometricCoupling: cfg.Physics.GeometricCoupling,
		}, log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		tensor, err = energy.New(lat, dyn, log)
		if err != nil {
			return nil, nil, nil, nil, err
		}
	}

	return lat, geo, dyn, tensor, nil
}

// NewRunner constructs the full component graph for the configured mode.
// repo may be nil for ephemeral runs.
func NewRunner(cfg *config.Config, repo *history.Repository, log zerolog.Logger) (*Runner, error) {
	lat, geo, dyn, tensor, err := buildComponents(cfg, log)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:     cfg,
		lat:     lat,
		geo:     geo,
		dyn:     dyn,
		tensor:  tensor,
		rec:     history.NewRecorder(),
		repo:    repo,
		baseLog: log,
		log:     log.With().Str("component", "runner").Logger(),
	}

	if err := r.registerRunLocked(); err != nil {
		return nil, err
	}

	// Record the initial state as step 0 so the series starts at the
	// untouched lattice.
	if err := r.sampleLocked(); err != nil {
		return nil, err
	}

	return r, nil
}

// registerRunLocked persists the run metadata when a repository is configured.
// Caller holds the mutex (or owns the runner exclusively during construction).
func (r *Runner) registerRunLocked() error {
	if r.repo == nil {
		return nil
	}
	return r.repo.SaveRun(history.RunMeta{
		RunID:             r.rec.RunID(),
		Mode:              string(r.cfg.Lattice.Mode),
		Rows:              r.cfg.Lattice.Rows,
		Cols:              r.cfg.Lattice.Cols,
		J:                 r.cfg.Physics.J,
		H:                 r.cfg.Physics.H,
		Dt:                r.cfg.Physics.Dt,
		GeometricCoupling: r.cfg.Physics.GeometricCoupling,
	})
}

// Reset discards the lattice and run history and rebuilds the simulation
// from the configuration under a fresh run ID. The configured seed is reused,
// so a reset reproduces the original initial state.
func (r *Runner) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lat, geo, dyn, tensor, err := buildComponents(r.cfg, r.baseLog)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	r.lat, r.geo, r.dyn, r.tensor = lat, geo, dyn, tensor
	r.step = 0
	r.rec.Reset()

	if err := r.registerRunLocked(); err != nil {
		return err
	}
	r.log.Info().Str("run_id", r.rec.RunID()).Msg("Simulation reset")
	return r.sampleLocked()
}

// RunID returns the current run identifier.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.RunID()
}

// Lattice exposes the underlying grid for read-only inspection between
// steps. Callers must not mutate it.
func (r *Runner) Lattice() *lattice.Lattice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lat
}

// Mode returns the lattice infon mode.
func (r *Runner) Mode() lattice.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lat.Mode()
}

// SpatialCorrelation computes the distance-bucketed X-correlation of the
// current state, serialized against stepping.
func (r *Runner) SpatialCorrelation(maxDistance int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return observables.SpatialCorrelation(r.lat, maxDistance)
}

// Step advances one generation/time step, recomputes the derived fields and
// appends the sampled metrics to the run history.
func (r *Runner) Step() (Metrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.dyn.Step(); err != nil {
		return Metrics{}, fmt.Errorf("step %d failed: %w", r.step+1, err)
	}
	r.step++

	if err := r.sampleLocked(); err != nil {
		return Metrics{}, err
	}
	return r.latest, nil
}

// sampleLocked recomputes derived fields and records a history point.
// Caller holds the mutex.
func (r *Runner) sampleLocked() error {
	curv, err := r.geo.ComputeCurvatureField()
	if err != nil {
		return fmt.Errorf("curvature recompute failed: %w", err)
	}

	m := Metrics{Step: r.step, AvgCurvature: fieldMean(curv)}

	if r.lat.Mode() == lattice.ModeQubit {
		ent, err := observables.ShannonEntropy(r.lat)
		if err != nil {
			return err
		}
		m.Entropy = ent

		field, err := r.tensor.ComputeField()
		if err != nil {
			return fmt.Errorf("energy recompute failed: %w", err)
		}
		m.AvgEnergy = fieldMean(field)
	}

	r.latest = m
	r.rec.Append(m.Step, m.Entropy, m.AvgCurvature, m.AvgEnergy)
	if r.repo != nil {
		if err := r.repo.SavePoint(r.rec.RunID(), history.Point{
			Step:         m.Step,
			Entropy:      m.Entropy,
			AvgCurvature: m.AvgCurvature,
			AvgEnergy:    m.AvgEnergy,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Latest returns the most recently sampled metrics.
func (r *Runner) Latest() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// StepCount returns the number of completed steps.
func (r *Runner) StepCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// History returns a copy of the recorded series.
func (r *Runner) History() []history.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec.Points()
}

// Recorder exposes the run recorder for export.
func (r *Runner) Recorder() *history.Recorder {
	return r.rec
}

// Perturb applies a single-qubit Pauli flip at a position, an external
// intervention between steps (the one sanctioned use of the in-place
// unitary).
func (r *Runner) Perturb(pos lattice.Position, axis string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.lat.Qubit(pos)
	if err != nil {
		return err
	}
	u, err := pauliFlip(axis)
	if err != nil {
		return err
	}
	q.ApplyUnitary(u)
	r.log.Info().Int("row", pos.Row).Int("col", pos.Col).Str("axis", axis).Msg("Perturbation applied")
	return nil
}

// Measure collapses the qubit at a position and returns the observed bit.
func (r *Runner) Measure(pos lattice.Position) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.lat.Qubit(pos)
	if err != nil {
		return 0, err
	}
	return q.Measure(r.lat.Rand()), nil
}

// CurvatureField recomputes and returns the curvature field.
func (r *Runner) CurvatureField() ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geo.ComputeCurvatureField()
}

// MetricField recomputes and returns the local metric field.
func (r *Runner) MetricField() ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geo.ComputeMetricField()
}

// EnergyField recomputes and returns the local energy field. Scalar-mode
// runners have no energy tensor.
func (r *Runner) EnergyField() ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tensor == nil {
		return nil, energy.ErrWrongDynamics
	}
	return r.tensor.ComputeField()
}

// StateField returns the displayable scalar surface of the lattice: the raw
// grid in scalar mode, the |0⟩-probability surface in qubit mode.
func (r *Runner) StateField() ([][]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lat.Mode() == lattice.ModeScalar {
		return r.lat.ScalarField()
	}
	return r.lat.P0Field()
}

// Snapshot serializes the current lattice state.
func (r *Runner) Snapshot() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, err := history.CaptureSnapshot(r.lat)
	if err != nil {
		return nil, err
	}
	return snap.Marshal()
}

// Checkpoint persists a snapshot of the current state under the current
// step, when a repository is configured.
func (r *Runner) Checkpoint() error {
	if r.repo == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := history.CaptureSnapshot(r.lat)
	if err != nil {
		return err
	}
	payload, err := snap.Marshal()
	if err != nil {
		return err
	}
	if err := r.repo.SaveSnapshot(r.rec.RunID(), r.step, payload); err != nil {
		return err
	}
	r.log.Debug().Int("step", r.step).Int("bytes", len(payload)).Msg("Snapshot checkpoint saved")
	return nil
}

func fieldMean(field [][]float64) float64 {
	flat := make([]float64, 0, len(field)*len(field[0]))
	for _, row := range field {
		flat = append(flat, row...)
	}
	return stat.Mean(flat, nil)
}

func pauliFlip(axis string) ([2][2]complex128, error) {
	switch axis {
	case "x":
		return [2][2]complex128{{0, 1}, {1, 0}}, nil
	case "z":
		return [2][2]complex128{{1, 0}, {0, -1}}, nil
	default:
		return [2][2]complex128{}, fmt.Errorf("unknown perturbation axis %q", axis)
	}
}
