// Package lattice provides the discrete 2-D grid of informational units and
// the single-qubit state representation stored in its cells.
package lattice

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// Mode selects the cell payload carried by a lattice. Fixed at construction.
type Mode string

const (
	// ModeScalar stores one float64 in [0,1] per cell (classical automaton mode).
	ModeScalar Mode = "scalar"
	// ModeQubit stores one QuantumState per cell.
	ModeQubit Mode = "qubit"
)

// Boundary selects how out-of-range positions are treated. Fixed at construction.
type Boundary string

const (
	// BoundaryPeriodic wraps indices modulo the grid dimensions.
	BoundaryPeriodic Boundary = "periodic"
	// BoundaryFixed rejects out-of-range access; neighbor enumeration simply
	// excludes positions outside the grid.
	BoundaryFixed Boundary = "fixed"
)

// Position addresses one cell as (row, col).
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Lattice owns a rows×cols grid of infons. It is the sole owner of cell
// state; geometry, dynamics and observables hold non-owning references.
// Dimensions, mode and boundary are immutable after construction.
type Lattice struct {
	rows     int
	cols     int
	mode     Mode
	boundary Boundary

	scalars []float64       // len rows*cols when mode == ModeScalar
	qubits  []*QuantumState // len rows*cols when mode == ModeQubit

	rng *rand.Rand
	log zerolog.Logger
}

// New allocates a lattice. Scalar mode zero-fills; qubit mode fills every
// cell with an independently sampled random state drawn from rng.
func New(rows, cols int, mode Mode, boundary Boundary, rng *rand.Rand, log zerolog.Logger) (*Lattice, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if boundary != BoundaryPeriodic && boundary != BoundaryFixed {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBoundary, boundary)
	}

	l := &Lattice{
		rows:     rows,
		cols:     cols,
		mode:     mode,
		boundary: boundary,
		rng:      rng,
		log:      log.With().Str("component", "lattice").Logger(),
	}

	switch mode {
	case ModeScalar:
		l.scalars = make([]float64, rows*cols)
	case ModeQubit:
		l.qubits = make([]*QuantumState, rows*cols)
		for i := range l.qubits {
			l.qubits[i] = NewRandomState(rng)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	l.log.Info().
		Int("rows", rows).
		Int("cols", cols).
		Str("mode", string(mode)).
		Str("boundary", string(boundary)).
		Msg("Lattice initialized")

	return l, nil
}

// Rows returns the number of grid rows.
func (l *Lattice) Rows() int { return l.rows }

// Cols returns the number of grid columns.
func (l *Lattice) Cols() int { return l.cols }

// Mode returns the infon mode fixed at construction.
func (l *Lattice) Mode() Mode { return l.mode }

// Boundary returns the boundary policy fixed at construction.
func (l *Lattice) Boundary() Boundary { return l.boundary }

// Rand exposes the lattice's random source for operations that need it
// (measurement collapse, Bernoulli initialization).
func (l *Lattice) Rand() *rand.Rand { return l.rng }

// Wrap applies the boundary policy to a raw position. Periodic boundaries
// reduce modulo the dimensions and always succeed; fixed boundaries return
// the position unchanged when in range and ErrOutOfBounds otherwise.
func (l *Lattice) Wrap(p Position) (Position, error) {
	if l.boundary == BoundaryPeriodic {
		r := ((p.Row % l.rows) + l.rows) % l.rows
		c := ((p.Col % l.cols) + l.cols) % l.cols
		return Position{Row: r, Col: c}, nil
	}
	if p.Row < 0 || p.Row >= l.rows || p.Col < 0 || p.Col >= l.cols {
		return Position{}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, p.Row, p.Col)
	}
	return p, nil
}

func (l *Lattice) index(p Position) int { return p.Row*l.cols + p.Col }

// Scalar returns the scalar value at a wrapped position.
func (l *Lattice) Scalar(p Position) (float64, error) {
	if l.mode != ModeScalar {
		return 0, fmt.Errorf("%w: Scalar on %s lattice", ErrTypeMismatch, l.mode)
	}
	wp, err := l.Wrap(p)
	if err != nil {
		return 0, err
	}
	return l.scalars[l.index(wp)], nil
}

// SetScalar writes the scalar value at a wrapped position.
func (l *Lattice) SetScalar(p Position, v float64) error {
	if l.mode != ModeScalar {
		return fmt.Errorf("%w: SetScalar on %s lattice", ErrTypeMismatch, l.mode)
	}
	wp, err := l.Wrap(p)
	if err != nil {
		return err
	}
	l.scalars[l.index(wp)] = v
	return nil
}

// Qubit returns the quantum state at a wrapped position.
func (l *Lattice) Qubit(p Position) (*QuantumState, error) {
	if l.mode != ModeQubit {
		return nil, fmt.Errorf("%w: Qubit on %s lattice", ErrTypeMismatch, l.mode)
	}
	wp, err := l.Wrap(p)
	if err != nil {
		return nil, err
	}
	return l.qubits[l.index(wp)], nil
}

// SetQubit writes a quantum state at a wrapped position. Evolution always
// writes fresh QuantumState instances here rather than mutating in place.
func (l *Lattice) SetQubit(p Position, q *QuantumState) error {
	if l.mode != ModeQubit {
		return fmt.Errorf("%w: SetQubit on %s lattice", ErrTypeMismatch, l.mode)
	}
	wp, err := l.Wrap(p)
	if err != nil {
		return err
	}
	l.qubits[l.index(wp)] = q
	return nil
}

// NeighborPositions returns the wrapped Moore neighborhood of a position:
// all 8 offsets in {−1,0,1}² except (0,0). Under fixed boundaries, neighbors
// outside the grid are excluded rather than reported as errors, so boundary
// cells simply have fewer neighbors.
func (l *Lattice) NeighborPositions(p Position) []Position {
	out := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			wp, err := l.Wrap(Position{Row: p.Row + dr, Col: p.Col + dc})
			if err != nil {
				continue // fixed boundary, off-grid neighbor
			}
			out = append(out, wp)
		}
	}
	return out
}

// NeighborSum sums the scalar values over the Moore neighborhood. Off-grid
// neighbors under fixed boundaries contribute zero by exclusion.
func (l *Lattice) NeighborSum(p Position) (float64, error) {
	if l.mode != ModeScalar {
		return 0, fmt.Errorf("%w: NeighborSum on %s lattice", ErrTypeMismatch, l.mode)
	}
	sum := 0.0
	for _, n := range l.NeighborPositions(p) {
		sum += l.scalars[l.index(n)]
	}
	return sum, nil
}

// ScalarField returns a row-major copy of the scalar grid.
func (l *Lattice) ScalarField() ([][]float64, error) {
	if l.mode != ModeScalar {
		return nil, fmt.Errorf("%w: ScalarField on %s lattice", ErrTypeMismatch, l.mode)
	}
	out := make([][]float64, l.rows)
	for r := 0; r < l.rows; r++ {
		out[r] = make([]float64, l.cols)
		copy(out[r], l.scalars[r*l.cols:(r+1)*l.cols])
	}
	return out, nil
}

// P0Field returns the |0⟩-probability surface of a qubit lattice, the field
// external visualizers render as a heatmap.
func (l *Lattice) P0Field() ([][]float64, error) {
	if l.mode != ModeQubit {
		return nil, fmt.Errorf("%w: P0Field on %s lattice", ErrTypeMismatch, l.mode)
	}
	out := make([][]float64, l.rows)
	for r := 0; r < l.rows; r++ {
		out[r] = make([]float64, l.cols)
		for c := 0; c < l.cols; c++ {
			out[r][c] = l.qubits[r*l.cols+c].P0()
		}
	}
	return out, nil
}

// InitOptions parameterizes InitializeScalar.
type InitOptions struct {
	Density *float64    // Bernoulli density for InitRandom; nil means 0.5
	Seed    *int64      // optional reseed of the lattice source before InitRandom
	Pattern [][]float64 // grid-shaped values for InitPattern
	Value   float64     // fill constant for InitClear
}

// InitMethod names a scalar initialization method.
type InitMethod string

const (
	InitRandom  InitMethod = "random"
	InitPattern InitMethod = "pattern"
	InitClear   InitMethod = "clear"
)

// InitializeScalar re-initializes a scalar grid. Calling it on a qubit
// lattice is a deliberate no-op (logged, no error): the initializer is a
// classical-mode-only operation and qubit grids are seeded at construction.
func (l *Lattice) InitializeScalar(method InitMethod, opts InitOptions) error {
	if l.mode != ModeScalar {
		l.log.Warn().Str("method", string(method)).Msg("InitializeScalar ignored on qubit lattice")
		return nil
	}

	switch method {
	case InitRandom:
		density := 0.5
		if opts.Density != nil {
			density = *opts.Density
		}
		if opts.Seed != nil {
			l.rng = rand.New(rand.NewSource(*opts.Seed))
		}
		for i := range l.scalars {
			if l.rng.Float64() < density {
				l.scalars[i] = 1.0
			} else {
				l.scalars[i] = 0.0
			}
		}

	case InitPattern:
		if len(opts.Pattern) != l.rows {
			return fmt.Errorf("%w: %d rows, want %d", ErrShapeMismatch, len(opts.Pattern), l.rows)
		}
		for r, row := range opts.Pattern {
			if len(row) != l.cols {
				return fmt.Errorf("%w: row %d has %d cols, want %d", ErrShapeMismatch, r, len(row), l.cols)
			}
		}
		for r := 0; r < l.rows; r++ {
			copy(l.scalars[r*l.cols:(r+1)*l.cols], opts.Pattern[r])
		}

	case InitClear:
		for i := range l.scalars {
			l.scalars[i] = opts.Value
		}

	default:
		return fmt.Errorf("%w: init method %q", ErrUnsupportedMode, method)
	}

	l.log.Debug().Str("method", string(method)).Msg("Scalar infons initialized")
	return nil
}
