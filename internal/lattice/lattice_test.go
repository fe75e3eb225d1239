package lattice

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLattice(t *testing.T, rows, cols int, mode Mode, boundary Boundary) *Lattice {
	t.Helper()
	l, err := New(rows, cols, mode, boundary, rand.New(rand.NewSource(1)), zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestNew_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := New(0, 5, ModeScalar, BoundaryPeriodic, rng, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	_, err = New(5, 5, Mode("spinor"), BoundaryPeriodic, rng, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	_, err = New(5, 5, ModeScalar, Boundary("reflecting"), rng, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnsupportedBoundary)
}

func TestNew_QubitModeFillsRandomStates(t *testing.T) {
	l := newTestLattice(t, 4, 4, ModeQubit, BoundaryPeriodic)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			q, err := l.Qubit(Position{Row: r, Col: c})
			require.NoError(t, err)
			require.NotNil(t, q)
		}
	}
}

func TestWrap_Periodic(t *testing.T) {
	l := newTestLattice(t, 5, 7, ModeScalar, BoundaryPeriodic)

	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{"in range", Position{2, 3}, Position{2, 3}},
		{"positive overflow", Position{5, 7}, Position{0, 0}},
		{"negative", Position{-1, -1}, Position{4, 6}},
		{"deep negative", Position{-6, -8}, Position{4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Wrap(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrap_Fixed(t *testing.T) {
	l := newTestLattice(t, 5, 5, ModeScalar, BoundaryFixed)

	p, err := l.Wrap(Position{4, 4})
	require.NoError(t, err)
	assert.Equal(t, Position{4, 4}, p)

	_, err = l.Wrap(Position{5, 0})
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = l.Wrap(Position{0, -1})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestNeighborPositions(t *testing.T) {
	periodic := newTestLattice(t, 4, 4, ModeScalar, BoundaryPeriodic)
	assert.Len(t, periodic.NeighborPositions(Position{0, 0}), 8)

	fixed := newTestLattice(t, 4, 4, ModeScalar, BoundaryFixed)
	assert.Len(t, fixed.NeighborPositions(Position{0, 0}), 3)
	assert.Len(t, fixed.NeighborPositions(Position{0, 1}), 5)
	assert.Len(t, fixed.NeighborPositions(Position{1, 1}), 8)
}

func TestNeighborSum(t *testing.T) {
	l := newTestLattice(t, 3, 3, ModeScalar, BoundaryFixed)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			require.NoError(t, l.SetScalar(Position{r, c}, 1.0))
		}
	}

	sum, err := l.NeighborSum(Position{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 8.0, sum)

	// Corner cell only sees its three in-range neighbors; the rest
	// implicitly contribute zero.
	sum, err = l.NeighborSum(Position{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 3.0, sum)
}

func TestModeMismatchErrors(t *testing.T) {
	qubit := newTestLattice(t, 3, 3, ModeQubit, BoundaryPeriodic)
	scalar := newTestLattice(t, 3, 3, ModeScalar, BoundaryPeriodic)

	_, err := qubit.NeighborSum(Position{0, 0})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = qubit.Scalar(Position{0, 0})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = scalar.Qubit(Position{0, 0})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = scalar.P0Field()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestInitializeScalar_Random(t *testing.T) {
	l := newTestLattice(t, 10, 10, ModeScalar, BoundaryPeriodic)
	seed := int64(99)
	density := 0.5
	require.NoError(t, l.InitializeScalar(InitRandom, InitOptions{Density: &density, Seed: &seed}))

	alive := 0
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			v, err := l.Scalar(Position{r, c})
			require.NoError(t, err)
			require.Contains(t, []float64{0.0, 1.0}, v)
			if v == 1.0 {
				alive++
			}
		}
	}
	// Bernoulli(0.5) over 100 cells stays well inside [20, 80].
	assert.Greater(t, alive, 20)
	assert.Less(t, alive, 80)
}

func TestInitializeScalar_RandomDensityExtremes(t *testing.T) {
	l := newTestLattice(t, 5, 5, ModeScalar, BoundaryPeriodic)

	// An explicit zero density is a request for an all-dead grid, not the
	// 0.5 default.
	dead := 0.0
	require.NoError(t, l.InitializeScalar(InitRandom, InitOptions{Density: &dead}))
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			v, err := l.Scalar(Position{r, c})
			require.NoError(t, err)
			assert.Equal(t, 0.0, v)
		}
	}

	full := 1.0
	require.NoError(t, l.InitializeScalar(InitRandom, InitOptions{Density: &full}))
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			v, err := l.Scalar(Position{r, c})
			require.NoError(t, err)
			assert.Equal(t, 1.0, v)
		}
	}
}

func TestInitializeScalar_Pattern(t *testing.T) {
	l := newTestLattice(t, 2, 2, ModeScalar, BoundaryPeriodic)

	err := l.InitializeScalar(InitPattern, InitOptions{Pattern: [][]float64{{1, 0}}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	require.NoError(t, l.InitializeScalar(InitPattern, InitOptions{Pattern: [][]float64{{1, 0}, {0, 1}}}))
	v, err := l.Scalar(Position{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = l.Scalar(Position{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestInitializeScalar_Clear(t *testing.T) {
	l := newTestLattice(t, 3, 3, ModeScalar, BoundaryPeriodic)
	require.NoError(t, l.InitializeScalar(InitClear, InitOptions{Value: 1.0}))
	sum, err := l.NeighborSum(Position{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 8.0, sum)
}

func TestInitializeScalar_NoOpOnQubitLattice(t *testing.T) {
	l := newTestLattice(t, 3, 3, ModeQubit, BoundaryPeriodic)
	before, err := l.Qubit(Position{1, 1})
	require.NoError(t, err)

	// Intentional no-op, not an error: the initializer only applies to
	// classical grids.
	density := 0.9
	require.NoError(t, l.InitializeScalar(InitRandom, InitOptions{Density: &density}))

	after, err := l.Qubit(Position{1, 1})
	require.NoError(t, err)
	assert.Same(t, before, after)
}
