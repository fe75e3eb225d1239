package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergentlab/trgi/internal/lattice"
)

func newQubitLattice(t *testing.T, rows, cols int) *lattice.Lattice {
	t.Helper()
	l, err := lattice.New(rows, cols, lattice.ModeQubit, lattice.BoundaryPeriodic, rand.New(rand.NewSource(7)), zerolog.Nop())
	require.NoError(t, err)
	return l
}

func setState(t *testing.T, l *lattice.Lattice, p lattice.Position, a, b complex128) {
	t.Helper()
	require.NoError(t, l.SetQubit(p, lattice.NewQuantumState(a, b)))
}

func TestInformationalDistance_ScalarModeIsEuclidean(t *testing.T) {
	l, err := lattice.New(5, 5, lattice.ModeScalar, lattice.BoundaryPeriodic, rand.New(rand.NewSource(1)), zerolog.Nop())
	require.NoError(t, err)
	g := New(l, zerolog.Nop())

	d, err := g.InformationalDistance(lattice.Position{Row: 0, Col: 0}, lattice.Position{Row: 3, Col: 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-12)
}

func TestInformationalDistance_QubitProperties(t *testing.T) {
	l := newQubitLattice(t, 3, 3)
	g := New(l, zerolog.Nop())

	p1 := lattice.Position{Row: 0, Col: 0}
	p2 := lattice.Position{Row: 1, Col: 1}

	// The epsilon guard in the dot-product denominator keeps acos a hair
	// away from its endpoints, so endpoint checks use a loose delta.
	d, err := g.InformationalDistance(p1, p1)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-4)

	d12, err := g.InformationalDistance(p1, p2)
	require.NoError(t, err)
	d21, err := g.InformationalDistance(p2, p1)
	require.NoError(t, err)
	assert.Equal(t, d12, d21)
	assert.GreaterOrEqual(t, d12, 0.0)
	assert.LessOrEqual(t, d12, math.Pi)
}

func TestInformationalDistance_BasisStates(t *testing.T) {
	l := newQubitLattice(t, 2, 2)
	g := New(l, zerolog.Nop())

	p1 := lattice.Position{Row: 0, Col: 0}
	p2 := lattice.Position{Row: 0, Col: 1}

	setState(t, l, p1, 1, 0) // |0⟩, Bloch +z
	setState(t, l, p2, 0, 1) // |1⟩, Bloch −z

	d, err := g.InformationalDistance(p1, p2)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, d, 1e-4)

	// Same state in both cells collapses the angle to zero.
	setState(t, l, p2, 1, 0)
	d, err = g.InformationalDistance(p1, p2)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-4)
}

func TestInformationalDistance_OrthogonalBlochAxes(t *testing.T) {
	l := newQubitLattice(t, 2, 2)
	g := New(l, zerolog.Nop())

	s := 1 / math.Sqrt2
	setState(t, l, lattice.Position{Row: 0, Col: 0}, 1, 0)                          // +z
	setState(t, l, lattice.Position{Row: 0, Col: 1}, complex(s, 0), complex(s, 0)) // +x

	d, err := g.InformationalDistance(lattice.Position{Row: 0, Col: 0}, lattice.Position{Row: 0, Col: 1})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, d, 1e-6)
}

func TestCurvature_UniformLatticeIsFlat(t *testing.T) {
	l := newQubitLattice(t, 4, 4)
	g := New(l, zerolog.Nop())

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			setState(t, l, lattice.Position{Row: r, Col: c}, 1, 0)
		}
	}

	field, err := g.ComputeCurvatureField()
	require.NoError(t, err)
	for r := range field {
		for c := range field[r] {
			assert.InDelta(t, 0.0, field[r][c], 1e-9, "cell (%d,%d)", r, c)
		}
	}
}

func TestCurvature_DefectRaisesNeighborhoodDispersion(t *testing.T) {
	l := newQubitLattice(t, 5, 5)
	g := New(l, zerolog.Nop())

	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			setState(t, l, lattice.Position{Row: r, Col: c}, 1, 0)
		}
	}
	// One flipped cell makes its neighbors see a mix of 0 and π distances.
	setState(t, l, lattice.Position{Row: 2, Col: 2}, 0, 1)

	field, err := g.ComputeCurvatureField()
	require.NoError(t, err)
	assert.Greater(t, field[1][1], 0.0)
	assert.Greater(t, field[2][1], 0.0)
	// Far corner still sits in a uniform patch.
	assert.InDelta(t, 0.0, field[4][4], 1e-9)
}

func TestMetricField_UniformVersusMixed(t *testing.T) {
	l := newQubitLattice(t, 4, 4)
	g := New(l, zerolog.Nop())

	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			setState(t, l, lattice.Position{Row: r, Col: c}, 1, 0)
		}
	}

	field, err := g.ComputeMetricField()
	require.NoError(t, err)
	for r := range field {
		for c := range field[r] {
			assert.InDelta(t, 0.0, field[r][c], 1e-4)
		}
	}

	// A flipped defect raises the local length scale around it.
	setState(t, l, lattice.Position{Row: 1, Col: 1}, 0, 1)
	field, err = g.ComputeMetricField()
	require.NoError(t, err)
	assert.Greater(t, field[1][2], 0.1)
	assert.Equal(t, field, g.MetricField())
}

func TestCurvatureField_ReturnsCache(t *testing.T) {
	l := newQubitLattice(t, 3, 3)
	g := New(l, zerolog.Nop())

	computed, err := g.ComputeCurvatureField()
	require.NoError(t, err)
	cached := g.CurvatureField()
	assert.Equal(t, computed, cached)
}
