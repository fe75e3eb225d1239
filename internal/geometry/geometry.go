// Package geometry derives emergent geometric quantities from the lattice
// state: a pairwise informational distance and a per-cell curvature analogue.
package geometry

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/emergentlab/trgi/internal/lattice"
)

// dotEpsilon guards the Bloch-angle division against near-zero vectors.
const dotEpsilon = 1e-9

// EmergentGeometry computes informational distances and the curvature field
// over a lattice it does not own. The cached fields are derived snapshots,
// never the source of truth; callers recompute before reading.
type EmergentGeometry struct {
	lat       *lattice.Lattice
	curvature [][]float64
	metric    [][]float64
	log       zerolog.Logger
}

// New creates an EmergentGeometry bound to the given lattice, with zeroed
// curvature and metric fields of matching shape.
func New(lat *lattice.Lattice, log zerolog.Logger) *EmergentGeometry {
	return &EmergentGeometry{
		lat:       lat,
		curvature: zeroField(lat.Rows(), lat.Cols()),
		metric:    zeroField(lat.Rows(), lat.Cols()),
		log:       log.With().Str("component", "geometry").Logger(),
	}
}

func zeroField(rows, cols int) [][]float64 {
	f := make([][]float64, rows)
	for r := range f {
		f[r] = make([]float64, cols)
	}
	return f
}

// InformationalDistance returns the distance between two lattice positions.
// In scalar mode it is the Euclidean distance between the grid coordinates.
// In qubit mode it is the angle between the two cells' Bloch vectors,
// bounded in [0, π]; the result is symmetric and zero for a position against
// itself.
func (g *EmergentGeometry) InformationalDistance(p1, p2 lattice.Position) (float64, error) {
	if g.lat.Mode() == lattice.ModeScalar {
		return math.Hypot(float64(p1.Row-p2.Row), float64(p1.Col-p2.Col)), nil
	}

	q1, err := g.lat.Qubit(p1)
	if err != nil {
		return 0, err
	}
	q2, err := g.lat.Qubit(p2)
	if err != nil {
		return 0, err
	}

	x1, y1, z1 := q1.BlochVector()
	x2, y2, z2 := q2.BlochVector()

	dot := x1*x2 + y1*y2 + z1*z2
	n1 := math.Sqrt(x1*x1 + y1*y1 + z1*z1)
	n2 := math.Sqrt(x2*x2 + y2*y2 + z2*z2)

	cos := dot / (n1*n2 + dotEpsilon)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos), nil
}

// LocalCurvature returns the curvature analogue at a position: the
// population standard deviation of the informational distances to the Moore
// neighbors. High dispersion of neighbor distances reads as high curvature.
// This is an analogue, not a differential-geometric curvature.
func (g *EmergentGeometry) LocalCurvature(pos lattice.Position) (float64, error) {
	neighbors := g.lat.NeighborPositions(pos)
	dists := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		d, err := g.InformationalDistance(pos, n)
		if err != nil {
			return 0, err
		}
		dists = append(dists, d)
	}
	if len(dists) == 0 {
		return 0, nil
	}
	return stat.PopStdDev(dists, nil), nil
}

// ComputeCurvatureField recomputes LocalCurvature at every position,
// overwrites the cached curvature field and returns it.
func (g *EmergentGeometry) ComputeCurvatureField() ([][]float64, error) {
	for r := 0; r < g.lat.Rows(); r++ {
		for c := 0; c < g.lat.Cols(); c++ {
			k, err := g.LocalCurvature(lattice.Position{Row: r, Col: c})
			if err != nil {
				return nil, err
			}
			g.curvature[r][c] = k
		}
	}
	return g.curvature, nil
}

// CurvatureField returns the cached curvature field without recomputing it.
func (g *EmergentGeometry) CurvatureField() [][]float64 { return g.curvature }

// LocalMetric returns the mean informational distance from a position to its
// Moore neighbors, the local length scale of the emergent geometry. Flat
// regions have a uniform metric; the curvature is its dispersion.
func (g *EmergentGeometry) LocalMetric(pos lattice.Position) (float64, error) {
	neighbors := g.lat.NeighborPositions(pos)
	if len(neighbors) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, n := range neighbors {
		d, err := g.InformationalDistance(pos, n)
		if err != nil {
			return 0, err
		}
		sum += d
	}
	return sum / float64(len(neighbors)), nil
}

// ComputeMetricField recomputes LocalMetric at every position, overwrites the
// cached metric field and returns it.
func (g *EmergentGeometry) ComputeMetricField() ([][]float64, error) {
	for r := 0; r < g.lat.Rows(); r++ {
		for c := 0; c < g.lat.Cols(); c++ {
			m, err := g.LocalMetric(lattice.Position{Row: r, Col: c})
			if err != nil {
				return nil, err
			}
			g.metric[r][c] = m
		}
	}
	return g.metric, nil
}

// MetricField returns the cached metric field without recomputing it.
func (g *EmergentGeometry) MetricField() [][]float64 { return g.metric }
