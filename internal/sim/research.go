package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"

	"github.com/emergentlab/trgi/internal/dynamics"
	"github.com/emergentlab/trgi/internal/lattice"
)

// TrackPerturbation flips a single qubit (X or Z axis), then steps the
// dynamics and reports, per step, the maximum integer radius from the start
// position at which a cell's state has moved more than 1e-3 from the
// pre-perturbation baseline. It is a light-cone probe for how fast local
// information spreads.
//
// Single-threaded research helper: the caller owns the lattice and dynamics
// for the duration of the call.
func TrackPerturbation(lat *lattice.Lattice, dyn dynamics.Dynamics, start lattice.Position, steps int, axis string) ([]int, error) {
	if lat.Mode() != lattice.ModeQubit {
		return nil, fmt.Errorf("%w: perturbation tracking needs qubit infons", lattice.ErrTypeMismatch)
	}

	rows, cols := lat.Rows(), lat.Cols()
	baseline := make([][2]complex128, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			q, err := lat.Qubit(lattice.Position{Row: r, Col: c})
			if err != nil {
				return nil, err
			}
			a, b := q.Amplitudes()
			baseline[r*cols+c] = [2]complex128{a, b}
		}
	}

	u, err := pauliFlip(axis)
	if err != nil {
		return nil, err
	}
	q, err := lat.Qubit(start)
	if err != nil {
		return nil, err
	}
	a, b := q.Amplitudes()
	flipA := u[0][0]*a + u[0][1]*b
	flipB := u[1][0]*a + u[1][1]*b
	if err := lat.SetQubit(start, lattice.NewQuantumState(flipA, flipB)); err != nil {
		return nil, err
	}

	distances := make([]int, 0, steps)
	for t := 0; t < steps; t++ {
		if err := dyn.Step(); err != nil {
			return nil, err
		}

		maxDist := 0.0
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				cur, err := lat.Qubit(lattice.Position{Row: r, Col: c})
				if err != nil {
					return nil, err
				}
				ca, cb := cur.Amplitudes()
				base := baseline[r*cols+c]
				diff := math.Hypot(cmplx.Abs(ca-base[0]), cmplx.Abs(cb-base[1]))
				if diff > 1e-3 {
					d := math.Hypot(float64(r-start.Row), float64(c-start.Col))
					if d > maxDist {
						maxDist = d
					}
				}
			}
		}
		distances = append(distances, int(math.Round(maxDist)))
	}
	return distances, nil
}

// DetectDomains labels 4-connected components of cells whose P(|0⟩) (or
// scalar value) exceeds the threshold. Returns the label grid (0 for cells
// below threshold, 1..n for domains) and the number of domains found.
func DetectDomains(lat *lattice.Lattice, threshold float64) ([][]int, int, error) {
	rows, cols := lat.Rows(), lat.Cols()

	var field [][]float64
	var err error
	if lat.Mode() == lattice.ModeQubit {
		field, err = lat.P0Field()
	} else {
		field, err = lat.ScalarField()
	}
	if err != nil {
		return nil, 0, err
	}

	labels := make([][]int, rows)
	for r := range labels {
		labels[r] = make([]int, cols)
	}

	next := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if field[r][c] <= threshold || labels[r][c] != 0 {
				continue
			}
			next++
			// Flood fill the component.
			queue := []lattice.Position{{Row: r, Col: c}}
			labels[r][c] = next
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nr, nc := p.Row+d[0], p.Col+d[1]
					if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
						continue
					}
					if field[nr][nc] > threshold && labels[nr][nc] == 0 {
						labels[nr][nc] = next
						queue = append(queue, lattice.Position{Row: nr, Col: nc})
					}
				}
			}
		}
	}
	return labels, next, nil
}

// RegressFields fits energy = slope·curvature + intercept over the
// flattened fields, the linear trend the curvature-energy correlation
// analysis reports alongside the raw scatter.
func RegressFields(curvature, energy [][]float64) (slope, intercept float64, err error) {
	var x, y []float64
	for r := range curvature {
		if r >= len(energy) || len(curvature[r]) != len(energy[r]) {
			return 0, 0, fmt.Errorf("%w: curvature and energy fields differ in shape", lattice.ErrShapeMismatch)
		}
		x = append(x, curvature[r]...)
		y = append(y, energy[r]...)
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	return slope, intercept, nil
}
