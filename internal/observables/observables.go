// Package observables computes global scalar summaries of the lattice:
// Shannon and von Neumann entropies, spatial X-correlations and temporal
// autocorrelation of recorded series.
package observables

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"

	"github.com/emergentlab/trgi/internal/lattice"
)

const (
	// logEpsilon regularizes log₂(p) at p = 0 in the Shannon entropy.
	logEpsilon = 1e-12
	// eigenThreshold discards near-zero eigenvalues in the von Neumann entropy.
	eigenThreshold = 1e-12
)

// ShannonEntropy returns the mean per-cell entropy of the computational
// projection of a qubit lattice: the average over all cells of
// −(p₀·log₂(p₀+ε) + p₁·log₂(p₁+ε)) with p₁ = 1−p₀. A lattice of pure basis
// states scores 0; a lattice of equal superpositions scores 1 bit per cell.
func ShannonEntropy(lat *lattice.Lattice) (float64, error) {
	if lat.Mode() != lattice.ModeQubit {
		return 0, fmt.Errorf("%w: shannon entropy needs qubit infons", lattice.ErrTypeMismatch)
	}

	total := 0.0
	cells := 0
	for r := 0; r < lat.Rows(); r++ {
		for c := 0; c < lat.Cols(); c++ {
			q, err := lat.Qubit(lattice.Position{Row: r, Col: c})
			if err != nil {
				return 0, err
			}
			p0 := q.P0()
			p1 := 1 - p0
			total += -(p0*math.Log2(p0+logEpsilon) + p1*math.Log2(p1+logEpsilon))
			cells++
		}
	}
	return total / float64(cells), nil
}

// XExpectation returns ⟨σ_x⟩ = 2·Re(ā·b) for one qubit.
func XExpectation(q *lattice.QuantumState) float64 {
	a, b := q.Amplitudes()
	return 2 * real(cmplx.Conj(a)*b)
}

// ReducedDensityMatrix traces one qubit out of a two-qubit pure state
// ψ[2i+j] and returns the 2×2 reduced density matrix of the kept qubit
// (keep = 0 keeps the first qubit, keep = 1 the second).
func ReducedDensityMatrix(pair [4]complex128, keep int) [2][2]complex128 {
	// Reshape ψ into A[i][j]; then ρ_A = A·Aᴴ and ρ_B = Aᵀ·Ā.
	a := [2][2]complex128{{pair[0], pair[1]}, {pair[2], pair[3]}}
	var rho [2][2]complex128
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum := complex(0, 0)
			for k := 0; k < 2; k++ {
				if keep == 0 {
					sum += a[i][k] * cmplx.Conj(a[j][k])
				} else {
					sum += a[k][i] * cmplx.Conj(a[k][j])
				}
			}
			rho[i][j] = sum
		}
	}
	return rho
}

// VonNeumannEntropy returns S(ρ) = −Σ λ·log₂(λ) over the eigenvalues of a
// 2×2 Hermitian density matrix, skipping eigenvalues below threshold. The
// eigenvalues come from the closed-form trace/determinant quadratic.
func VonNeumannEntropy(rho [2][2]complex128) float64 {
	tr := real(rho[0][0]) + real(rho[1][1])
	det := real(rho[0][0])*real(rho[1][1]) - real(rho[0][1]*cmplx.Conj(rho[0][1]))
	disc := math.Sqrt(math.Max(0, tr*tr-4*det))

	s := 0.0
	for _, lambda := range [2]float64{(tr + disc) / 2, (tr - disc) / 2} {
		if lambda > eigenThreshold {
			s -= lambda * math.Log2(lambda)
		}
	}
	return s
}

// PairEntanglementEntropy returns the entanglement entropy of a two-qubit
// pure state: the von Neumann entropy of either reduced density matrix.
func PairEntanglementEntropy(pair [4]complex128) float64 {
	return VonNeumannEntropy(ReducedDensityMatrix(pair, 0))
}

// RegionEntropy sums the single-qubit von Neumann entropies over a region.
// The evolution keeps cells in product states, so the region entropy reduces
// to this sum; provided for completeness.
func RegionEntropy(lat *lattice.Lattice, positions []lattice.Position) (float64, error) {
	total := 0.0
	for _, pos := range positions {
		q, err := lat.Qubit(pos)
		if err != nil {
			return 0, err
		}
		a, b := q.Amplitudes()
		rho := [2][2]complex128{
			{a * cmplx.Conj(a), a * cmplx.Conj(b)},
			{b * cmplx.Conj(a), b * cmplx.Conj(b)},
		}
		total += VonNeumannEntropy(rho)
	}
	return total, nil
}

// SpatialCorrelation computes ⟨σ_x(i)·σ_x(j)⟩ averaged per integer distance
// bucket for every unordered cell pair at rounded Euclidean separation up to
// maxDistance. Index d of the result holds the mean product at distance d;
// buckets with no pairs stay zero.
func SpatialCorrelation(lat *lattice.Lattice, maxDistance int) ([]float64, error) {
	if lat.Mode() != lattice.ModeQubit {
		return nil, fmt.Errorf("%w: spatial correlation needs qubit infons", lattice.ErrTypeMismatch)
	}

	rows, cols := lat.Rows(), lat.Cols()
	expX := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			q, err := lat.Qubit(lattice.Position{Row: r, Col: c})
			if err != nil {
				return nil, err
			}
			expX[r*cols+c] = XExpectation(q)
		}
	}

	corr := make([]float64, maxDistance+1)
	counts := make([]float64, maxDistance+1)
	n := rows * cols
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r1, c1 := i/cols, i%cols
			r2, c2 := j/cols, j%cols
			d := int(math.Round(math.Hypot(float64(r1-r2), float64(c1-c2))))
			if d <= maxDistance {
				corr[d] += expX[i] * expX[j]
				counts[d]++
			}
		}
	}
	for d := range corr {
		if counts[d] > 0 {
			corr[d] /= counts[d]
		}
	}
	return corr, nil
}

// TemporalAutocorrelation returns the normalized autocovariance of a scalar
// series at the given lag, or 0 when the lag reaches past the series or the
// variance vanishes.
func TemporalAutocorrelation(series []float64, lag int) float64 {
	n := len(series)
	if lag < 0 || lag >= n {
		return 0
	}

	mean := stat.Mean(series, nil)
	variance := stat.PopVariance(series, nil)
	if variance == 0 {
		return 0
	}

	sum := 0.0
	for t := 0; t+lag < n; t++ {
		sum += (series[t] - mean) * (series[t+lag] - mean)
	}
	return sum / (variance * float64(n-lag))
}
