package lattice

import (
	"math"
	"math/cmplx"
	"math/rand"
)

// normEpsilon is the norm below which a supplied amplitude pair is considered
// degenerate and snapped to |0⟩.
const normEpsilon = 1e-9

// QuantumState is a single two-level infon, |ψ⟩ = a|0⟩ + b|1⟩ with
// |a|² + |b|² = 1. Construction always renormalizes, so every instance
// satisfies the invariant.
//
// Evolution code treats states as immutable value objects and writes fresh
// instances back to the lattice. The two in-place operations (ApplyUnitary,
// Measure) exist for external interventions only and must not be used inside
// a time step.
type QuantumState struct {
	a complex128
	b complex128
}

// NewQuantumState builds a state from both amplitudes, renormalizing the
// pair. A near-zero pair collapses to the canonical basis state |0⟩.
func NewQuantumState(a, b complex128) *QuantumState {
	norm := math.Hypot(cmplx.Abs(a), cmplx.Abs(b))
	if norm < normEpsilon {
		return &QuantumState{a: 1, b: 0}
	}
	n := complex(norm, 0)
	return &QuantumState{a: a / n, b: b / n}
}

// NewStateFromA builds a state from the |0⟩ amplitude alone; the |1⟩
// amplitude is inferred as the real non-negative sqrt(1 − |a|²).
func NewStateFromA(a complex128) *QuantumState {
	m := cmplx.Abs(a)
	b := complex(math.Sqrt(math.Max(0, 1-m*m)), 0)
	return NewQuantumState(a, b)
}

// NewStateFromB builds a state from the |1⟩ amplitude alone.
func NewStateFromB(b complex128) *QuantumState {
	m := cmplx.Abs(b)
	a := complex(math.Sqrt(math.Max(0, 1-m*m)), 0)
	return NewQuantumState(a, b)
}

// NewRandomState samples a state uniformly on the Bloch sphere from the
// supplied source: θ = arccos(2u−1), φ = 2πv.
func NewRandomState(rng *rand.Rand) *QuantumState {
	theta := math.Acos(2*rng.Float64() - 1)
	phi := 2 * math.Pi * rng.Float64()
	a := complex(math.Cos(theta/2), 0)
	b := cmplx.Exp(complex(0, phi)) * complex(math.Sin(theta/2), 0)
	return NewQuantumState(a, b)
}

// Amplitudes returns the (a, b) amplitude pair.
func (q *QuantumState) Amplitudes() (complex128, complex128) {
	return q.a, q.b
}

// P0 returns the probability |a|² of measuring |0⟩. Read-only, no collapse.
func (q *QuantumState) P0() float64 {
	m := cmplx.Abs(q.a)
	return m * m
}

// ApplyUnitary applies a 2×2 unitary to the state in place. Used for
// external perturbations, never for the per-step evolution.
func (q *QuantumState) ApplyUnitary(u [2][2]complex128) {
	a := u[0][0]*q.a + u[0][1]*q.b
	b := u[1][0]*q.a + u[1][1]*q.b
	q.a, q.b = a, b
}

// Measure measures the state in the computational basis, collapses it to the
// observed basis state and returns the observed bit. The prior state is
// destroyed.
func (q *QuantumState) Measure(rng *rand.Rand) int {
	if rng.Float64() < q.P0() {
		q.a, q.b = 1, 0
		return 0
	}
	q.a, q.b = 0, 1
	return 1
}

// BlochVector returns the Bloch-sphere representation
// (2·Re(ā·b), 2·Im(b̄·a), |a|²−|b|²).
func (q *QuantumState) BlochVector() (x, y, z float64) {
	x = 2 * real(cmplx.Conj(q.a)*q.b)
	y = 2 * imag(cmplx.Conj(q.b)*q.a)
	ma, mb := cmplx.Abs(q.a), cmplx.Abs(q.b)
	z = ma*ma - mb*mb
	return x, y, z
}
