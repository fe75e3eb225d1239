package dynamics

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// The pair Hamiltonian −J·Z⊗Z − h·(X⊗I + I⊗X) is a real symmetric 4×4
// matrix (both Pauli terms are real), so the propagator exp(−iHdt) is
// computed through a real symmetric eigendecomposition:
// U = V·diag(e^{−iλdt})·Vᵀ.

// zz is the diagonal of Z⊗Z.
var zz = [4]float64{1, -1, -1, 1}

// xTerm is X⊗I + I⊗X, the transverse-field term acting on each qubit.
var xTerm = [4][4]float64{
	{0, 1, 1, 0},
	{1, 0, 0, 1},
	{1, 0, 0, 1},
	{0, 1, 1, 0},
}

// pairHamiltonian assembles H = −jEff·Z⊗Z − h·(X⊗I + I⊗X).
func pairHamiltonian(jEff, h float64) *mat.SymDense {
	m := mat.NewSymDense(4, nil)
	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			v := -h * xTerm[i][j]
			if i == j {
				v += -jEff * zz[i]
			}
			m.SetSym(i, j, v)
		}
	}
	return m
}

// pairPropagator computes U = exp(−i·H·dt) for a real symmetric H.
func pairPropagator(h *mat.SymDense, dt float64) ([4][4]complex128, error) {
	var es mat.EigenSym
	if !es.Factorize(h, true) {
		return [4][4]complex128{}, ErrNumericalFailure
	}

	var v mat.Dense
	es.VectorsTo(&v)
	vals := es.Values(nil)

	phases := [4]complex128{}
	for m := 0; m < 4; m++ {
		phases[m] = cmplx.Exp(complex(0, -vals[m]*dt))
	}

	var u [4][4]complex128
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := complex(0, 0)
			for m := 0; m < 4; m++ {
				sum += complex(v.At(i, m)*v.At(j, m), 0) * phases[m]
			}
			u[i][j] = sum
		}
	}
	return u, nil
}

// applyPropagator returns U·ψ for a 4-component pair state.
func applyPropagator(u [4][4]complex128, psi [4]complex128) [4]complex128 {
	var out [4]complex128
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i] += u[i][j] * psi[j]
		}
	}
	return out
}

// reprojectPair factors an evolved pair state back onto a product of two
// single-qubit states: the evolved 4-vector is reshaped into the 2×2 matrix
// A[i][j] = ψ[2i+j] and its dominant singular triplet (σ, u, v) gives
// q1 = u·√σ and q2 = v̄·√σ, the best rank-1 product approximation.
//
// This is the model's central mean-field approximation: a general two-qubit
// state cannot be factored exactly, and the physically rigorous
// density-matrix partial trace is traded away for state-vector tractability.
// Entanglement between the pair is discarded at every step. For an input
// that is already a product state the factorization is exact up to a global
// phase.
//
// The singular triplet comes from the 2×2 Hermitian matrix AᴴA, whose
// eigenvalues are available in closed form. ok is false when the state has
// collapsed below numerical resolution or contains non-finite entries;
// callers fall back to |0⟩⊗|0⟩.
func reprojectPair(psi [4]complex128) (q1a, q1b, q2a, q2b complex128, ok bool) {
	for _, c := range psi {
		if cmplx.IsNaN(c) || cmplx.IsInf(c) {
			return 0, 0, 0, 0, false
		}
	}

	a00, a01 := psi[0], psi[1]
	a10, a11 := psi[2], psi[3]

	// B = AᴴA, Hermitian positive semi-definite.
	b00 := real(cmplx.Conj(a00)*a00 + cmplx.Conj(a10)*a10)
	b11 := real(cmplx.Conj(a01)*a01 + cmplx.Conj(a11)*a11)
	b01 := cmplx.Conj(a00)*a01 + cmplx.Conj(a10)*a11

	tr := b00 + b11
	det := b00*b11 - real(b01*cmplx.Conj(b01))
	disc := math.Sqrt(math.Max(0, tr*tr-4*det))
	lambda := (tr + disc) / 2 // dominant eigenvalue of AᴴA = σ₁²

	sigma := math.Sqrt(math.Max(0, lambda))
	if sigma < 1e-12 {
		return 0, 0, 0, 0, false
	}

	// Dominant right singular vector v₁ (eigenvector of B for λ).
	var v0, v1 complex128
	if cmplx.Abs(b01) > 1e-15 {
		v0 = b01
		v1 = complex(lambda-b00, 0)
	} else if b00 >= b11 {
		v0, v1 = 1, 0
	} else {
		v0, v1 = 0, 1
	}
	vn := math.Hypot(cmplx.Abs(v0), cmplx.Abs(v1))
	v0 /= complex(vn, 0)
	v1 /= complex(vn, 0)

	// Left singular vector u₁ = A·v₁/σ₁.
	s := complex(sigma, 0)
	u0 := (a00*v0 + a01*v1) / s
	u1 := (a10*v0 + a11*v1) / s

	root := complex(math.Sqrt(sigma), 0)
	return u0 * root, u1 * root, cmplx.Conj(v0) * root, cmplx.Conj(v1) * root, true
}
