// Package energy evaluates the local informational energy density T₀₀: the
// expectation value of the pair Hamiltonian at each lattice position.
package energy

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/dynamics"
	"github.com/emergentlab/trgi/internal/lattice"
)

// ErrWrongDynamics is returned when the supplied dynamics variant cannot
// provide a local Hamiltonian.
var ErrWrongDynamics = errors.New("energy tensor requires hamiltonian dynamics")

// Tensor caches one scalar field of local energies matching the lattice
// shape. The cache is valid only until the next dynamics step; recomputation
// is the caller's responsibility.
type Tensor struct {
	lat   *lattice.Lattice
	dyn   *dynamics.HamiltonianEvolution
	field [][]float64
	log   zerolog.Logger
}

// New builds a Tensor over a qubit lattice. The dynamics argument must be a
// *dynamics.HamiltonianEvolution; any other Step implementation has no local
// Hamiltonian to take expectations of.
func New(lat *lattice.Lattice, dyn dynamics.Dynamics, log zerolog.Logger) (*Tensor, error) {
	ham, ok := dyn.(*dynamics.HamiltonianEvolution)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrWrongDynamics, dyn)
	}

	field := make([][]float64, lat.Rows())
	for r := range field {
		field[r] = make([]float64, lat.Cols())
	}

	t := &Tensor{
		lat:   lat,
		dyn:   ham,
		field: field,
		log:   log.With().Str("component", "energy_tensor").Logger(),
	}
	t.log.Info().Msg("Energy tensor initialized")
	return t, nil
}

// LocalEnergy returns T₀₀ at a position: Re⟨ψ|H|ψ⟩ where ψ is the tensor
// product of the state at pos with its right neighbor and H is the local
// pair Hamiltonian. Cells without a right neighbor on a fixed-boundary grid
// carry zero energy.
func (t *Tensor) LocalEnergy(pos lattice.Position) (float64, error) {
	right, err := t.lat.Wrap(lattice.Position{Row: pos.Row, Col: pos.Col + 1})
	if errors.Is(err, lattice.ErrOutOfBounds) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	q1, err := t.lat.Qubit(pos)
	if err != nil {
		return 0, err
	}
	q2, err := t.lat.Qubit(right)
	if err != nil {
		return 0, err
	}

	h, err := t.dyn.LocalHamiltonian(pos)
	if err != nil {
		return 0, err
	}

	a1, b1 := q1.Amplitudes()
	a2, b2 := q2.Amplitudes()
	psi := [4]complex128{a1 * a2, a1 * b2, b1 * a2, b1 * b2}

	e := complex(0, 0)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			e += cmplx.Conj(psi[i]) * complex(h.At(i, j), 0) * psi[j]
		}
	}
	return real(e), nil
}

// ComputeField recomputes the local energy at every position, overwrites the
// cached field and returns it.
func (t *Tensor) ComputeField() ([][]float64, error) {
	for r := 0; r < t.lat.Rows(); r++ {
		for c := 0; c < t.lat.Cols(); c++ {
			e, err := t.LocalEnergy(lattice.Position{Row: r, Col: c})
			if err != nil {
				return nil, err
			}
			t.field[r][c] = e
		}
	}
	return t.field, nil
}

// Field returns the cached energy field without recomputing it.
func (t *Tensor) Field() [][]float64 { return t.field }
