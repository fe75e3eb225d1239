// Package dynamics advances the lattice in time. Two variants share the
// Step contract: a classical Conway-style automaton over scalar cells and a
// Hamiltonian-based unitary evolution over qubit cells. Each variant
// validates its required lattice mode at construction, not at first step.
package dynamics

import "errors"

// Dynamics is the single capability all time-evolution variants expose.
// Step advances one full generation or time step and is the sole writer of
// lattice state; readers (geometry, energy, observables) must only run
// between steps.
type Dynamics interface {
	Step() error
}

var (
	// ErrWrongLatticeMode is returned when a dynamics variant is constructed
	// over a lattice of the wrong infon mode.
	ErrWrongLatticeMode = errors.New("dynamics variant does not match lattice mode")

	// ErrNumericalFailure is returned when an eigendecomposition does not
	// converge while building a propagator.
	ErrNumericalFailure = errors.New("numerical decomposition failed")
)
