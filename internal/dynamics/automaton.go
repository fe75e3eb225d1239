package dynamics

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/emergentlab/trgi/internal/lattice"
)

// ClassicalAutomaton is a Conway-style birth/survival cellular automaton
// over a scalar lattice. The default rule is B3/S23.
type ClassicalAutomaton struct {
	lat      *lattice.Lattice
	birth    map[int]bool
	survival map[int]bool
	log      zerolog.Logger
}

// NewClassicalAutomaton builds an automaton over a scalar lattice. Nil rule
// slices select Conway's defaults (birth {3}, survival {2,3}).
func NewClassicalAutomaton(lat *lattice.Lattice, birth, survival []int, log zerolog.Logger) (*ClassicalAutomaton, error) {
	if lat.Mode() != lattice.ModeScalar {
		return nil, fmt.Errorf("%w: classical automaton requires scalar infons, got %s", ErrWrongLatticeMode, lat.Mode())
	}
	if birth == nil {
		birth = []int{3}
	}
	if survival == nil {
		survival = []int{2, 3}
	}

	a := &ClassicalAutomaton{
		lat:      lat,
		birth:    toSet(birth),
		survival: toSet(survival),
		log:      log.With().Str("component", "automaton").Logger(),
	}
	a.log.Info().Ints("birth", birth).Ints("survival", survival).Msg("Classical automaton initialized")
	return a, nil
}

func toSet(ns []int) map[int]bool {
	s := make(map[int]bool, len(ns))
	for _, n := range ns {
		s[n] = true
	}
	return s
}

// Step advances one generation. The whole grid updates synchronously from a
// frozen snapshot of the previous generation: alive cells with a neighbor
// count outside the survival set die, dead cells with a neighbor count in
// the birth set are born, everything else is unchanged.
func (a *ClassicalAutomaton) Step() error {
	l := a.lat
	prev, err := l.ScalarField()
	if err != nil {
		return err
	}

	for r := 0; r < l.Rows(); r++ {
		for c := 0; c < l.Cols(); c++ {
			pos := lattice.Position{Row: r, Col: c}
			n := 0
			for _, np := range l.NeighborPositions(pos) {
				if prev[np.Row][np.Col] == 1.0 {
					n++
				}
			}
			alive := prev[r][c] == 1.0
			switch {
			case alive && !a.survival[n]:
				if err := l.SetScalar(pos, 0.0); err != nil {
					return err
				}
			case !alive && a.birth[n]:
				if err := l.SetScalar(pos, 1.0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
