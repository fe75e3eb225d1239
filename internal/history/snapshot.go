package history

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/emergentlab/trgi/internal/lattice"
)

// Snapshot is a serializable copy of the full lattice state. Qubit
// amplitudes are stored as interleaved (re, im) pairs per cell, four floats
// per qubit, so the payload stays a flat numeric blob.
type Snapshot struct {
	Mode     string    `msgpack:"mode"`
	Boundary string    `msgpack:"boundary"`
	Rows     int       `msgpack:"rows"`
	Cols     int       `msgpack:"cols"`
	Scalars  []float64 `msgpack:"scalars,omitempty"`
	Qubits   []float64 `msgpack:"qubits,omitempty"`
}

// CaptureSnapshot copies the lattice state into a Snapshot.
func CaptureSnapshot(lat *lattice.Lattice) (*Snapshot, error) {
	s := &Snapshot{
		Mode:     string(lat.Mode()),
		Boundary: string(lat.Boundary()),
		Rows:     lat.Rows(),
		Cols:     lat.Cols(),
	}

	switch lat.Mode() {
	case lattice.ModeScalar:
		field, err := lat.ScalarField()
		if err != nil {
			return nil, err
		}
		s.Scalars = make([]float64, 0, s.Rows*s.Cols)
		for _, row := range field {
			s.Scalars = append(s.Scalars, row...)
		}

	case lattice.ModeQubit:
		s.Qubits = make([]float64, 0, s.Rows*s.Cols*4)
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				q, err := lat.Qubit(lattice.Position{Row: r, Col: c})
				if err != nil {
					return nil, err
				}
				a, b := q.Amplitudes()
				s.Qubits = append(s.Qubits, real(a), imag(a), real(b), imag(b))
			}
		}
	}

	return s, nil
}

// Restore writes the snapshot state back onto a lattice of matching mode and
// shape.
func (s *Snapshot) Restore(lat *lattice.Lattice) error {
	if string(lat.Mode()) != s.Mode {
		return fmt.Errorf("%w: snapshot mode %s, lattice mode %s", lattice.ErrTypeMismatch, s.Mode, lat.Mode())
	}
	if lat.Rows() != s.Rows || lat.Cols() != s.Cols {
		return fmt.Errorf("%w: snapshot %dx%d, lattice %dx%d", lattice.ErrShapeMismatch, s.Rows, s.Cols, lat.Rows(), lat.Cols())
	}

	switch lat.Mode() {
	case lattice.ModeScalar:
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				if err := lat.SetScalar(lattice.Position{Row: r, Col: c}, s.Scalars[r*s.Cols+c]); err != nil {
					return err
				}
			}
		}

	case lattice.ModeQubit:
		for r := 0; r < s.Rows; r++ {
			for c := 0; c < s.Cols; c++ {
				i := (r*s.Cols + c) * 4
				a := complex(s.Qubits[i], s.Qubits[i+1])
				b := complex(s.Qubits[i+2], s.Qubits[i+3])
				if err := lat.SetQubit(lattice.Position{Row: r, Col: c}, lattice.NewQuantumState(a, b)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Marshal serializes the snapshot to a msgpack blob.
func (s *Snapshot) Marshal() ([]byte, error) {
	payload, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return payload, nil
}

// UnmarshalSnapshot decodes a msgpack snapshot blob.
func UnmarshalSnapshot(payload []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &s, nil
}
