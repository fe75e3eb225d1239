package lattice

import "errors"

// Sentinel errors for lattice construction and access. Callers compare with
// errors.Is; constructors wrap them with position or mode context.
var (
	// ErrUnsupportedMode is returned for an infon mode outside {scalar, qubit}.
	ErrUnsupportedMode = errors.New("unsupported infon mode")

	// ErrUnsupportedBoundary is returned for a boundary policy outside {periodic, fixed}.
	ErrUnsupportedBoundary = errors.New("unsupported boundary condition")

	// ErrOutOfBounds is returned by fixed-boundary access outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")

	// ErrTypeMismatch is returned when a scalar-only operation is invoked on a
	// qubit lattice or vice versa.
	ErrTypeMismatch = errors.New("operation not valid for this infon mode")

	// ErrShapeMismatch is returned when a supplied pattern does not match the
	// grid dimensions.
	ErrShapeMismatch = errors.New("pattern shape does not match grid")

	// ErrInvalidDimensions is returned for non-positive grid dimensions.
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
)
