package domain

import "errors"

// Error kinds separate fatal configuration problems from per-month data
// problems. The orchestrator aborts a run on the former and emits a
// missing-valued record on the latter.
var (
	// ErrShapeMismatch means a field's coordinates disagree with the mask's.
	// Fatal: it indicates mismatched input files, not a bad month.
	ErrShapeMismatch = errors.New("field and mask shapes do not match")

	// ErrMissingData means a field holds no usable values (empty or all-NaN).
	// Recovered per time step.
	ErrMissingData = errors.New("no usable pressure data")

	// ErrNoCandidate means no ocean-eligible minimum exists in the sector.
	// Recovered per time step.
	ErrNoCandidate = errors.New("no candidate low in sector")

	// ErrOutOfBounds means a configured window selects nothing from the grid.
	// Fatal at setup, before any per-month work starts.
	ErrOutOfBounds = errors.New("window outside grid coordinates")
)
