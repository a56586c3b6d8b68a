package pauli

import (
	"errors"
	"fmt"
)

// ErrNoTerms is returned when an operator would have no terms.
var ErrNoTerms = errors.New("pauli: operator needs at least one term")

// LengthMismatchError reports Pauli strings of different lengths in one
// operator, or a layout whose size does not match the operator.
type LengthMismatchError struct {
	Label string
	Want  int
	Got   int
}

// Error implements the error interface.
func (e *LengthMismatchError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("pauli: length mismatch: want %d qubits, got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("pauli: %q has %d qubits, want %d", e.Label, e.Got, e.Want)
}

// LabelError reports a character outside {I, X, Y, Z} in a Pauli label.
type LabelError struct {
	Label string
	Pos   int
}

// Error implements the error interface.
func (e *LabelError) Error() string {
	if e.Pos >= len(e.Label) {
		return fmt.Sprintf("pauli: invalid label %q", e.Label)
	}
	return fmt.Sprintf("pauli: invalid character %q at position %d of %q", e.Label[e.Pos], e.Pos, e.Label)
}

// IsLengthMismatch reports whether err is or wraps a LengthMismatchError.
func IsLengthMismatch(err error) bool {
	var e *LengthMismatchError
	return errors.As(err, &e)
}

// IsLabelError reports whether err is or wraps a LabelError.
func IsLabelError(err error) bool {
	var e *LabelError
	return errors.As(err, &e)
}
