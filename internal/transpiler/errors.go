package transpiler

import (
	"errors"
	"fmt"
)

// UnsatisfiableConnectivityError reports an instruction that cannot be
// placed on adjacent physical qubits of the target.
//
// Raised when:
//   - the operands live in different connected components of the coupling map
//   - a non-directive instruction acts on three or more qubits at routing time
//   - a group of interacting qubits is larger than any connected component
//   - no assignment of interacting groups to connected components fits
type UnsatisfiableConnectivityError struct {
	// Op is the operation name, empty for layout-wide failures.
	Op string

	// Qubits are the offending qubit indices (virtual during layout,
	// physical during routing).
	Qubits []int

	// Reason is a human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *UnsatisfiableConnectivityError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("cannot route %s on qubits %v: %s", e.Op, e.Qubits, e.Reason)
	}
	return fmt.Sprintf("unsatisfiable connectivity for qubits %v: %s", e.Qubits, e.Reason)
}

// NoDecompositionPathError reports an operation with no rule path into the
// target's native set.
type NoDecompositionPathError struct {
	Op     string
	Qubits []int
	Target string
}

// Error implements the error interface.
func (e *NoDecompositionPathError) Error() string {
	return fmt.Sprintf("no decomposition path from %s on qubits %v to the basis of target %s", e.Op, e.Qubits, e.Target)
}

// InsufficientQubitsError reports a circuit wider than its target.
type InsufficientQubitsError struct {
	Target string
	Need   int
	Have   int
}

// Error implements the error interface.
func (e *InsufficientQubitsError) Error() string {
	return fmt.Sprintf("circuit needs %d qubits, target %s has %d", e.Need, e.Target, e.Have)
}

// PassError wraps the failure of a single pass. The pipeline stops at the
// first PassError; no partial circuit is returned.
type PassError struct {
	Pass  string
	Index int
	Err   error
}

// Error implements the error interface.
func (e *PassError) Error() string {
	return fmt.Sprintf("pass %d (%s): %v", e.Index, e.Pass, e.Err)
}

// Unwrap returns the underlying pass error.
func (e *PassError) Unwrap() error { return e.Err }

// IsUnsatisfiableConnectivity reports whether err is or wraps an
// UnsatisfiableConnectivityError.
func IsUnsatisfiableConnectivity(err error) bool {
	var e *UnsatisfiableConnectivityError
	return errors.As(err, &e)
}

// IsNoDecompositionPath reports whether err is or wraps a
// NoDecompositionPathError.
func IsNoDecompositionPath(err error) bool {
	var e *NoDecompositionPathError
	return errors.As(err, &e)
}

// IsInsufficientQubits reports whether err is or wraps an
// InsufficientQubitsError.
func IsInsufficientQubits(err error) bool {
	var e *InsufficientQubitsError
	return errors.As(err, &e)
}
