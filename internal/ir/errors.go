package ir

import (
	"errors"
	"fmt"
)

// ErrMutationDuringIteration is returned by mutating calls made while an
// iteration over the circuit's instructions is still running.
var ErrMutationDuringIteration = errors.New("circuit modified during iteration")

// DuplicateNameError reports a register name that is already declared on
// the circuit. Names are shared by quantum and classical registers.
type DuplicateNameError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("register name %q already declared", e.Name)
}

// ArityMismatchError reports an operand list whose length differs from the
// operation's declared arity.
type ArityMismatchError struct {
	Op   string
	Kind BitKind
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("operation %q expects %d %s operand(s), got %d", e.Op, e.Want, e.Kind, e.Got)
}

// UnknownBitError reports a bit that does not belong to the circuit.
// Register is empty when the bit was addressed by flat index.
type UnknownBitError struct {
	Kind     BitKind
	Register string
	Index    int
}

// Error implements the error interface.
func (e *UnknownBitError) Error() string {
	if e.Register != "" {
		return fmt.Sprintf("%s %s[%d] does not belong to the circuit", e.Kind, e.Register, e.Index)
	}
	return fmt.Sprintf("%s index %d out of range", e.Kind, e.Index)
}

// DuplicateOperandError reports an instruction naming the same qubit twice.
type DuplicateOperandError struct {
	Op    string
	Index int
}

// Error implements the error interface.
func (e *DuplicateOperandError) Error() string {
	return fmt.Sprintf("operation %q uses qubit %d more than once", e.Op, e.Index)
}

// RegisterSizeMismatchError reports a compose whose bit mapping is not a
// bijection between the two circuits.
type RegisterSizeMismatchError struct {
	Kind   BitKind
	Want   int
	Got    int
	Reason string
}

// Error implements the error interface.
func (e *RegisterSizeMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s mapping mismatch: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s mapping mismatch: want %d bits, got %d", e.Kind, e.Want, e.Got)
}

// IsDuplicateName returns true if err wraps a DuplicateNameError.
func IsDuplicateName(err error) bool {
	var target *DuplicateNameError
	return errors.As(err, &target)
}

// IsArityMismatch returns true if err wraps an ArityMismatchError.
func IsArityMismatch(err error) bool {
	var target *ArityMismatchError
	return errors.As(err, &target)
}

// IsUnknownBit returns true if err wraps an UnknownBitError.
func IsUnknownBit(err error) bool {
	var target *UnknownBitError
	return errors.As(err, &target)
}

// IsRegisterSizeMismatch returns true if err wraps a RegisterSizeMismatchError.
func IsRegisterSizeMismatch(err error) bool {
	var target *RegisterSizeMismatchError
	return errors.As(err, &target)
}
