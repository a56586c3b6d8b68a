package gates

import (
	"errors"
	"fmt"
)

// UnknownOperationError reports an operation name absent from a registry.
type UnknownOperationError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// ParameterCountError reports an operation built with the wrong number of
// parameters.
type ParameterCountError struct {
	Op   string
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ParameterCountError) Error() string {
	return fmt.Sprintf("operation %q expects %d parameter(s), got %d", e.Op, e.Want, e.Got)
}

// RuleError reports a decomposition rule rejected when a registry is built.
type RuleError struct {
	Source  string
	Index   int
	Message string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d for %q: %s", e.Index, e.Source, e.Message)
}

// IsUnknownOperation reports whether err is an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	var e *UnknownOperationError
	return errors.As(err, &e)
}

// IsParameterCount reports whether err is a ParameterCountError.
func IsParameterCount(err error) bool {
	var e *ParameterCountError
	return errors.As(err, &e)
}
