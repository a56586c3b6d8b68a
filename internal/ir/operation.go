package ir

import (
	"slices"
	"strconv"
	"strings"
)

// Operation is an immutable description of something applied to bits: a
// gate name, its qubit and clbit arity and its real parameters.
//
// Operations are values. Params returns a copy, so an Operation shared by
// many instructions can never be changed through one of them. The unitary
// behind a name lives in the instruction set registry, not here.
type Operation struct {
	name      string
	numQubits int
	numClbits int
	params    []float64
}

// NewOperation creates an operation. The params slice is copied.
func NewOperation(name string, numQubits, numClbits int, params ...float64) Operation {
	return Operation{
		name:      name,
		numQubits: numQubits,
		numClbits: numClbits,
		params:    slices.Clone(params),
	}
}

// Name returns the operation name, e.g. "cx".
func (o Operation) Name() string { return o.name }

// NumQubits returns the number of qubit operands.
func (o Operation) NumQubits() int { return o.numQubits }

// NumClbits returns the number of clbit operands.
func (o Operation) NumClbits() int { return o.numClbits }

// NumParams returns the number of real parameters.
func (o Operation) NumParams() int { return len(o.params) }

// Params returns a copy of the parameters.
func (o Operation) Params() []float64 { return slices.Clone(o.params) }

// Param returns the i-th parameter.
func (o Operation) Param(i int) float64 { return o.params[i] }

// WithParams returns a copy of the operation carrying different parameters.
func (o Operation) WithParams(params ...float64) Operation {
	return NewOperation(o.name, o.numQubits, o.numClbits, params...)
}

// Equal reports whether two operations have the same name, arity and
// bit-identical parameters.
func (o Operation) Equal(other Operation) bool {
	return o.name == other.name &&
		o.numQubits == other.numQubits &&
		o.numClbits == other.numClbits &&
		slices.Equal(o.params, other.params)
}

// String renders the operation as name or name(p0,p1,...).
func (o Operation) String() string {
	if len(o.params) == 0 {
		return o.name
	}
	parts := make([]string, len(o.params))
	for i, p := range o.params {
		parts[i] = FormatFloat(p)
	}
	return o.name + "(" + strings.Join(parts, ",") + ")"
}

// FormatFloat renders a parameter in its shortest round-trip form. Negative
// zero is rendered as "0" so that hashes do not depend on the sign of zero.
func FormatFloat(p float64) string {
	if p == 0 {
		p = 0
	}
	return strconv.FormatFloat(p, 'g', -1, 64)
}
