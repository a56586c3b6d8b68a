// Package pauli represents observables as weighted sums of Pauli strings.
//
// A Pauli string is a sequence of single-qubit labels I, X, Y and Z. Labels
// are written in the conventional order: the rightmost character acts on
// qubit 0, so "XZ" is Z on qubit 0 and X on qubit 1.
//
// Key constraints:
//   - Every term of one operator has the same number of qubits
//   - Sums and products combine duplicate strings by adding coefficients
//   - Operators are immutable; every operation returns a new value
package pauli
