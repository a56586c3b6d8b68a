package pauli

import (
	"slices"
	"strings"
)

// Pauli is a single-qubit Pauli label.
type Pauli byte

const (
	I Pauli = 'I'
	X Pauli = 'X'
	Y Pauli = 'Y'
	Z Pauli = 'Z'
)

// String is an immutable Pauli string. Index q holds the label on qubit q.
type String struct {
	ops []Pauli
}

// ParsePauliString parses a label such as "XIZ". The rightmost character
// acts on qubit 0. The empty label is rejected.
func ParsePauliString(label string) (String, error) {
	if label == "" {
		return String{}, &LabelError{Label: label}
	}
	n := len(label)
	ops := make([]Pauli, n)
	for i := 0; i < n; i++ {
		p := Pauli(label[i])
		switch p {
		case I, X, Y, Z:
		default:
			return String{}, &LabelError{Label: label, Pos: i}
		}
		ops[n-1-i] = p
	}
	return String{ops: ops}, nil
}

// MustParse is ParsePauliString for labels known to be valid.
func MustParse(label string) String {
	s, err := ParsePauliString(label)
	if err != nil {
		panic(err)
	}
	return s
}

// Identity returns the all-I string on n qubits.
func Identity(n int) String {
	ops := make([]Pauli, n)
	for i := range ops {
		ops[i] = I
	}
	return String{ops: ops}
}

// NumQubits returns the string length.
func (s String) NumQubits() int { return len(s.ops) }

// At returns the label on qubit q.
func (s String) At(q int) Pauli { return s.ops[q] }

// Label renders the string with qubit 0 rightmost.
func (s String) Label() string {
	var b strings.Builder
	b.Grow(len(s.ops))
	for q := len(s.ops) - 1; q >= 0; q-- {
		b.WriteByte(byte(s.ops[q]))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (s String) String() string { return s.Label() }

// Equal reports whether both strings have the same labels.
func (s String) Equal(o String) bool { return slices.Equal(s.ops, o.ops) }

// Weight returns the number of non-identity labels.
func (s String) Weight() int {
	w := 0
	for _, p := range s.ops {
		if p != I {
			w++
		}
	}
	return w
}

// Dot returns the matrix product s·o as a phase and a string. Both strings
// must have the same length.
func (s String) Dot(o String) (complex128, String) {
	phase := complex(1, 0)
	ops := make([]Pauli, len(s.ops))
	for q := range s.ops {
		p, ph := mul(s.ops[q], o.ops[q])
		ops[q] = p
		phase *= ph
	}
	return phase, String{ops: ops}
}

// Tensor returns s ⊗ o: o occupies the low qubits of the result.
func (s String) Tensor(o String) String {
	return String{ops: slices.Concat(o.ops, s.ops)}
}

// Commutes reports whether s and o commute.
func (s String) Commutes(o String) bool {
	anti := 0
	for q := range s.ops {
		a, b := s.ops[q], o.ops[q]
		if a != I && b != I && a != b {
			anti++
		}
	}
	return anti%2 == 0
}

// mul multiplies two single-qubit Paulis: a·b = phase·p.
func mul(a, b Pauli) (Pauli, complex128) {
	switch {
	case a == I:
		return b, 1
	case b == I:
		return a, 1
	case a == b:
		return I, 1
	}
	switch [2]Pauli{a, b} {
	case [2]Pauli{X, Y}:
		return Z, 1i
	case [2]Pauli{Y, X}:
		return Z, -1i
	case [2]Pauli{Y, Z}:
		return X, 1i
	case [2]Pauli{Z, Y}:
		return X, -1i
	case [2]Pauli{Z, X}:
		return Y, 1i
	default: // X·Z
		return Y, -1i
	}
}
