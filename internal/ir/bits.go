package ir

import "fmt"

// BitKind distinguishes quantum from classical registers.
type BitKind int

const (
	// QubitKind marks quantum registers and bits.
	QubitKind BitKind = iota
	// ClbitKind marks classical registers and bits.
	ClbitKind
)

// String returns "qubit" or "clbit".
func (k BitKind) String() string {
	switch k {
	case QubitKind:
		return "qubit"
	case ClbitKind:
		return "clbit"
	default:
		return fmt.Sprintf("BitKind(%d)", int(k))
	}
}

// Qubit identifies a qubit by register name and index within that register.
// A Qubit belongs to a circuit when the circuit declares a quantum register
// with that name whose size exceeds Index.
type Qubit struct {
	Register string `json:"register"`
	Index    int    `json:"index"`
}

// String renders the qubit as name[index].
func (q Qubit) String() string {
	return fmt.Sprintf("%s[%d]", q.Register, q.Index)
}

// Clbit identifies a classical bit by register name and index.
type Clbit struct {
	Register string `json:"register"`
	Index    int    `json:"index"`
}

// String renders the clbit as name[index].
func (c Clbit) String() string {
	return fmt.Sprintf("%s[%d]", c.Register, c.Index)
}

// Register is a named, fixed-size block of bits declared on a circuit.
//
// Offset is the flat index of bit 0 among all bits of the same kind, so the
// flat index of bit i is Offset+i. Registers are values; the circuit keeps
// the authoritative copy.
type Register struct {
	Kind   BitKind `json:"kind"`
	Name   string  `json:"name"`
	Size   int     `json:"size"`
	Offset int     `json:"offset"`
}

// Qubit returns the i-th qubit of a quantum register. The result is only
// meaningful for i in [0, Size); Append rejects anything else.
func (r Register) Qubit(i int) Qubit {
	return Qubit{Register: r.Name, Index: i}
}

// Clbit returns the i-th bit of a classical register.
func (r Register) Clbit(i int) Clbit {
	return Clbit{Register: r.Name, Index: i}
}

// Qubits returns every qubit of the register in index order.
func (r Register) Qubits() []Qubit {
	out := make([]Qubit, r.Size)
	for i := range out {
		out[i] = r.Qubit(i)
	}
	return out
}

// Clbits returns every bit of a classical register in index order.
func (r Register) Clbits() []Clbit {
	out := make([]Clbit, r.Size)
	for i := range out {
		out[i] = r.Clbit(i)
	}
	return out
}
