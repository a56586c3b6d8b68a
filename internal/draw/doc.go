// Package draw renders circuits as text wire diagrams.
//
// Every bit gets one line: qubits first, then clbits. Instructions are
// packed into the leftmost column free on all the wires they span, so
// gates on disjoint qubits share a column. Multi-bit instructions are
// joined by vertical links, drawn doubled once they carry a classical
// value.
//
// Styled output uses lipgloss; WithPlain gives the bare characters used
// by golden tests and pipes.
package draw
