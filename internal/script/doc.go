// Package script imports circuits written as short Python scripts and
// explains them in Markdown.
//
// Only the circuit-building subset is understood: one QuantumCircuit
// assignment and method calls on that variable. Everything else in the
// file, imports and drawing calls included, is skipped.
package script
