// Package ir provides the circuit intermediate representation for qpass.
//
// A Circuit owns its registers and an ordered instruction sequence. Bits are
// addressed either by (register, index) through Qubit and Clbit values or by
// flat index, where the flat index of a bit is its register's offset plus
// its index within the register. Instructions store flat indices.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps the IR the foundation layer with no circular dependencies.
//
// Key constraints:
//   - Every bit referenced by an instruction belongs to the circuit
//   - Operand counts always match the operation's declared arity
//   - Register names are unique per circuit across both bit kinds
//   - Appending while an iteration is live fails fast
//   - Content hashes use canonical JSON; parameters are rendered as strings
package ir
