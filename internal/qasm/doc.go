// Package qasm converts circuits to and from OpenQASM 2.0 text.
//
// Parsing is statement based: comments are stripped, statements are split
// on ';' and matched against pre-compiled patterns. Gate names resolve
// through a gates.Registry, so any registered operation can appear in a
// program. Parameters accept plain numbers and pi expressions such as
// "3*pi/4".
package qasm
