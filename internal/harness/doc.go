// Package harness runs transpilation scenarios as conformance tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: bell_pair
//	description: "Bell pair on a two-qubit all-to-all device"
//	circuit:
//	  qasm: |
//	    OPENQASM 2.0;
//	    include "qelib1.inc";
//	    qreg q[2];
//	    h q[0];
//	    cx q[0],q[1];
//	target: bell2
//	level: 1
//	assertions:
//	  - type: count_ops
//	    ops: { h: 1, cx: 1 }
//	  - type: layout
//	    layout: [0, 1]
//
// The circuit comes from exactly one of qasm (inline OpenQASM 2.0), script
// (inline Python-style circuit script) or file (a .qasm or .py path
// relative to the scenario). The target is a built-in name, or a target
// declared in the CUE file named by targets_file.
//
// A scenario that is expected to fail names the error kind instead:
//
//	expect_error: unsatisfiable_connectivity
//
// # Assertion Types
//
//   - count_ops: the named operations occur exactly the given number of times
//   - swap_count: routing inserted exactly count swaps
//   - max_depth: the output depth is at most count
//   - layout: the initial layout maps virtual qubit i to layout[i]
//   - native: every operation is in the target basis or a directive
//   - coupled: every two-qubit operation acts on coupled physical qubits
//
// # Determinism
//
// Every scenario runs against a fresh in-memory history with a fixed run
// ID and a stepping clock, so its snapshot is byte-stable and can be
// compared with a golden file.
package harness
