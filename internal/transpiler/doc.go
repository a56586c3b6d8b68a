// Package transpiler rewrites circuits so they run on a target.
//
// A PassManager runs an ordered list of passes. Every pass receives the
// circuit produced by the previous one together with an Env holding the
// target, the instruction set registry and the run's PropertySet. The
// preset pipeline is:
//
//	UnrollMultiQubit -> Layout -> Routing -> BasisTranslator -> optimizations -> CountOps
//
// Layout chooses an initial virtual-to-physical mapping and relabels the
// circuit onto the target's qubits. Routing inserts swap instructions along
// shortest coupling-map paths, ties going to the lowest qubit index.
// BasisTranslator expands non-native operations through registered rules,
// preferring the path that emits the fewest native operations.
//
// Key constraints:
//   - Passes never modify their input circuit
//   - A pass run on its own output changes nothing
//   - The first failing pass aborts the run; no partial result is returned
//   - Every decomposition preserves the unitary including global phase
package transpiler
